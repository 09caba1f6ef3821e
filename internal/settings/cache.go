package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/model"
)

// store is the read/subscribe side of the synchronized settings store.
type store interface {
	Get(ctx context.Context, keys ...string) (model.Values, error)
	OnChange(fn func(model.Values))
}

// Cache holds the current settings so dispatch does not hit the store on every click.
// It is refreshed by the store's change notifications.
type Cache struct {
	mu      sync.RWMutex
	current model.Settings

	// changes seen while Load is reading the store; they win over what it read.
	loading bool
	pending model.Values
}

// NewCache creates a cache holding the default settings.
func NewCache() *Cache {
	return &Cache{current: model.DefaultSettings()}
}

// Load subscribes to changes and then reads the stored settings once.
// A change delivered during the read is kept over the value read.
func (c *Cache) Load(ctx context.Context, s store) error {
	c.mu.Lock()
	c.loading = true
	c.pending = model.Values{}
	c.mu.Unlock()

	s.OnChange(c.Apply)

	v, err := s.Get(ctx, model.KeyImageFormat, model.KeyCompressionRatio)

	c.mu.Lock()
	if err == nil {
		c.current = c.pending.Apply(v.Apply(c.current))
	}
	c.loading = false
	c.pending = model.Values{}
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	snap := c.Snapshot()
	zlog.Logger.Info().
		Str("image_format", string(snap.ImageFormat)).
		Int("compression_ratio", snap.CompressionRatio).
		Msg("settings loaded")

	return nil
}

// Apply overlays changed keys onto the cached settings.
func (c *Cache) Apply(changes model.Values) {
	if changes.Empty() {
		return
	}

	c.mu.Lock()
	c.current = changes.Apply(c.current)
	if c.loading {
		c.pending = c.pending.Merge(changes)
	}
	snap := c.current
	c.mu.Unlock()

	zlog.Logger.Info().
		Strs("keys", changes.Keys()).
		Str("image_format", string(snap.ImageFormat)).
		Int("compression_ratio", snap.CompressionRatio).
		Msg("settings changed")
}

// Snapshot returns the current settings.
func (c *Cache) Snapshot() model.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.current
}
