package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/model"
)

// DefaultStatusTTL is how long a save status message stays visible.
const DefaultStatusTTL = time.Second

// Status messages shown after a save.
const (
	MessageSaved      = "settings saved"
	messageSaveFailed = "save failed: %v"
)

var ErrInvalidSettings = errors.New("invalid settings")

// store defines the read/write side of the synchronized settings store.
type store interface {
	Get(ctx context.Context, keys ...string) (model.Values, error)
	Set(ctx context.Context, v model.Values) error
}

// Service backs the settings form: it loads the stored values, validates and
// persists edits, and keeps a transient status message for the last save.
type Service struct {
	store     store
	statusTTL time.Duration

	mu     sync.Mutex
	status string
	gen    uint64
	timer  *time.Timer
}

// NewService creates a new Service. A non-positive ttl means DefaultStatusTTL.
func NewService(s store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}

	return &Service{store: s, statusTTL: ttl}
}

// Load returns the stored settings with defaults for absent keys.
func (s *Service) Load(ctx context.Context) (model.Settings, error) {
	v, err := s.store.Get(ctx, model.KeyImageFormat, model.KeyCompressionRatio)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load: %w", err)
	}

	return v.Apply(model.DefaultSettings()), nil
}

// Save validates and persists settings. The outcome is also published as the status message.
func (s *Service) Save(ctx context.Context, settings model.Settings) (string, error) {
	if err := Validate(settings); err != nil {
		msg := fmt.Sprintf(messageSaveFailed, err)
		s.flash(msg)
		return msg, err
	}

	if err := s.store.Set(ctx, model.ValuesOf(settings)); err != nil {
		zlog.Logger.Err(err).Msg("failed to save settings")
		msg := fmt.Sprintf(messageSaveFailed, err)
		s.flash(msg)
		return msg, fmt.Errorf("save: %w", err)
	}

	zlog.Logger.Info().
		Str("image_format", string(settings.ImageFormat)).
		Int("compression_ratio", settings.CompressionRatio).
		Msg("saving settings")

	s.flash(MessageSaved)

	return MessageSaved, nil
}

// Status returns the current status message, empty once it has expired.
func (s *Service) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// flash sets msg and clears it after the TTL unless a newer message replaced it.
func (s *Service) flash(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	s.status = msg

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.statusTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.gen == gen {
			s.status = ""
		}
	})
}

// Validate checks the constraints enforced by the settings form.
func Validate(settings model.Settings) error {
	if !settings.ImageFormat.Valid() {
		return fmt.Errorf("%w: unsupported image format %q", ErrInvalidSettings, settings.ImageFormat)
	}
	if settings.CompressionRatio < 0 || settings.CompressionRatio > 100 {
		return fmt.Errorf("%w: compression ratio %d out of range [0, 100]", ErrInvalidSettings, settings.CompressionRatio)
	}

	return nil
}
