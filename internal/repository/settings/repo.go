package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/wb-go/wbf/dbpg"

	"github.com/aliskhannn/image-converter/internal/model"
)

// publisher fans settings changes out to every instance (e.g., a Kafka topic).
type publisher interface {
	Publish(ctx context.Context, changes model.Values) error
}

// Repository stores settings as key/value rows in PostgreSQL.
type Repository struct {
	db        *dbpg.DB
	publisher publisher

	mu        sync.RWMutex
	listeners []func(model.Values)
}

// NewRepository creates a new Repository with the given DB connection.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// SetPublisher routes change notifications through p instead of notifying
// local listeners directly. Every instance, this one included, receives them back via Notify.
func (r *Repository) SetPublisher(p publisher) {
	r.publisher = p
}

// Get returns the stored values for keys (all keys when none are given).
func (r *Repository) Get(ctx context.Context, keys ...string) (model.Values, error) {
	query := `
		SELECT key, value
		FROM settings
    `

	rows, err := r.db.Master.QueryContext(ctx, query)
	if err != nil {
		return model.Values{}, fmt.Errorf("get: failed to query settings: %w", err)
	}
	defer rows.Close()

	var v model.Values
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return model.Values{}, fmt.Errorf("get: failed to scan setting: %w", err)
		}

		if err := decodeValue(&v, key, value); err != nil {
			return model.Values{}, fmt.Errorf("get: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return model.Values{}, fmt.Errorf("get: failed to iterate settings: %w", err)
	}

	return v.Only(keys...), nil
}

// Set upserts the present keys in one transaction and announces the ones whose value changed.
// Nothing is written or announced when any key fails.
func (r *Repository) Set(ctx context.Context, v model.Values) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
		WHERE settings.value IS DISTINCT FROM EXCLUDED.value
    `

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	encoded := encodeValues(v)

	var changed model.Values
	for _, key := range v.Keys() {
		value := encoded[key]

		res, err := tx.ExecContext(ctx, query, key, value)
		if err != nil {
			return fmt.Errorf("set: failed to save %s: %w", key, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("set: failed to get number of rows affected: %w", err)
		}
		if n == 0 {
			continue
		}

		if err := decodeValue(&changed, key, value); err != nil {
			return fmt.Errorf("set: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set: failed to commit: %w", err)
	}

	if changed.Empty() {
		return nil
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, changed); err != nil {
			return fmt.Errorf("set: failed to publish change: %w", err)
		}
		return nil
	}

	r.Notify(changed)

	return nil
}

// OnChange registers fn to receive changed keys.
func (r *Repository) OnChange(fn func(model.Values)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, fn)
}

// Notify delivers changes to the registered listeners.
func (r *Repository) Notify(changes model.Values) {
	if changes.Empty() {
		return
	}

	r.mu.RLock()
	listeners := append([]func(model.Values){}, r.listeners...)
	r.mu.RUnlock()

	for _, fn := range listeners {
		fn(changes)
	}
}

func encodeValues(v model.Values) map[string]string {
	out := make(map[string]string, 2)
	if v.ImageFormat != nil {
		out[model.KeyImageFormat] = string(*v.ImageFormat)
	}
	if v.CompressionRatio != nil {
		out[model.KeyCompressionRatio] = strconv.Itoa(*v.CompressionRatio)
	}

	return out
}

// decodeValue sets key on v. Unknown keys are ignored.
func decodeValue(v *model.Values, key, value string) error {
	switch key {
	case model.KeyImageFormat:
		format := model.Format(value)
		v.ImageFormat = &format
	case model.KeyCompressionRatio:
		ratio, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		v.CompressionRatio = &ratio
	}

	return nil
}
