package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/aliskhannn/image-converter/internal/model"
)

// notifier delivers settings changes to local subscribers.
type notifier interface {
	Notify(changes model.Values)
}

// Handler applies settings changes published by any instance.
type Handler struct {
	notifier notifier
}

// NewHandler creates a new handler with the given notifier.
func NewHandler(n notifier) *Handler {
	return &Handler{notifier: n}
}

// Handle decodes the changed keys and notifies local subscribers.
func (h *Handler) Handle(_ context.Context, msg kafka.Message) error {
	var changes model.Values
	if err := json.Unmarshal(msg.Value, &changes); err != nil {
		return fmt.Errorf("unmarshal settings change: %w", err)
	}

	h.notifier.Notify(changes)

	return nil
}
