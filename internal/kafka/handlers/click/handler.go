package click

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/model"
	"github.com/aliskhannn/image-converter/internal/service/converter"
)

// service defines the interface for dispatching menu clicks.
type service interface {
	HandleClick(ctx context.Context, click model.Click) (model.Result, error)
}

// Handler handles Kafka messages carrying menu clicks.
type Handler struct {
	service service
}

// NewHandler creates a new handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Handle unmarshals the click, dispatches it and logs the result.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var click model.Click
	if err := json.Unmarshal(msg.Value, &click); err != nil {
		return fmt.Errorf("unmarshal click: %w", err)
	}

	res, err := h.service.HandleClick(ctx, click)
	if err != nil {
		if errors.Is(err, converter.ErrUnknownMenuItem) || errors.Is(err, converter.ErrMissingSource) {
			return fmt.Errorf("dispatch click: %w", err)
		}

		// Already logged by the dispatcher.
		return nil
	}

	zlog.Logger.Info().
		Str("click_id", click.ID.String()).
		Str("location", res.Location).
		Msg("image downloaded")

	return nil
}
