package settings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/api/respond"
	"github.com/aliskhannn/image-converter/internal/model"
	settingssvc "github.com/aliskhannn/image-converter/internal/service/settings"
)

// service defines the settings form operations.
type service interface {
	Load(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, settings model.Settings) (string, error)
	Status() string
}

// Handler provides HTTP handlers for the settings form.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// SaveRequest carries both settings; neither may be omitted.
type SaveRequest struct {
	ImageFormat      *model.Format `json:"imageFormat"`
	CompressionRatio *int          `json:"compressionRatio"`
}

// Get returns the stored settings with defaults applied.
func (h *Handler) Get(c *ginext.Context) {
	s, err := h.service.Load(c.Request.Context())
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to load settings")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to load settings"))
		return
	}

	respond.OK(c, s)
}

// Save persists the settings and returns the status message.
func (h *Handler) Save(c *ginext.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if req.ImageFormat == nil || req.CompressionRatio == nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("imageFormat and compressionRatio are required"))
		return
	}

	msg, err := h.service.Save(c.Request.Context(), model.Settings{
		ImageFormat:      *req.ImageFormat,
		CompressionRatio: *req.CompressionRatio,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, settingssvc.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}

		respond.Fail(c, status, errors.New(msg))
		return
	}

	respond.OK(c, map[string]string{"message": msg})
}

// Status returns the transient status message of the last save.
func (h *Handler) Status(c *ginext.Context) {
	respond.OK(c, map[string]string{"message": h.service.Status()})
}
