package menu

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/text/language"

	"github.com/aliskhannn/image-converter/internal/api/respond"
	"github.com/aliskhannn/image-converter/internal/menu"
	"github.com/aliskhannn/image-converter/internal/model"
	"github.com/aliskhannn/image-converter/internal/service/converter"
)

// localizer lists the menu entries for a language.
type localizer interface {
	Localized(tag language.Tag) []menu.Item
}

// validator rejects clicks that cannot be dispatched.
type validator interface {
	Validate(click model.Click) error
}

// queue hands a click over for conversion (Kafka or in-process).
type queue interface {
	Enqueue(ctx context.Context, click model.Click) error
}

// Handler provides HTTP handlers for the context menu.
type Handler struct {
	menu        localizer
	validator   validator
	queue       queue
	defaultLang string
}

// NewHandler creates a new Handler.
func NewHandler(m localizer, v validator, q queue, defaultLang string) *Handler {
	return &Handler{menu: m, validator: v, queue: q, defaultLang: defaultLang}
}

// ClickRequest is a context-menu click on an image.
type ClickRequest struct {
	MenuItemID string `json:"menuItemId"`
	SrcURL     string `json:"srcUrl"`
}

// List returns the menu entries with titles in the caller's language.
// ?lang= wins over Accept-Language; values that do not parse are skipped.
func (h *Handler) List(c *ginext.Context) {
	accept := []string{c.Query("lang"), c.GetHeader("Accept-Language"), h.defaultLang}

	var tag language.Tag
	for _, a := range accept {
		if a == "" {
			continue
		}
		if _, _, err := language.ParseAcceptLanguage(a); err != nil {
			continue
		}
		tag = menu.Match(a)
		break
	}
	if tag == language.Und {
		tag = menu.Match()
	}

	respond.OK(c, h.menu.Localized(tag))
}

// Click validates and enqueues a click. The conversion runs in the background.
func (h *Handler) Click(c *ginext.Context) {
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zlog.Logger.Err(err).Msg("failed to decode click")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	click := converter.NewClick(req.MenuItemID, req.SrcURL)

	if err := h.validator.Validate(click); err != nil {
		if errors.Is(err, converter.ErrUnknownMenuItem) || errors.Is(err, converter.ErrMissingSource) {
			zlog.Logger.Warn().Err(err).Msg("rejected click")
			respond.Fail(c, http.StatusBadRequest, err)
			return
		}

		respond.Fail(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.queue.Enqueue(c.Request.Context(), click); err != nil {
		zlog.Logger.Err(err).Msg("failed to enqueue click")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to enqueue click: %v", err))
		return
	}

	respond.Accepted(c, map[string]interface{}{
		"id": click.ID,
	})
}
