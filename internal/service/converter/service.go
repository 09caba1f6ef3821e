package converter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/menu"
	"github.com/aliskhannn/image-converter/internal/model"
	"github.com/aliskhannn/image-converter/internal/processor"
)

var (
	ErrUnknownMenuItem = errors.New("unknown menu item")
	ErrMissingSource   = errors.New("missing image source url")
)

// menuResolver maps a clicked entry id to its action.
type menuResolver interface {
	Resolve(id string) (menu.Entry, bool)
}

// settingsCache provides the current settings without reading the store.
type settingsCache interface {
	Snapshot() model.Settings
}

// imageProcessor runs the conversion pipeline.
type imageProcessor interface {
	Convert(ctx context.Context, c model.Conversion) (model.Result, error)
}

// Service dispatches menu clicks to the conversion pipeline.
type Service struct {
	menu      menuResolver
	settings  settingsCache
	processor imageProcessor

	wg sync.WaitGroup
}

// NewService creates a new Service.
func NewService(m menuResolver, s settingsCache, p imageProcessor) *Service {
	return &Service{menu: m, settings: s, processor: p}
}

// NewClick builds a click event with a fresh id.
func NewClick(menuItemID, srcURL string) model.Click {
	return model.Click{
		ID:         uuid.New(),
		MenuItemID: menuItemID,
		SrcURL:     srcURL,
		CreatedAt:  time.Now(),
	}
}

// Validate rejects clicks that can never be dispatched.
func (s *Service) Validate(click model.Click) error {
	if _, ok := s.menu.Resolve(click.MenuItemID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMenuItem, click.MenuItemID)
	}
	if click.SrcURL == "" {
		return ErrMissingSource
	}

	return nil
}

// HandleClick converts the clicked image with the settings current at this moment.
// Pipeline failures are logged here and returned; nothing is retried.
func (s *Service) HandleClick(ctx context.Context, click model.Click) (model.Result, error) {
	if err := s.Validate(click); err != nil {
		return model.Result{}, err
	}

	entry, _ := s.menu.Resolve(click.MenuItemID)
	current := s.settings.Snapshot()

	format := entry.Action.Format
	if format == "" {
		format = current.ImageFormat
	}

	id := click.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	conv := model.Conversion{
		ID:     id,
		URL:    click.SrcURL,
		Format: format,
		Ratio:  current.CompressionRatio,
		Mode:   entry.Action.Mode,
	}

	res, err := s.processor.Convert(ctx, conv)
	if err != nil {
		zlog.Logger.Err(err).
			Str("conversion_id", id.String()).
			Str("menu_item", click.MenuItemID).
			Str("stage", processor.FailedStage(err).String()).
			Msg("error in converting and downloading image")
		return model.Result{}, err
	}

	return res, nil
}

// Enqueue dispatches the click in the background, without a broker.
// The conversion is detached from ctx and runs to completion or failure.
func (s *Service) Enqueue(ctx context.Context, click model.Click) error {
	if err := s.Validate(click); err != nil {
		return err
	}

	detached := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.HandleClick(detached, click)
	}()

	return nil
}

// Wait blocks until background conversions finish.
func (s *Service) Wait() {
	s.wg.Wait()
}
