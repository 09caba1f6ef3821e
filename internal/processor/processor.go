package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/fogleman/gg"
	"github.com/gabriel-vasile/mimetype"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"

	"github.com/aliskhannn/image-converter/internal/model"
)

// Defaults for Options.
const (
	DefaultMaxDimension = 300
	DefaultJPEGQuality  = 92
)

// fetcher retrieves the raw bytes of an image.
type fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// fileStorage defines the interface for the download backend.
// It allows saving files to a backend (e.g., local directory, S3, MinIO).
type fileStorage interface {
	Save(ctx context.Context, filename, contentType string, src io.Reader) (string, error)
}

// Options tunes the pipeline.
type Options struct {
	MaxDimension int                    // longest side for ResizeMaxDimension
	JPEGQuality  int                    // 1..100
	Filter       imaging.ResampleFilter // resampling used when drawing at a new size
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxDimension: DefaultMaxDimension,
		JPEGQuality:  DefaultJPEGQuality,
		Filter:       imaging.Lanczos,
	}
}

// Processor converts one image URL into one saved file.
type Processor struct {
	fetcher     fetcher
	fileStorage fileStorage
	opts        Options
	now         func() time.Time
}

// New creates a new Processor with the given fetcher and download backend.
func New(f fetcher, fs fileStorage, opts Options) *Processor {
	def := DefaultOptions()
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}

	return &Processor{
		fetcher:     f,
		fileStorage: fs,
		opts:        opts,
		now:         time.Now,
	}
}

// Convert runs fetch, decode, resize, encode and save for a single conversion.
// The first failing stage stops the pipeline; nothing is saved unless encoding succeeded.
func (p *Processor) Convert(ctx context.Context, c model.Conversion) (model.Result, error) {
	log := zlog.Logger.With().
		Str("conversion_id", c.ID.String()).
		Str("mode", c.Mode.String()).
		Logger()

	fail := func(stage Stage, err error) (model.Result, error) {
		log.Debug().Str("stage", StageFailed.String()).Str("failed_at", stage.String()).Msg("conversion stopped")
		return model.Result{}, &StageError{Stage: stage, Err: err}
	}

	// Retrieve the source bytes.
	log.Debug().Str("stage", StageFetching.String()).Str("url", c.URL).Msg("conversion stage")
	data, err := p.fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return fail(StageFetching, fmt.Errorf("%w: %w", ErrFetch, err))
	}

	// Decode into a pixel surface.
	log.Debug().Str("stage", StageDecoding.String()).Int("bytes", len(data)).Msg("conversion stage")
	src, err := decode(data)
	if err != nil {
		return fail(StageDecoding, err)
	}

	// Compute the target size and draw onto a fresh surface.
	log.Debug().Str("stage", StageResizing.String()).Msg("conversion stage")
	width, height := p.targetSize(src.Bounds(), c)
	surface, err := p.draw(src, width, height)
	if err != nil {
		return fail(StageResizing, err)
	}

	// Encode to the requested format.
	log.Debug().Str("stage", StageEncoding.String()).Int("width", width).Int("height", height).Msg("conversion stage")
	artifact, err := p.encode(surface, c.Format)
	if err != nil {
		return fail(StageEncoding, err)
	}

	// Hand the artifact to the download backend.
	log.Debug().Str("stage", StageSaving.String()).Str("filename", artifact.Filename).Msg("conversion stage")
	location, err := p.fileStorage.Save(ctx, artifact.Filename, artifact.MIMEType, bytes.NewReader(artifact.Data))
	if err != nil {
		return fail(StageSaving, fmt.Errorf("%w: %w", ErrSave, err))
	}

	res := model.Result{
		ID:        c.ID,
		Location:  location,
		Filename:  artifact.Filename,
		MIMEType:  artifact.MIMEType,
		Width:     width,
		Height:    height,
		Size:      len(artifact.Data),
		CreatedAt: p.now(),
	}

	log.Info().
		Str("stage", StageDone.String()).
		Str("location", location).
		Str("size", humanize.Bytes(uint64(res.Size))).
		Msg("image converted")

	return res, nil
}

// targetSize computes the output dimensions for the conversion mode.
func (p *Processor) targetSize(b image.Rectangle, c model.Conversion) (int, int) {
	switch c.Mode {
	case model.ResizeMaxDimension:
		return FitWithin(b.Dx(), b.Dy(), p.opts.MaxDimension)
	case model.ResizeRatio:
		return ScaleByRatio(b.Dx(), b.Dy(), c.Ratio)
	default:
		return b.Dx(), b.Dy()
	}
}

// draw resamples src to width x height and paints it onto a new drawing context.
// A zero-area target yields an empty surface; the encoder rejects it.
func (p *Processor) draw(src image.Image, width, height int) (image.Image, error) {
	if width < 0 || height < 0 || !surfaceAvailable(width, height) {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	if width == 0 || height == 0 {
		return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
	}

	resized := src
	if b := src.Bounds(); b.Dx() != width || b.Dy() != height {
		resized = imaging.Resize(src, width, height, p.opts.Filter)
	}

	dc := gg.NewContext(width, height)
	dc.DrawImage(resized, 0, 0)

	return dc.Image(), nil
}

// encode serializes the surface and names the artifact.
func (p *Processor) encode(img image.Image, format model.Format) (model.Artifact, error) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return model.Artifact{}, fmt.Errorf("%w: zero-area surface %dx%d", ErrEncode, b.Dx(), b.Dy())
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, encoderFormat(format), imaging.JPEGQuality(p.opts.JPEGQuality)); err != nil {
		return model.Artifact{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return model.Artifact{
		Filename: Filename(p.now(), format),
		MIMEType: format.MIMEType(),
		Data:     buf.Bytes(),
	}, nil
}

// Filename returns "<unix seconds>.<ext>".
func Filename(t time.Time, format model.Format) string {
	return fmt.Sprintf("%d.%s", t.Unix(), format.Extension())
}

func encoderFormat(format model.Format) imaging.Format {
	if format == model.FormatPNG {
		return imaging.PNG
	}

	return imaging.JPEG
}

func decode(data []byte) (image.Image, error) {
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("%w: unsupported content %s", ErrDecode, mime.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return img, nil
}

// FilterByName maps a config name to a resampling filter.
func FilterByName(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "lanczos":
		return imaging.Lanczos, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	case "catmullrom", "bicubic":
		return imaging.CatmullRom, nil
	case "box":
		return imaging.Box, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
	}
}
