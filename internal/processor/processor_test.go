package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/image-converter/internal/model"
)

type savedFile struct {
	filename    string
	contentType string
	data        []byte
}

type memoryStorage struct {
	saved []savedFile
	err   error
}

func (s *memoryStorage) Save(_ context.Context, filename, contentType string, src io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	s.saved = append(s.saved, savedFile{filename: filename, contentType: contentType, data: data})

	return "downloads/" + filename, nil
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	return buf.Bytes()
}

func newImageServer(t *testing.T, body []byte, status int) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestProcessor(storage *memoryStorage) *Processor {
	p := New(NewHTTPFetcher(nil, 0), storage, DefaultOptions())
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	return p
}

func conversion(url string, format model.Format, ratio int, mode model.ResizeMode) model.Conversion {
	return model.Conversion{ID: uuid.New(), URL: url, Format: format, Ratio: ratio, Mode: mode}
}

func TestConvert_RatioPNG(t *testing.T) {
	srv := newImageServer(t, pngBytes(t, 64, 32), http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	res, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, 50, model.ResizeRatio))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(storage.saved) != 1 {
		t.Fatalf("Expected 1 saved file, got %d", len(storage.saved))
	}

	saved := storage.saved[0]
	if saved.filename != "1700000000.png" {
		t.Errorf("Expected filename 1700000000.png, got %s", saved.filename)
	}
	if saved.contentType != "image/png" {
		t.Errorf("Expected image/png, got %s", saved.contentType)
	}
	if res.Width != 32 || res.Height != 16 {
		t.Errorf("Expected 32x16, got %dx%d", res.Width, res.Height)
	}
	if res.Location != "downloads/1700000000.png" {
		t.Errorf("Unexpected location %s", res.Location)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(saved.data))
	if err != nil {
		t.Fatalf("Saved data is not a png: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 16 {
		t.Errorf("Saved png is %dx%d, expected 32x16", cfg.Width, cfg.Height)
	}
}

func TestConvert_OriginalSizeJPG(t *testing.T) {
	srv := newImageServer(t, pngBytes(t, 40, 20), http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	res, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatJPG, 10, model.ResizeNone))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if res.MIMEType != "image/jpeg" || storage.saved[0].contentType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", res.MIMEType)
	}
	if storage.saved[0].filename != "1700000000.jpg" {
		t.Errorf("Expected filename 1700000000.jpg, got %s", storage.saved[0].filename)
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(storage.saved[0].data))
	if err != nil {
		t.Fatalf("Saved data is not a jpeg: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("Saved jpeg is %dx%d, expected 40x20", cfg.Width, cfg.Height)
	}
}

func TestConvert_UnknownFormatFallsBackToJPEG(t *testing.T) {
	srv := newImageServer(t, pngBytes(t, 8, 8), http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	res, err := p.Convert(context.Background(), conversion(srv.URL, model.Format("webp"), 100, model.ResizeRatio))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if res.MIMEType != "image/jpeg" {
		t.Errorf("Expected image/jpeg fallback, got %s", res.MIMEType)
	}
	if res.Filename != "1700000000.jpg" {
		t.Errorf("Expected .jpg fallback filename, got %s", res.Filename)
	}
}

func TestConvert_MaxDimension(t *testing.T) {
	srv := newImageServer(t, pngBytes(t, 600, 400), http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	res, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, 0, model.ResizeMaxDimension))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if res.Width != 300 || res.Height != 200 {
		t.Errorf("Expected 300x200, got %dx%d", res.Width, res.Height)
	}
}

func TestConvert_FetchFailure(t *testing.T) {
	srv := newImageServer(t, []byte("nope"), http.StatusNotFound)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	_, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, 100, model.ResizeRatio))
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Expected ErrFetch, got %v", err)
	}
	if FailedStage(err) != StageFetching {
		t.Errorf("Expected failure at fetching, got %s", FailedStage(err))
	}
	if len(storage.saved) != 0 {
		t.Errorf("Expected no saved files, got %d", len(storage.saved))
	}
}

func TestConvert_DecodeFailure(t *testing.T) {
	srv := newImageServer(t, []byte("definitely not an image"), http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	_, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, 100, model.ResizeRatio))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Expected ErrDecode, got %v", err)
	}
	if len(storage.saved) != 0 {
		t.Errorf("Expected no saved files, got %d", len(storage.saved))
	}
}

func TestConvert_TruncatedImage(t *testing.T) {
	data := pngBytes(t, 32, 32)
	srv := newImageServer(t, data[:len(data)/2], http.StatusOK)
	storage := &memoryStorage{}
	p := newTestProcessor(storage)

	_, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatJPG, 100, model.ResizeRatio))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Expected ErrDecode, got %v", err)
	}
}

func TestConvert_ZeroRatio(t *testing.T) {
	tests := []struct {
		width, height, ratio int
	}{
		{64, 32, 0},
		{1, 200, 10}, // width rounds to zero
	}

	for _, test := range tests {
		srv := newImageServer(t, pngBytes(t, test.width, test.height), http.StatusOK)
		storage := &memoryStorage{}
		p := newTestProcessor(storage)

		_, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, test.ratio, model.ResizeRatio))
		if !errors.Is(err, ErrEncode) {
			t.Errorf("%dx%d at %d%%: expected ErrEncode, got %v", test.width, test.height, test.ratio, err)
		}
		if FailedStage(err) != StageEncoding {
			t.Errorf("Expected failure at encoding, got %s", FailedStage(err))
		}
		if len(storage.saved) != 0 {
			t.Errorf("Expected no saved files, got %d", len(storage.saved))
		}
	}
}

func TestConvert_SaveFailure(t *testing.T) {
	srv := newImageServer(t, pngBytes(t, 4, 4), http.StatusOK)
	storage := &memoryStorage{err: errors.New("disk full")}
	p := newTestProcessor(storage)

	_, err := p.Convert(context.Background(), conversion(srv.URL, model.FormatPNG, 100, model.ResizeRatio))
	if !errors.Is(err, ErrSave) {
		t.Fatalf("Expected ErrSave, got %v", err)
	}
}

func TestDraw_SurfaceUnavailable(t *testing.T) {
	p := newTestProcessor(&memoryStorage{})
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))

	if _, err := p.draw(src, MaxSurfaceSide+1, 10); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Errorf("Expected ErrSurfaceUnavailable, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	ts := time.Unix(1712345678, 999)

	if got := Filename(ts, model.FormatPNG); got != "1712345678.png" {
		t.Errorf("Filename() = %s, expected 1712345678.png", got)
	}
	if got := Filename(ts, model.FormatJPG); got != "1712345678.jpg" {
		t.Errorf("Filename() = %s, expected 1712345678.jpg", got)
	}
}

func TestFilterByName(t *testing.T) {
	for _, name := range []string{"", "lanczos", "Linear", "bicubic", "box", "nearest"} {
		if _, err := FilterByName(name); err != nil {
			t.Errorf("FilterByName(%q) returned error: %v", name, err)
		}
	}

	if _, err := FilterByName("sinc"); err == nil {
		t.Error("Expected error for unknown filter")
	}
}
