package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-converter/internal/model"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func newStore(t *testing.T, path string) *FileStore {
	t.Helper()

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	return s
}

func TestFileStore_GetEmpty(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "sync", "settings.yml"))

	v, err := s.Get(context.Background(), model.KeyImageFormat, model.KeyCompressionRatio)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !v.Empty() {
		t.Errorf("Expected no keys, got %v", v.Keys())
	}

	got := v.Apply(model.DefaultSettings())
	if got != (model.Settings{ImageFormat: model.FormatJPG, CompressionRatio: 100}) {
		t.Errorf("Expected defaults {jpg 100}, got %+v", got)
	}
}

func TestFileStore_SetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	s := newStore(t, path)

	want := model.Settings{ImageFormat: model.FormatPNG, CompressionRatio: 42}
	if err := s.Set(context.Background(), model.ValuesOf(want)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := v.Apply(model.DefaultSettings()); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	// A fresh store on the same file sees the same values.
	reopened := newStore(t, path)
	v, err = reopened.Get(context.Background(), model.KeyCompressionRatio)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.ImageFormat != nil {
		t.Errorf("Expected only compressionRatio, got %v", v.Keys())
	}
	if v.CompressionRatio == nil || *v.CompressionRatio != 42 {
		t.Errorf("Expected compressionRatio 42, got %v", v.CompressionRatio)
	}
}

func TestFileStore_SetNotifiesChangedKeysOnly(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "settings.yml"))

	var events []model.Values
	s.OnChange(func(v model.Values) { events = append(events, v) })

	ctx := context.Background()
	if err := s.Set(ctx, model.ValuesOf(model.Settings{ImageFormat: model.FormatJPG, CompressionRatio: 80})); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, model.ValuesOf(model.Settings{ImageFormat: model.FormatPNG, CompressionRatio: 80})); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, model.ValuesOf(model.Settings{ImageFormat: model.FormatPNG, CompressionRatio: 80})); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 change events, got %d", len(events))
	}
	if len(events[0].Keys()) != 2 {
		t.Errorf("First event should carry both keys, got %v", events[0].Keys())
	}
	if keys := events[1].Keys(); len(keys) != 1 || keys[0] != model.KeyImageFormat {
		t.Errorf("Second event should carry imageFormat only, got %v", keys)
	}
}

func TestFileStore_WatchSeesOtherInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	local := newStore(t, path)
	remote := newStore(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan model.Values, 10)
	local.OnChange(func(v model.Values) { changes <- v })

	var wg sync.WaitGroup
	if err := local.Watch(ctx, &wg); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	ratio := 25
	if err := remote.Set(ctx, model.Values{CompressionRatio: &ratio}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	select {
	case v := <-changes:
		if v.CompressionRatio == nil || *v.CompressionRatio != 25 {
			t.Errorf("Expected compressionRatio 25, got %v", v.CompressionRatio)
		}
		if v.ImageFormat != nil {
			t.Errorf("Expected imageFormat to be unchanged, got %v", *v.ImageFormat)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for change event")
	}
	cancel()
	wg.Wait()
}

func TestFileStore_WatchStopsOnCancel(t *testing.T) {
	s := newStore(t, filepath.Join(t.TempDir(), "settings.yml"))

	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	if err := s.Watch(ctx, &wg); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for watcher to stop")
	}
}

func TestFileStore_InvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	if err := os.WriteFile(path, []byte("imageFormat: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	if _, err := NewFileStore(path); err == nil {
		t.Error("Expected error for malformed settings file")
	}
}
