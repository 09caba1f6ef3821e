package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/wb-go/wbf/zlog"
	"gopkg.in/yaml.v3"

	"github.com/aliskhannn/image-converter/internal/model"
)

// FileStore keeps settings in a YAML document shared by every instance that
// points at the same path. Writes from other instances are picked up by Watch.
type FileStore struct {
	path string

	mu        sync.Mutex
	last      model.Values // values as of the last read or write
	listeners []func(model.Values)
}

// NewFileStore opens (or prepares) the settings file at path.
func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(abs), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	s := &FileStore{path: abs}

	last, err := s.read()
	if err != nil {
		return nil, err
	}
	s.last = last

	return s, nil
}

// Path returns the absolute path of the settings file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the stored values for keys (all keys when none are given).
// Absent keys are left nil.
func (s *FileStore) Get(ctx context.Context, keys ...string) (model.Values, error) {
	if err := ctx.Err(); err != nil {
		return model.Values{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.read()
	if err != nil {
		return model.Values{}, err
	}

	return v.Only(keys...), nil
}

// Set merges v into the stored document and notifies listeners of the keys that changed.
func (s *FileStore) Set(ctx context.Context, v model.Values) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	current, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return err
	}

	next := current.Merge(v)
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return err
	}

	changed := s.last.Diff(next)
	s.last = next
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners, changed)

	return nil
}

// OnChange registers fn to receive changed keys.
func (s *FileStore) OnChange(fn func(model.Values)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, fn)
}

// Watch follows the settings file for writes made by other instances until ctx is done.
// Setup errors are returned; once watching, the loop is tracked by wg.
func (s *FileStore) Watch(ctx context.Context, wg *sync.WaitGroup) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	// Watch the directory: atomic renames replace the file inode.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer w.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				s.reload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				zlog.Logger.Err(err).Str("path", s.path).Msg("settings watcher error")
			}
		}
	}()

	return nil
}

// reload re-reads the file and emits whatever differs from the last known values.
func (s *FileStore) reload() {
	s.mu.Lock()
	next, err := s.read()
	if err != nil {
		s.mu.Unlock()
		zlog.Logger.Err(err).Str("path", s.path).Msg("failed to reload settings")
		return
	}

	changed := s.last.Diff(next)
	s.last = next
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	notify(listeners, changed)
}

// read loads the document. A missing or empty file has no keys.
func (s *FileStore) read() (model.Values, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Values{}, nil
		}
		return model.Values{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var v model.Values
	if err := yaml.Unmarshal(data, &v); err != nil {
		return model.Values{}, fmt.Errorf("failed to parse settings: %w", err)
	}

	return v, nil
}

// write replaces the document atomically.
func (s *FileStore) write(v model.Values) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	return nil
}

func (s *FileStore) snapshotListeners() []func(model.Values) {
	return append([]func(model.Values){}, s.listeners...)
}

func notify(listeners []func(model.Values), changed model.Values) {
	if changed.Empty() {
		return
	}

	for _, fn := range listeners {
		fn(changed)
	}
}
