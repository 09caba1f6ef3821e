package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxDuplicates bounds the " (n)" suffix search for colliding names.
const maxDuplicates = 1000

// Storage provides a local download directory.
// Existing files are never overwritten: a colliding name gets a " (n)" suffix.
type Storage struct {
	basePath string
	mu       sync.Mutex
}

// NewStorage creates a new Storage instance with the given basePath.
// The basePath defines the directory where downloads will be stored.
func NewStorage(basePath string) *Storage {
	return &Storage{basePath: basePath}
}

// Save writes src into the download directory under filename (or a suffixed variant).
// contentType is not persisted for local files.
func (s *Storage) Save(ctx context.Context, filename, contentType string, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.basePath, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", s.basePath, err)
	}

	dst, dstPath, err := s.create(filepath.Base(filename))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file %s: %w", dstPath, err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to close file %s: %w", dstPath, err)
	}

	return dstPath, nil
}

// create opens a new file for filename, adding " (n)" before the extension on collisions.
func (s *Storage) create(filename string) (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for i := 0; i < maxDuplicates; i++ {
		name := filename
		if i > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}

		dstPath := filepath.Join(s.basePath, name)
		dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return dst, dstPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("failed to create file %s: %w", dstPath, err)
		}
	}

	return nil, "", fmt.Errorf("too many files named %s", filename)
}
