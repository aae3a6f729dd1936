package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrFileTooLarge = errors.New("file exceeds the allowed size")

// LocalStorage persists uploads on the local filesystem under generated
// names, so original filenames never touch the disk.
type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Save streams src to disk, enforcing maxBytes. Returns the stored file
// name and the number of bytes written. A partial file left behind by an
// oversized upload is removed.
func (s *LocalStorage) Save(originalName string, src io.Reader, maxBytes int64) (string, int64, error) {
	ext := filepath.Ext(originalName)
	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.basePath, name)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	// Read one byte past the cap to detect oversized uploads.
	written, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to save file: %w", err)
	}
	if written > maxBytes {
		_ = os.Remove(fullPath)
		return "", 0, ErrFileTooLarge
	}

	return name, written, nil
}

// Path resolves a stored name to its on-disk location. Only bare file names
// are accepted; anything resembling a path is rejected.
func (s *LocalStorage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.basePath, name), nil
}

func (s *LocalStorage) Delete(name string) error {
	fullPath, err := s.Path(name)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(fullPath)
}

func (s *LocalStorage) Exists(name string) bool {
	fullPath, err := s.Path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}
