// Package storage persists uploaded review images and hands back stable
// reference paths for the API to embed in posts.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions limits uploads to common web image formats.
var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// FileStore accepts an upload and returns a stable reference path that
// clients can fetch the file at.
type FileStore interface {
	Save(filename string, content []byte) (string, error)
}

// DiskStore writes uploads to a local directory served as static files
// under /uploads.
type DiskStore struct {
	dir string
}

// NewDiskStore ensures the upload directory exists and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes content under a fresh UUID name, keeping only the original
// extension, and returns the public /uploads path. The client-supplied
// filename never reaches the filesystem.
func (s *DiskStore) Save(filename string, content []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	name := uuid.New().String() + ext
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	return "/uploads/" + name, nil
}
