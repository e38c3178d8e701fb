package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage defines the interface for object storage operations
type Storage interface {
	// Upload stores data under bucket/path and returns its public URL
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)

	// Delete removes an object from storage
	Delete(ctx context.Context, bucket, path string) error
}

// LocalStorage implements Storage interface using local filesystem.
// Objects are served from baseURL by the API server in development.
type LocalStorage struct {
	rootDir string
	baseURL string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(rootDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{rootDir: rootDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory objects are written to.
func (s *LocalStorage) Dir() string {
	return s.rootDir
}

func (s *LocalStorage) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full, err := s.resolve(bucket, path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(full, data, 0644); err != nil {
		os.Remove(full) // Clean up on error
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return s.baseURL + "/" + bucket + "/" + path, nil
}

func (s *LocalStorage) Delete(ctx context.Context, bucket, path string) error {
	full, err := s.resolve(bucket, path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// resolve maps bucket/path to a file, refusing anything outside rootDir.
func (s *LocalStorage) resolve(bucket, path string) (string, error) {
	full := filepath.Join(s.rootDir, bucket, path)
	rel, err := filepath.Rel(s.rootDir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object path: must be within storage directory")
	}
	return full, nil
}
