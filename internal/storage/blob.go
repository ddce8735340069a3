package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalBlobStore writes screenshot bytes to a local directory and returns a
// public URL built from a configured base. S3-style stores can replace it
// behind the BlobStore interface without touching the pipeline.
type LocalBlobStore struct {
	dir     string
	baseURL string
}

// NewLocalBlobStore ensures the target directory exists.
func NewLocalBlobStore(dir, baseURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	return &LocalBlobStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes the bytes under a random name and returns the public reference.
func (s *LocalBlobStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + extensionFor(contentType)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

// Dir returns the directory blobs are written to, for static file serving.
func (s *LocalBlobStore) Dir() string {
	return s.dir
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
