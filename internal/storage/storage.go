// Package storage persists review media and profile photos as blobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/where2dive/internal/config"
)

// ErrInvalidKey is returned for empty keys or keys escaping the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Object describes a stored blob.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// Store is the minimal blob contract used by services.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New picks the backend configured by STORAGE_DRIVER.
func New(ctx context.Context, cfg config.AppConfig) (Store, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.UploadURLPath), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func cleanKey(key string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(key), "/")
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(trimmed, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
		}
	}
	return trimmed, nil
}
