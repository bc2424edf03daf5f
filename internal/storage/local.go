package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a directory that the router serves statically.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	if strings.TrimSpace(root) == "" {
		root = "web/static/uploads"
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "/static/uploads"
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	file, err := os.Create(target)
	if err != nil {
		return Object{}, fmt.Errorf("create upload file: %w", err)
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(target)
		return Object{}, fmt.Errorf("write upload file: %w", copyErr)
	}
	if closeErr != nil {
		return Object{}, fmt.Errorf("close upload file: %w", closeErr)
	}

	return Object{Key: cleaned, URL: s.URL(cleaned), Size: written}, nil
}

// Delete ignores keys that no longer exist.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(cleaned))); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + path.Clean(strings.TrimLeft(key, "/"))
}
