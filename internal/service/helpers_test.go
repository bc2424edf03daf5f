package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/where2dive/internal/db"
	"github.com/where2dive/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServiceDB 为每个测试打开独立的内存库并写入内置潜水点
func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Prepare(gdb); err != nil {
		t.Fatalf("failed to prepare test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createTestUser(t *testing.T, gdb *gorm.DB, email string) *db.User {
	t.Helper()
	user, err := NewUserService(gdb).Register(email, "secret", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func spotIDBySlug(t *testing.T, gdb *gorm.DB, slug string) uint {
	t.Helper()
	var spot db.DiveSpot
	if err := gdb.Where("slug = ?", slug).First(&spot).Error; err != nil {
		t.Fatalf("spot %s not found: %v", slug, err)
	}
	return spot.ID
}

// memoryBlobStore 将对象保存在内存中
type memoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	failPut bool
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (storage.Object, error) {
	if m.failPut {
		return storage.Object{}, fmt.Errorf("put %s: disk full", key)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return storage.Object{Key: key, URL: m.URL(key), Size: int64(len(data))}, nil
}

func (m *memoryBlobStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *memoryBlobStore) URL(key string) string {
	return "/media/" + key
}

func (m *memoryBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *memoryBlobStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func pngUpload(t *testing.T, width, height int) MediaUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 10, G: 120, B: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return MediaUpload{Filename: "photo.png", ContentType: "image/png", Size: int64(buf.Len()), Body: bytes.NewReader(buf.Bytes())}
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode stored image: %v", err)
	}
	return cfg.Width, cfg.Height
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func stringPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}
