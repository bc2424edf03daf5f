package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/where2dive/internal/storage"
)

var (
	// ErrMediaType 上传文件类型不被允许
	ErrMediaType = errors.New("unsupported media type")
	// ErrMediaTooLarge 上传文件超过大小限制
	ErrMediaTooLarge = errors.New("media too large")
)

const (
	mediaKindImage = "image"
	mediaKindVideo = "video"

	maxImageBytes = 5 << 20
	maxVideoBytes = 50 << 20
)

// MediaUpload 为 handler 传入的单个上传文件
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type mediaRule struct {
	kind    string
	maxSize int64
}

var (
	reviewMediaRules = map[string]mediaRule{
		"image/jpeg":      {kind: mediaKindImage, maxSize: maxImageBytes},
		"image/png":       {kind: mediaKindImage, maxSize: maxImageBytes},
		"image/gif":       {kind: mediaKindImage, maxSize: maxImageBytes},
		"video/mp4":       {kind: mediaKindVideo, maxSize: maxVideoBytes},
		"video/quicktime": {kind: mediaKindVideo, maxSize: maxVideoBytes},
	}
	photoRules = map[string]mediaRule{
		"image/jpeg": {kind: mediaKindImage, maxSize: maxImageBytes},
		"image/png":  {kind: mediaKindImage, maxSize: maxImageBytes},
		"image/gif":  {kind: mediaKindImage, maxSize: maxImageBytes},
		"image/webp": {kind: mediaKindImage, maxSize: maxImageBytes},
	}
	mediaExtensions = map[string]string{
		"image/jpeg":      "jpg",
		"image/png":       "png",
		"image/gif":       "gif",
		"image/webp":      "webp",
		"video/mp4":       "mp4",
		"video/quicktime": "mov",
	}
)

// storedMedia 为写入存储后的结果
type storedMedia struct {
	object      storage.Object
	kind        string
	contentType string
}

func normalizeContentType(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}

func checkUpload(upload MediaUpload, rules map[string]mediaRule) (mediaRule, string, error) {
	contentType := normalizeContentType(upload.ContentType)
	rule, ok := rules[contentType]
	if !ok {
		return mediaRule{}, "", fmt.Errorf("%w: %s", ErrMediaType, contentType)
	}
	if upload.Size > rule.maxSize {
		return mediaRule{}, "", fmt.Errorf("%w: %s", ErrMediaTooLarge, upload.Filename)
	}
	return rule, contentType, nil
}

func checkUploads(uploads []MediaUpload, rules map[string]mediaRule) error {
	for _, upload := range uploads {
		if _, _, err := checkUpload(upload, rules); err != nil {
			return err
		}
	}
	return nil
}

// putMedia 校验并写入单个文件，图片按 maxDim 缩放，键为 prefix/<uuid>.<ext>
func putMedia(ctx context.Context, store storage.Store, prefix string, upload MediaUpload, rules map[string]mediaRule, maxDim int) (storedMedia, error) {
	rule, contentType, err := checkUpload(upload, rules)
	if err != nil {
		return storedMedia{}, err
	}
	if upload.Body == nil {
		return storedMedia{}, fmt.Errorf("%w: empty body", ErrMediaType)
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, rule.maxSize+1))
	if err != nil {
		return storedMedia{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > rule.maxSize {
		return storedMedia{}, fmt.Errorf("%w: %s", ErrMediaTooLarge, upload.Filename)
	}

	if rule.kind == mediaKindImage && maxDim > 0 {
		data, contentType, err = storage.Downscale(data, contentType, maxDim)
		if err != nil {
			return storedMedia{}, fmt.Errorf("%w: %v", ErrMediaType, err)
		}
	}

	key := path.Join(prefix, uuid.NewString()+"."+mediaExtensions[contentType])
	object, err := store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return storedMedia{}, fmt.Errorf("store media: %w", err)
	}
	return storedMedia{object: object, kind: rule.kind, contentType: contentType}, nil
}

// deleteBlobs 尽力删除对象，失败只记录日志
func deleteBlobs(ctx context.Context, store storage.Store, keys ...string) {
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			logStorageError(key, err)
		}
	}
}
