package handler

import (
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/service"
)

// formUploads 打开 multipart 中指定字段的全部文件，调用方负责执行返回的 closer
func formUploads(c *gin.Context, field string) ([]service.MediaUpload, func(), error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, func() {}, nil
	}
	return openUploads(form.File[field])
}

func openUploadHeaders(headers ...*multipart.FileHeader) ([]service.MediaUpload, func(), error) {
	return openUploads(headers)
}

func openUploads(headers []*multipart.FileHeader) ([]service.MediaUpload, func(), error) {
	uploads := make([]service.MediaUpload, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, file := range opened {
			_ = file.Close()
		}
	}

	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, file)
		uploads = append(uploads, service.MediaUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
	}
	return uploads, closeAll, nil
}

func isJSONRequest(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Content-Type"), "application/json")
}
