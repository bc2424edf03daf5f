package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Downscale shrinks an image so that neither side exceeds maxDim, keeping aspect ratio.
// Images already within bounds and animated GIFs are returned untouched.
// The second return value is the content type of the returned bytes.
func Downscale(data []byte, contentType string, maxDim int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= maxDim && cfg.Height <= maxDim {
		return data, contentType, nil
	}
	if format == "gif" {
		if anim, err := gif.DecodeAll(bytes.NewReader(data)); err == nil && len(anim.Image) > 1 {
			return data, contentType, nil
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	outFormat, outType := imaging.JPEG, "image/jpeg"
	switch format {
	case "png":
		outFormat, outType = imaging.PNG, "image/png"
	case "gif":
		outFormat, outType = imaging.GIF, "image/gif"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, outFormat, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), outType, nil
}
