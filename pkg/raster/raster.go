// Package raster holds page bitmaps and the small amount of image handling
// the pipeline needs: format detection, telling real rasters apart from
// placeholders, downscaling before upload and re-encoding for embedding.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Image is an encoded bitmap together with its MIME type.
type Image struct {
	Data     []byte
	MimeType string
}

// Empty reports whether the image carries no data. The zero Image is the
// blank sentinel used for pages without a background.
func (i Image) Empty() bool {
	return len(i.Data) == 0
}

// New wraps data, detecting its MIME type from the content.
func New(data []byte) (Image, error) {
	mime, err := DetectMime(data)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: data, MimeType: mime}, nil
}

// DetectMime decodes just enough of data to name its image format.
func DetectMime(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image data")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return "image/" + format, nil
}

// IsRaster reports whether data is a decodable bitmap rather than a
// filler or unavailable-page placeholder.
func IsRaster(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil && cfg.Width > 0 && cfg.Height > 0
}

// Size returns the pixel dimensions of img.
func Size(img Image) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Fit downscales img so neither side exceeds maxSide pixels. Images that
// already fit, and a maxSide <= 0, return img unchanged.
func Fit(img Image, maxSide int) (Image, error) {
	if maxSide <= 0 {
		return img, nil
	}
	w, h, err := Size(img)
	if err != nil {
		return Image{}, err
	}
	if w <= maxSide && h <= maxSide {
		return img, nil
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	dst := imaging.Fit(src, maxSide, maxSide, imaging.Lanczos)

	format := imaging.PNG
	mime := "image/png"
	if img.MimeType == "image/jpeg" {
		format = imaging.JPEG
		mime = "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, format); err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return Image{Data: buf.Bytes(), MimeType: mime}, nil
}

// Embeddable returns img in a format a PDF writer can embed (PNG, JPEG or
// GIF) together with the writer's type name. Other formats are re-encoded
// as PNG.
func Embeddable(img Image) (Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, "", fmt.Errorf("failed to decode image config: %w", err)
	}

	switch format {
	case "png", "jpeg", "gif":
		img.MimeType = "image/" + format
		return img, strings.ToUpper(format), nil
	}

	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, "", fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return Image{}, "", fmt.Errorf("failed to encode image: %w", err)
	}
	return Image{Data: buf.Bytes(), MimeType: "image/png"}, "PNG", nil
}

// SniffMime falls back to content sniffing for payloads that are not
// decodable images, such as PDFs.
func SniffMime(data []byte) string {
	if mime, err := DetectMime(data); err == nil {
		return mime
	}
	return http.DetectContentType(data)
}

// EncodePNG re-encodes img as PNG. PNG input is returned unchanged.
func EncodePNG(img Image) (Image, error) {
	if img.MimeType == "image/png" {
		return img, nil
	}
	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return Image{}, fmt.Errorf("failed to decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return Image{}, fmt.Errorf("failed to encode image: %w", err)
	}
	return Image{Data: buf.Bytes(), MimeType: "image/png"}, nil
}
