package restore

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/raster"
)

// Defaults for OpenAIConfig.
const (
	DefaultModel   = "gpt-image-1"
	DefaultSize    = "1536x1024"
	DefaultMaxSide = 2048
)

// imageEditor is the part of *openai.Client the restorer calls.
type imageEditor interface {
	CreateEditImage(ctx context.Context, request openai.ImageEditRequest) (openai.ImageResponse, error)
}

// OpenAIConfig configures the OpenAI image-edit restorer.
type OpenAIConfig struct {
	APIKey  string             // OpenAI API key
	BaseURL string             // Optional OpenAI-compatible endpoint
	Model   string             // Default gpt-image-1
	Size    string             // Output size; default 1536x1024 (landscape)
	Prompt  string             // Overrides DefaultPrompt when set
	MaxSide int                // Source images are downscaled to fit; 0 = DefaultMaxSide
	TempDir string             // Where uploads are staged; empty = os.TempDir()
	Logger  logrus.FieldLogger // nil = standard logger
}

// OpenAIRestorer asks an OpenAI image model to erase the text of a slide.
type OpenAIRestorer struct {
	client imageEditor
	http   *http.Client
	cfg    OpenAIConfig
	log    logrus.FieldLogger
}

// NewOpenAIRestorer creates a restorer with its own API client.
func NewOpenAIRestorer(cfg OpenAIConfig) *OpenAIRestorer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newOpenAIRestorer(openai.NewClientWithConfig(clientCfg), cfg)
}

func newOpenAIRestorer(client imageEditor, cfg OpenAIConfig) *OpenAIRestorer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Size == "" {
		cfg.Size = DefaultSize
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.MaxSide == 0 {
		cfg.MaxSide = DefaultMaxSide
	}
	return &OpenAIRestorer{client: client, http: http.DefaultClient, cfg: cfg, log: getLogger(cfg.Logger)}
}

// Restore uploads src with the restoration prompt and returns the edited
// image. A response without image data is ErrRestorationRefused.
func (r *OpenAIRestorer) Restore(ctx context.Context, src raster.Image) (raster.Image, error) {
	upload, err := r.prepare(src)
	if err != nil {
		return raster.Image{}, err
	}

	file, err := stage(r.cfg.TempDir, upload)
	if err != nil {
		return raster.Image{}, err
	}
	defer func() {
		file.Close()
		os.Remove(file.Name())
	}()

	req := openai.ImageEditRequest{
		Image:  file,
		Prompt: r.cfg.Prompt,
		Model:  r.cfg.Model,
		N:      1,
		Size:   r.cfg.Size,
	}
	// gpt-image models always answer with base64 and reject the parameter.
	if !strings.HasPrefix(r.cfg.Model, "gpt-image") {
		req.ResponseFormat = openai.CreateImageResponseFormatB64JSON
	}

	resp, err := r.client.CreateEditImage(ctx, req)
	if err != nil {
		return raster.Image{}, fmt.Errorf("failed to edit image: %w", err)
	}
	if len(resp.Data) == 0 {
		return raster.Image{}, failure.New(failure.ErrRestorationRefused, 0, fmt.Errorf("response contained no image"))
	}

	data, err := r.decode(ctx, resp.Data[0])
	if err != nil {
		return raster.Image{}, err
	}
	img, err := raster.New(data)
	if err != nil {
		return raster.Image{}, failure.New(failure.ErrRestorationRefused, 0, err)
	}
	r.log.WithField("bytes", len(data)).Debug("Received restored background")
	return img, nil
}

// prepare downscales src and converts it to a format the endpoint accepts.
func (r *OpenAIRestorer) prepare(src raster.Image) (raster.Image, error) {
	img, err := raster.Fit(src, r.cfg.MaxSide)
	if err != nil {
		return raster.Image{}, fmt.Errorf("failed to resize page image: %w", err)
	}
	switch img.MimeType {
	case "image/png", "image/jpeg", "image/webp":
		return img, nil
	}
	return raster.EncodePNG(img)
}

func (r *OpenAIRestorer) decode(ctx context.Context, item openai.ImageResponseDataInner) ([]byte, error) {
	if item.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data: %w", err)
		}
		return data, nil
	}
	if item.URL == "" {
		return nil, failure.New(failure.ErrRestorationRefused, 0, fmt.Errorf("response contained no image"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// stage writes img to a temporary file named with its extension, which the
// upload uses to declare the content type.
func stage(dir string, img raster.Image) (*os.File, error) {
	ext := strings.TrimPrefix(img.MimeType, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	file, err := os.CreateTemp(dir, "page-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := file.Write(img.Data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		os.Remove(file.Name())
		return nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}
	return file, nil
}
