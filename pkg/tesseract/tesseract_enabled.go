//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
)

// Extractor wraps one Tesseract client. Tesseract clients are not safe for
// concurrent use, so calls are serialized.
type Extractor struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
	log    logrus.FieldLogger
}

// New creates a Tesseract client for cfg.Languages.
// The extractor should be closed when no longer needed.
func New(cfg Config) (*Extractor, error) {
	client := gosseract.NewClient()
	if len(cfg.Languages) > 0 {
		if err := client.SetLanguage(cfg.Languages...); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
		}
	}
	return &Extractor{client: client, cfg: cfg, log: getLogger(cfg.Logger)}, nil
}

// Close releases Tesseract resources.
func (e *Extractor) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Extract recognizes the image and returns one block per text line.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (extract.Result, error) {
	if err := extract.CheckImage(image, minImageBytes(e.cfg)); err != nil {
		return extract.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(image); err != nil {
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, fmt.Errorf("failed to set image: %w", err))
	}
	out, err := e.client.HOCRText()
	if err != nil {
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, fmt.Errorf("tesseract failed: %w", err))
	}

	e.log.WithField("hocr_length", len(out)).Debug("Tesseract recognized page")
	return resultFromHOCR([]byte(out))
}
