//go:build !tesseract

package tesseract

import (
	"context"

	"github.com/gardar/slidelayers/pkg/extract"
)

// Extractor is a stub that fails every call.
type Extractor struct{}

// New returns ErrNotEnabled. Rebuild with -tags tesseract to enable it.
func New(cfg Config) (*Extractor, error) {
	return nil, ErrNotEnabled
}

// Close is a no-op for the stub. It is safe to call on a nil extractor.
func (e *Extractor) Close() error {
	return nil
}

// Extract returns ErrNotEnabled.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (extract.Result, error) {
	return extract.Result{}, ErrNotEnabled
}
