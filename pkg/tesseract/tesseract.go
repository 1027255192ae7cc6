// Package tesseract runs the local Tesseract engine as a text-structure
// backend. Tesseract reports lines as hOCR; each line becomes one text block.
//
// Tesseract support is compiled in only with the "tesseract" build tag:
//
//	go build -tags tesseract
//
// This requires Tesseract and its headers. On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
//
// Without the tag, New returns ErrNotEnabled.
package tesseract

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/hocr"
)

// ErrNotEnabled is returned when Tesseract support was not compiled in.
var ErrNotEnabled = errors.New("tesseract support not enabled; rebuild with -tags tesseract")

// Config tunes the Tesseract backend.
type Config struct {
	Languages     []string           // Tesseract language codes; empty = "eng"
	MinImageBytes int                // Smaller page images are rejected
	Logger        logrus.FieldLogger // nil = standard logger
}

// resultFromHOCR converts Tesseract's hOCR output for one image into an
// extraction result.
func resultFromHOCR(data []byte) (extract.Result, error) {
	doc, err := hocr.Parse(data)
	if err != nil {
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, fmt.Errorf("failed to parse hOCR: %w", err))
	}

	blocks, dropped := extract.Validate(extract.BlocksFromHOCR(doc.Pages[0]))
	res := extract.Result{Blocks: blocks, Status: extract.StatusOK, Dropped: dropped}
	if dropped > 0 {
		res.Diagnostic = fmt.Sprintf("dropped %d text blocks", dropped)
	}
	return res, nil
}

func minImageBytes(cfg Config) int {
	if cfg.MinImageBytes > 0 {
		return cfg.MinImageBytes
	}
	return extract.DefaultConfig().MinImageBytes
}

// getLogger returns logger, defaulting to the logrus standard logger if nil.
func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
