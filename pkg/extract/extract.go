// Package extract turns one rasterized page into the page's text blocks by
// asking a text-structure analysis service and validating its answer.
//
// The Adapter owns the contract every backend shares:
//
// - Images that are empty or implausibly small fail with failure.ErrInvalidInput
// - Transient backend failures are retried with exponential backoff
// - A service that cannot be reached or returns nothing fails with
// failure.ErrExtractionFailed
// - A payload that is present but unparseable degrades to zero blocks with
// StatusDegraded, so one bad page never aborts a document
// - Every field is validated and defaulted before it leaves the package
//
// Backends:
//
// - LLMBackend: vision LLMs through langchaingo (openai, anthropic, ollama, mistral)
// - gdocai.Extractor: Google Document AI with style information
// - tesseract.Extractor: local Tesseract via hOCR (build tag "tesseract")
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/layout"
)

// Status tells callers whether an empty result means "no text on the page"
// or "the answer could not be read".
type Status int

const (
	StatusOK       Status = iota // Payload parsed; Blocks may legitimately be empty
	StatusDegraded               // Payload unparseable; Blocks is empty, see Diagnostic
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of extracting one page.
type Result struct {
	Blocks     []layout.TextBlock
	Status     Status
	Diagnostic string // Why the result is degraded, or what was dropped
	Dropped    int    // Blocks discarded during validation
}

// Extractor recovers the text blocks of one page image.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mimeType string) (Result, error)
}

// Backend asks a text-structure service about one page and returns its raw
// JSON payload, which must follow the {"textBlocks": [...]} schema.
type Backend interface {
	Analyze(ctx context.Context, image []byte, mimeType string) ([]byte, error)
}

// Config holds the Adapter's validation and retry settings.
type Config struct {
	MinImageBytes int                // Smaller images are rejected as malformed
	MaxRetries    int                // Extra attempts after a transient failure
	RetryInterval time.Duration      // First backoff interval
	Logger        logrus.FieldLogger // nil = standard logger
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		MinImageBytes: 100,
		MaxRetries:    2,
		RetryInterval: 500 * time.Millisecond,
	}
}

// Adapter applies the extraction contract on top of a Backend.
type Adapter struct {
	backend Backend
	cfg     Config
	log     logrus.FieldLogger
}

// NewAdapter wraps backend with validation, retries and schema decoding.
func NewAdapter(backend Backend, cfg Config) *Adapter {
	return &Adapter{backend: backend, cfg: cfg, log: getLogger(cfg.Logger)}
}

// Extract runs the backend once per page (plus retries) and decodes the answer.
func (a *Adapter) Extract(ctx context.Context, image []byte, mimeType string) (Result, error) {
	if err := CheckImage(image, a.cfg.MinImageBytes); err != nil {
		return Result{}, err
	}

	payload, err := a.analyze(ctx, image, mimeType)
	if err != nil {
		return Result{}, failure.New(failure.ErrExtractionFailed, 0, err)
	}

	res, err := Decode(payload)
	if err != nil {
		return Result{}, err
	}
	if res.Status == StatusDegraded {
		a.log.WithField("diagnostic", res.Diagnostic).Warn("Extraction response unparseable, continuing with no text")
	}
	return res, nil
}

func (a *Adapter) analyze(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		payload, err := a.backend.Analyze(ctx, image, mimeType)
		if err == nil {
			return payload, nil
		}
		if failure.IsAuthorizationSignature(err) {
			return nil, backoff.Permanent(failure.New(failure.ErrAuthorizationRequired, 0, err))
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	if a.cfg.RetryInterval > 0 {
		policy.InitialInterval = a.cfg.RetryInterval
	}
	retries := a.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)

	return backoff.RetryNotifyWithData(op, b, func(err error, wait time.Duration) {
		a.log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait,
		}).Warn("Extraction attempt failed, retrying")
	})
}

// CheckImage rejects page images that are missing or smaller than minBytes.
func CheckImage(image []byte, minBytes int) error {
	if len(image) == 0 {
		return failure.New(failure.ErrInvalidInput, 0, fmt.Errorf("page image is empty"))
	}
	if len(image) < minBytes {
		return failure.New(failure.ErrInvalidInput, 0,
			fmt.Errorf("page image is %d bytes, need at least %d", len(image), minBytes))
	}
	return nil
}

// getLogger returns logger, defaulting to the logrus standard logger if nil.
func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
