package config

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/restore"
)

var providers = map[string]bool{"openai": true, "anthropic": true, "ollama": true, "mistral": true}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Extractor.Backend {
	case BackendLLM:
		if !providers[c.Extractor.Provider] {
			errs = append(errs, fmt.Errorf("extractor: unknown provider %q", c.Extractor.Provider))
		}
	case BackendDocumentAI:
		if !c.DocumentAI.Configured() {
			errs = append(errs, fmt.Errorf("documentai: project_id, location and processor_id are required"))
		}
	case BackendTesseract:
	default:
		errs = append(errs, fmt.Errorf("extractor: unknown backend %q", c.Extractor.Backend))
	}
	if c.Extractor.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("extractor: max_retries must not be negative"))
	}

	switch c.Restorer.Backend {
	case RestorerOpenAI, RestorerNone:
	default:
		errs = append(errs, fmt.Errorf("restorer: unknown backend %q", c.Restorer.Backend))
	}
	if _, err := restore.ParseAuthPolicy(c.Restorer.AuthPolicy); err != nil {
		errs = append(errs, fmt.Errorf("restorer: %w", err))
	}

	if c.Writer.PageWidth < 0 || c.Writer.PageHeight < 0 {
		errs = append(errs, fmt.Errorf("writer: page size must not be negative"))
	}
	for face, ff := range c.Writer.Fonts {
		if ff.Regular == "" {
			errs = append(errs, fmt.Errorf("writer: font %q has no regular file", face))
		}
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
