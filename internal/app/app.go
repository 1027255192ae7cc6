// Package app wires the configured backends into session dependencies for
// the slidesplit and slidesd commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/config"
	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/gdocai"
	"github.com/gardar/slidelayers/pkg/restore"
	"github.com/gardar/slidelayers/pkg/session"
	"github.com/gardar/slidelayers/pkg/slidedoc"
	"github.com/gardar/slidelayers/pkg/store"
	"github.com/gardar/slidelayers/pkg/tesseract"
)

// App holds the wired dependencies and the resources to release.
type App struct {
	Deps    session.Deps
	DocAI   *gdocai.Client // nil unless a Document AI processor is configured
	closers []func() error
}

// Build creates every collaborator named by cfg.
func Build(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, error) {
	a := &App{}
	a.Deps.Logger = logger

	if cfg.DocumentAI.Configured() {
		client, err := gdocai.NewClient(ctx, cfg.GDocAIConfig(logger))
		if err != nil {
			return nil, err
		}
		a.DocAI = client
		a.Deps.Rasterizer = client
		a.closers = append(a.closers, client.Close)
	}

	ex, err := a.extractor(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Deps.Extractor = ex

	if cfg.Restorer.Backend == config.RestorerOpenAI {
		pc, err := cfg.PipelineConfig(logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Deps.Pipeline = restore.New(restore.NewOpenAIRestorer(cfg.OpenAIConfig(logger)), pc)
	}

	wc, err := cfg.WriterConfig(logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.Deps.Writer, err = slidedoc.NewWriter(wc); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Server.DatabaseURL != "" {
		ledger, err := store.OpenPostgres(cfg.Server.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Deps.Ledger = ledger
		logger.Info("Recording page transitions in PostgreSQL")
	} else {
		a.Deps.Ledger = store.NewMemory()
	}
	return a, nil
}

func (a *App) extractor(cfg config.Config, logger logrus.FieldLogger) (extract.Extractor, error) {
	switch cfg.Extractor.Backend {
	case config.BackendLLM:
		backend, err := extract.NewLLMBackend(cfg.LLMConfig(logger))
		if err != nil {
			return nil, err
		}
		return extract.NewAdapter(backend, cfg.ExtractConfig(logger)), nil
	case config.BackendDocumentAI:
		if a.DocAI == nil {
			return nil, fmt.Errorf("documentai backend needs a configured processor")
		}
		return gdocai.NewExtractor(a.DocAI), nil
	case config.BackendTesseract:
		ex, err := tesseract.New(cfg.TesseractConfig(logger))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, ex.Close)
		return ex, nil
	}
	return nil, fmt.Errorf("unknown extractor backend %q", cfg.Extractor.Backend)
}

// Close releases the clients opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
