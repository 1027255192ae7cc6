package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/gdocai"
	"github.com/gardar/slidelayers/pkg/restore"
	"github.com/gardar/slidelayers/pkg/slidedoc"
	"github.com/gardar/slidelayers/pkg/tesseract"
)

// Apply configures logger's level and format.
func (l Log) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// ExtractConfig returns the adapter settings.
func (c Config) ExtractConfig(logger logrus.FieldLogger) extract.Config {
	return extract.Config{
		MinImageBytes: c.Extractor.MinImageBytes,
		MaxRetries:    c.Extractor.MaxRetries,
		RetryInterval: c.Extractor.RetryInterval,
		Logger:        logger,
	}
}

// LLMConfig returns the vision LLM backend settings.
func (c Config) LLMConfig(logger logrus.FieldLogger) extract.LLMConfig {
	return extract.LLMConfig{
		Provider:    c.Extractor.Provider,
		Model:       c.Extractor.Model,
		APIKey:      c.Extractor.APIKey,
		BaseURL:     c.Extractor.BaseURL,
		Prompt:      c.Extractor.Prompt,
		MaxTokens:   c.Extractor.MaxTokens,
		Temperature: c.Extractor.Temperature,
		Logger:      logger,
	}
}

// TesseractConfig returns the Tesseract backend settings.
func (c Config) TesseractConfig(logger logrus.FieldLogger) tesseract.Config {
	return tesseract.Config{
		Languages:     c.Extractor.Languages,
		MinImageBytes: c.Extractor.MinImageBytes,
		Logger:        logger,
	}
}

// GDocAIConfig returns the Document AI processor settings.
func (c Config) GDocAIConfig(logger logrus.FieldLogger) gdocai.Config {
	return gdocai.Config{
		ProjectID:       c.DocumentAI.ProjectID,
		Location:        c.DocumentAI.Location,
		ProcessorID:     c.DocumentAI.ProcessorID,
		CredentialsFile: c.DocumentAI.CredentialsFile,
		MinImageBytes:   c.Extractor.MinImageBytes,
		Logger:          logger,
	}
}

// PipelineConfig returns the restoration pipeline settings.
func (c Config) PipelineConfig(logger logrus.FieldLogger) (restore.Config, error) {
	policy, err := restore.ParseAuthPolicy(c.Restorer.AuthPolicy)
	if err != nil {
		return restore.Config{}, err
	}
	return restore.Config{
		Policy:      policy,
		CallTimeout: c.Restorer.CallTimeout,
		Logger:      logger,
	}, nil
}

// OpenAIConfig returns the OpenAI restorer settings.
func (c Config) OpenAIConfig(logger logrus.FieldLogger) restore.OpenAIConfig {
	return restore.OpenAIConfig{
		APIKey:  c.Restorer.APIKey,
		BaseURL: c.Restorer.BaseURL,
		Model:   c.Restorer.Model,
		Size:    c.Restorer.Size,
		Prompt:  c.Restorer.Prompt,
		MaxSide: c.Restorer.MaxSide,
		TempDir: c.Restorer.TempDir,
		Logger:  logger,
	}
}

// WriterConfig returns the PDF writer settings, reading the template
// file if one is configured.
func (c Config) WriterConfig(logger logrus.FieldLogger) (slidedoc.Config, error) {
	cfg := slidedoc.Config{
		PageWidth:    c.Writer.PageWidth,
		PageHeight:   c.Writer.PageHeight,
		LineSpacing:  c.Writer.LineSpacing,
		LayerName:    c.Writer.LayerName,
		TemplatePage: c.Writer.TemplatePage,
		Debug:        c.Writer.Debug,
		Logger:       logger,
	}
	if len(c.Writer.Fonts) > 0 {
		cfg.Fonts = make(map[string]slidedoc.FontFiles, len(c.Writer.Fonts))
		for face, ff := range c.Writer.Fonts {
			cfg.Fonts[face] = slidedoc.FontFiles(ff)
		}
	}
	if c.Writer.Template != "" {
		data, err := os.ReadFile(c.Writer.Template)
		if err != nil {
			return cfg, fmt.Errorf("failed to read template: %w", err)
		}
		cfg.Template = data
	}
	return cfg, nil
}
