package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// VisionModel is the part of llms.Model the LLM backend calls.
type VisionModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LLMConfig selects and tunes a vision LLM.
type LLMConfig struct {
	Provider    string   // openai, anthropic, ollama or mistral
	Model       string   // Provider model name
	APIKey      string   // Token for openai, anthropic and mistral
	BaseURL     string   // OpenAI-compatible endpoint or Ollama host
	Prompt      string   // Overrides DefaultPrompt when set
	MaxTokens   int      // 0 = provider default
	Temperature *float64 // nil = provider default
	Logger      logrus.FieldLogger
}

// LLMBackend asks a vision LLM for the page's text blocks as JSON.
type LLMBackend struct {
	provider    string
	model       string
	llm         VisionModel
	prompt      string
	maxTokens   int
	temperature *float64
	log         logrus.FieldLogger
}

// NewLLMBackend creates the langchaingo client for cfg.Provider.
func NewLLMBackend(cfg LLMConfig) (*LLMBackend, error) {
	var model llms.Model
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model), openai.WithToken(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case "anthropic":
		model, err = anthropic.New(anthropic.WithModel(cfg.Model), anthropic.WithToken(cfg.APIKey))
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	case "mistral":
		model, err = mistral.New(mistral.WithModel(cfg.Model), mistral.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("unsupported vision LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return NewLLMBackendWithModel(cfg, model), nil
}

// NewLLMBackendWithModel wraps an existing model, typically a test double.
func NewLLMBackendWithModel(cfg LLMConfig, model VisionModel) *LLMBackend {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return &LLMBackend{
		provider:    strings.ToLower(cfg.Provider),
		model:       cfg.Model,
		llm:         model,
		prompt:      prompt,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		log:         getLogger(cfg.Logger),
	}
}

// Analyze sends the page image and the extraction prompt in one message.
func (b *LLMBackend) Analyze(ctx context.Context, image []byte, mimeType string) ([]byte, error) {
	logger := b.log.WithFields(logrus.Fields{
		"provider": b.provider,
		"model":    b.model,
	})

	var imagePart llms.ContentPart
	if b.provider == "openai" || b.provider == "mistral" {
		imagePart = llms.ImageURLPart("data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image))
	} else {
		imagePart = llms.BinaryPart(mimeType, image)
	}

	var callOpts []llms.CallOption
	if b.provider != "anthropic" {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	if b.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(b.maxTokens))
	}
	if b.temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*b.temperature))
	}

	logger.Debug("Sending page to vision model")
	completion, err := b.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{imagePart, llms.TextPart(b.prompt)},
		},
	}, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to get response from vision model: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, nil
	}

	content := completion.Choices[0].Content
	logger.WithField("content_length", len(content)).Debug("Received vision model response")
	return []byte(content), nil
}
