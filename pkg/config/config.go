// Package config loads the YAML configuration shared by slidesplit and
// slidesd. Secrets are never read from the file; they come from the
// environment, which may be seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Extractor backends.
const (
	BackendLLM        = "llm"
	BackendDocumentAI = "documentai"
	BackendTesseract  = "tesseract"
)

// Restorer backends.
const (
	RestorerOpenAI = "openai"
	RestorerNone   = "none"
)

// Config is the whole configuration file.
type Config struct {
	Extractor  Extractor  `yaml:"extractor"`
	DocumentAI DocumentAI `yaml:"documentai"`
	Restorer   Restorer   `yaml:"restorer"`
	Writer     Writer     `yaml:"writer"`
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
}

// Extractor selects and tunes the text-structure backend.
type Extractor struct {
	Backend       string        `yaml:"backend"`  // llm, documentai or tesseract
	Provider      string        `yaml:"provider"` // LLM provider
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	Prompt        string        `yaml:"prompt"`
	MaxTokens     int           `yaml:"max_tokens"`
	Temperature   *float64      `yaml:"temperature"`
	MaxRetries    int           `yaml:"max_retries"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	MinImageBytes int           `yaml:"min_image_bytes"`
	Languages     []string      `yaml:"languages"` // Tesseract languages
	APIKey        string        `yaml:"-"`
}

// DocumentAI identifies the Document AI processor used for extraction and
// PDF rasterization.
type DocumentAI struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Configured reports whether a processor is named.
func (d DocumentAI) Configured() bool {
	return d.ProjectID != "" && d.Location != "" && d.ProcessorID != ""
}

// Restorer selects and tunes the background restoration backend.
type Restorer struct {
	Backend     string        `yaml:"backend"` // openai or none
	Model       string        `yaml:"model"`
	Size        string        `yaml:"size"`
	Prompt      string        `yaml:"prompt"`
	BaseURL     string        `yaml:"base_url"`
	MaxSide     int           `yaml:"max_side"`
	TempDir     string        `yaml:"temp_dir"`
	CallTimeout time.Duration `yaml:"call_timeout"`
	AuthPolicy  string        `yaml:"auth_policy"` // pause or continue
	APIKey      string        `yaml:"-"`
}

// Writer tunes the PDF writer.
type Writer struct {
	PageWidth    float64              `yaml:"page_width"`
	PageHeight   float64              `yaml:"page_height"`
	LineSpacing  float64              `yaml:"line_spacing"`
	LayerName    string               `yaml:"layer_name"`
	Fonts        map[string]FontFiles `yaml:"fonts"`
	Template     string               `yaml:"template"`
	TemplatePage int                  `yaml:"template_page"`
	Debug        bool                 `yaml:"debug"`
}

// FontFiles are the TrueType files of one face.
type FontFiles struct {
	Regular    string `yaml:"regular"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"bold_italic"`
}

// Server configures slidesd.
type Server struct {
	Addr        string `yaml:"addr"`
	Mode        string `yaml:"mode"` // gin mode: debug, release or test
	MaxUploadMB int    `yaml:"max_upload_mb"`
	DatabaseURL string `yaml:"-"`
}

// Log configures the root logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Extractor: Extractor{
			Backend:       BackendLLM,
			Provider:      "openai",
			Model:         "gpt-4o",
			MaxRetries:    2,
			RetryInterval: 500 * time.Millisecond,
			MinImageBytes: 100,
		},
		DocumentAI: DocumentAI{Location: "us"},
		Restorer: Restorer{
			Backend:     RestorerOpenAI,
			CallTimeout: 3 * time.Minute,
			AuthPolicy:  "pause",
		},
		Writer: Writer{
			PageWidth:    720,
			PageHeight:   405,
			LineSpacing:  1.2,
			LayerName:    "Text",
			TemplatePage: 1,
		},
		Server: Server{
			Addr:        ":8080",
			Mode:        "release",
			MaxUploadMB: 64,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults, applies the
// environment and validates the result. An empty path uses the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadEnv loads .env style files into the environment. Missing files
// are ignored; with no arguments ".env" is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv fills secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	switch c.Extractor.Provider {
	case "openai":
		c.Extractor.APIKey = getenv("OPENAI_API_KEY")
		if c.Extractor.BaseURL == "" {
			c.Extractor.BaseURL = getenv("OPENAI_BASE_URL")
		}
	case "anthropic":
		c.Extractor.APIKey = getenv("ANTHROPIC_API_KEY")
	case "mistral":
		c.Extractor.APIKey = getenv("MISTRAL_API_KEY")
	case "ollama":
		if c.Extractor.BaseURL == "" {
			c.Extractor.BaseURL = getenv("OLLAMA_HOST")
		}
	}

	c.Restorer.APIKey = getenv("OPENAI_API_KEY")
	if c.Restorer.BaseURL == "" {
		c.Restorer.BaseURL = getenv("OPENAI_BASE_URL")
	}

	if c.DocumentAI.CredentialsFile == "" {
		c.DocumentAI.CredentialsFile = getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	c.Server.DatabaseURL = getenv("DATABASE_URL")
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}
