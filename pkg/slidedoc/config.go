package slidedoc

import (
	"github.com/sirupsen/logrus"
)

// Config holds the writer options.
type Config struct {
	PageWidth    float64              // Page width in points
	PageHeight   float64              // Page height in points
	LineSpacing  float64              // Line height as a multiple of the font size
	LayerName    string               // Base name of the text layer; "(Page N)" is appended
	Fonts        map[string]FontFiles // Font face -> UTF-8 TrueType files
	Template     []byte               // Optional PDF whose page is drawn under pages without a background
	TemplatePage int                  // 1-based page of Template to use
	Debug        bool                 // Outline every placement box
	Logger       logrus.FieldLogger   // nil = standard logger
}

// FontFiles are the TrueType files of one face. Missing styles fall back
// to Regular.
type FontFiles struct {
	Regular    string `yaml:"regular"`
	Bold       string `yaml:"bold"`
	Italic     string `yaml:"italic"`
	BoldItalic string `yaml:"bold_italic"`
}

// Page dimensions of a 16:9 slide.
const (
	SlideWidth  = 720.0
	SlideHeight = 405.0
)

// DefaultConfig returns a config for 16:9 slides using core fonts only.
func DefaultConfig() Config {
	return Config{
		PageWidth:    SlideWidth,
		PageHeight:   SlideHeight,
		LineSpacing:  1.2,
		LayerName:    "Text",
		TemplatePage: 1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageWidth <= 0 || c.PageHeight <= 0 {
		c.PageWidth, c.PageHeight = d.PageWidth, d.PageHeight
	}
	if c.LineSpacing <= 0 {
		c.LineSpacing = d.LineSpacing
	}
	if c.LayerName == "" {
		c.LayerName = d.LayerName
	}
	if c.TemplatePage < 1 {
		c.TemplatePage = d.TemplatePage
	}
	return c
}

func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
