// Package gdocai integrates Google Document AI as a text-structure backend.
//
// Document AI is asked for style information (ComputeStyleInfo), so every
// paragraph it finds carries the font size, color, weight and slant of its
// first token. Paragraphs become layout.TextBlocks in the same 0-1000 space
// the LLM backends report.
//
// Main types and functions:
//
// - Client: a Document AI processor bound to one project, location and processor
// - Extractor: an extract.Extractor on top of a Client
// - BlocksFromPage: converts one Document AI page to text blocks
// - PageImages: rasterizes a PDF by letting Document AI return its page images
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - An OCR processor (premium features are needed for style info)
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS
package gdocai

import (
	"github.com/sirupsen/logrus"
)

// Config identifies the Document AI processor to call.
type Config struct {
	ProjectID       string             // Google Cloud project
	Location        string             // Processor region, e.g. "us" or "eu"
	ProcessorID     string             // OCR processor id
	CredentialsFile string             // Service account JSON; empty = GOOGLE_APPLICATION_CREDENTIALS
	MinImageBytes   int                // Smaller page images are rejected
	Logger          logrus.FieldLogger // nil = standard logger
}

// getLogger returns logger, defaulting to the logrus standard logger if nil.
func getLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}
