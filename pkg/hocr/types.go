package hocr

import "strings"

// Document is a parsed hOCR file
type Document struct {
	Title    string            // Document title
	Language string            // Document language
	Metadata map[string]string // ocr-system and friends from <meta>
	Pages    []Page            // Pages in document order
}

// Page corresponds to an element with class 'ocr_page'
type Page struct {
	ID     string      // Unique identifier
	Number int         // 1-based position in the document
	Image  string      // Source image name, if recorded
	BBox   BoundingBox // Page coordinates in pixels
	Lines  []Line      // Every line-like element on the page
}

// Line corresponds to 'ocr_line' and the other line classes
type Line struct {
	ID       string      // Unique identifier
	Class    string      // ocr_line, ocr_header, ocr_caption or ocr_textfloat
	BBox     BoundingBox // Line coordinates
	Size     float64     // x_size property, the font size in pixels
	Baseline string      // Baseline information
	Words    []Word      // Words in this line
}

// Text joins the line's words with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Word corresponds to 'ocrx_word'
type Word struct {
	ID         string      // Unique identifier
	Text       string      // The recognized text
	BBox       BoundingBox // Word coordinates
	Confidence float64     // x_wconf, 0-100
	Bold       bool        // Wrapped in <strong>
	Italic     bool        // Wrapped in <em>
}

// BoundingBox is an hOCR 'bbox' rectangle
type BoundingBox struct {
	X1 float64 // Left
	Y1 float64 // Top
	X2 float64 // Right
	Y2 float64 // Bottom
}

// Width of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }
