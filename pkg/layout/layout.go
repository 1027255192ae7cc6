// Package layout converts text blocks reported in a normalized 0-1000
// coordinate space into proportional placements a document writer can use.
//
// Mapping is a pure function of one block:
//
// - Coordinates are scaled to percentages of the page (value / 10)
// - The font face is chosen by script first and style class second, so CJK
// text never lands in a Western-only face
// - Colors lose their leading '#', alignment "justify" becomes "left",
// and missing or implausible font sizes become 12pt
package layout

import (
	"strings"
	"unicode"
)

// Defaults applied to absent attributes.
const (
	DefaultFontSizePt = 12
	MinFontSizePt     = 6
	DefaultColorHex   = "000000"
)

// Font faces chosen by ResolveFontFace.
const (
	FaceCJKMing   = "PMingLiU"
	FaceCJKGothic = "Microsoft JhengHei"
	FaceSans      = "Arial"
	FaceSerif     = "Times New Roman"
	FaceMono      = "Courier New"
	FaceScript    = "Comic Sans MS"
)

// Map converts a text block into its placement record.
func Map(block TextBlock) Placement {
	box := block.Box.OrFullPage()
	return Placement{
		Text:       block.Text,
		XPct:       percent(box.XMin),
		YPct:       percent(box.YMin),
		WPct:       percent(box.XMax - box.XMin),
		HPct:       percent(box.YMax - box.YMin),
		FontFace:   ResolveFontFace(block.Text, block.FontClass),
		FontSizePt: fontSize(block.FontSizePt),
		ColorHex:   NormalizeColor(block.ColorHex),
		Alignment:  NormalizeAlignment(block.Alignment),
		Bold:       block.Bold,
		Italic:     block.Italic,
	}
}

// MapAll maps every block of a page, preserving order.
func MapAll(blocks []TextBlock) []Placement {
	placements := make([]Placement, 0, len(blocks))
	for _, b := range blocks {
		placements = append(placements, Map(b))
	}
	return placements
}

func percent(v int) float64 {
	return float64(v*100) / Scale
}

func fontSize(pt int) int {
	if pt < MinFontSizePt {
		return DefaultFontSizePt
	}
	return pt
}

// NormalizeColor strips a leading '#' and defaults an empty color to black.
func NormalizeColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if hex == "" {
		return DefaultColorHex
	}
	return hex
}

// NormalizeAlignment maps justify and unknown values to left.
func NormalizeAlignment(a Alignment) Alignment {
	switch a {
	case AlignCenter, AlignRight:
		return a
	}
	return AlignLeft
}

// ResolveFontFace picks a face that can render text in the given class.
func ResolveFontFace(text string, class FontClass) string {
	if ContainsCJK(text) {
		if class == Serif {
			return FaceCJKMing
		}
		return FaceCJKGothic
	}
	switch class {
	case Serif:
		return FaceSerif
	case Monospace:
		return FaceMono
	case Handwriting:
		return FaceScript
	}
	return FaceSans
}

// ContainsCJK reports whether text has any Han, kana or Hangul characters.
func ContainsCJK(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}
