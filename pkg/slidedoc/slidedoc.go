// Package slidedoc writes composed slides to layered PDF documents.
//
// Every page is a 16:9 slide. The restored background is drawn full-bleed
// first, then the text placements on an optional content layer, so readers
// can toggle the editable text on and off.
//
// Three artifacts can be produced from the same pairs:
//
// - TextLayer: text only, no backgrounds
// - PictureLayer: backgrounds only, for pages that have one
// - Final: backgrounds with text on top
//
// Main types and functions:
//
// - Writer: renders compose.Pairs to one artifact
// - FileName: the conventional output name for an artifact
// - DetectLayers: lists the optional content layers of a PDF
package slidedoc

import (
	"errors"
	"fmt"
	"strings"
)

// Artifact selects which parts of the slides are written.
type Artifact int

// Artifacts.
const (
	TextLayer Artifact = iota
	PictureLayer
	Final
)

var (
	// ErrNoPages is returned when an artifact would contain no pages.
	ErrNoPages = errors.New("artifact has no pages")
	// ErrMissingFont is returned when text needs a face that has no
	// TrueType font configured and no core-font substitute.
	ErrMissingFont = errors.New("no font configured for face")
)

func (a Artifact) String() string {
	switch a {
	case TextLayer:
		return "text"
	case PictureLayer:
		return "picture"
	case Final:
		return "final"
	}
	return fmt.Sprintf("Artifact(%d)", int(a))
}

// Suffix is appended to the base name of the source document.
func (a Artifact) Suffix() string {
	switch a {
	case TextLayer:
		return "_Text_layer"
	case PictureLayer:
		return "_Picture_layer"
	}
	return "_Final"
}

// ParseArtifact accepts the names returned by String.
func ParseArtifact(s string) (Artifact, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "text_layer", "text-layer":
		return TextLayer, nil
	case "picture", "picture_layer", "picture-layer":
		return PictureLayer, nil
	case "final", "":
		return Final, nil
	}
	return Final, fmt.Errorf("unknown artifact %q", s)
}

// FileName returns "<base><suffix>.pdf". A trailing extension on base is
// dropped first.
func FileName(base string, kind Artifact) string {
	if i := strings.LastIndexByte(base, '.'); i > 0 && !strings.ContainsAny(base[i:], `/\`) {
		base = base[:i]
	}
	if base == "" {
		base = "slides"
	}
	return base + kind.Suffix() + ".pdf"
}
