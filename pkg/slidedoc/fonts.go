package slidedoc

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/slidelayers/pkg/layout"
)

// fontData is the loaded TrueType data of one face, keyed by fpdf style.
type fontData map[string][]byte

// loadFonts reads every configured font file.
func loadFonts(files map[string]FontFiles) (map[string]fontData, error) {
	loaded := make(map[string]fontData, len(files))
	for face, ff := range files {
		if ff.Regular == "" {
			return nil, fmt.Errorf("font %q has no regular file", face)
		}
		data := fontData{}
		for style, path := range map[string]string{
			"":   ff.Regular,
			"B":  ff.Bold,
			"I":  ff.Italic,
			"BI": ff.BoldItalic,
		} {
			if path == "" {
				path = ff.Regular
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read font %q: %w", face, err)
			}
			data[style] = b
		}
		loaded[face] = data
	}
	return loaded, nil
}

// fontSet selects fonts on one document, registering TrueType faces the
// first time they are used.
type fontSet struct {
	pdf        *fpdf.Fpdf
	faces      map[string]fontData
	registered map[string]bool
	replaced   int
	log        logrus.FieldLogger
}

func newFontSet(pdf *fpdf.Fpdf, faces map[string]fontData, log logrus.FieldLogger) *fontSet {
	return &fontSet{pdf: pdf, faces: faces, registered: map[string]bool{}, log: log}
}

// apply sets the font for a placement and returns its text in the
// encoding the selected font expects. CJK faces have no core-font
// counterpart and must be configured as TrueType fonts.
func (f *fontSet) apply(face string, bold, italic bool, size float64, text string) (string, error) {
	style := fontStyle(bold, italic)

	if data, ok := f.faces[face]; ok {
		family := familyName(face)
		key := family + "/" + style
		if !f.registered[key] {
			f.pdf.AddUTF8FontFromBytes(family, style, data[style])
			f.registered[key] = true
		}
		f.pdf.SetFont(family, style, size)
		return text, nil
	}
	if isCJKFace(face) {
		return "", fmt.Errorf("%w: %q is needed for %q", ErrMissingFont, face, text)
	}

	f.pdf.SetFont(coreFamily(face), style, size)
	latin1, n := toLatin1(text)
	if n > 0 {
		f.replaced += n
		f.log.WithFields(logrus.Fields{"face": face, "runes": n}).
			Debug("Characters not encodable in core font")
	}
	return latin1, nil
}

func isCJKFace(face string) bool {
	return face == layout.FaceCJKMing || face == layout.FaceCJKGothic
}

func fontStyle(bold, italic bool) string {
	style := ""
	if bold {
		style += "B"
	}
	if italic {
		style += "I"
	}
	return style
}

func familyName(face string) string {
	return strings.ToLower(strings.Join(strings.Fields(face), ""))
}

// coreFamily maps a face to the built-in font of the same class.
func coreFamily(face string) string {
	switch face {
	case layout.FaceSerif, layout.FaceCJKMing:
		return "Times"
	case layout.FaceMono:
		return "Courier"
	}
	return "Helvetica"
}

// toLatin1 transcodes s to ISO-8859-1, replacing runes outside it with
// '?'. It returns the number of replaced runes.
func toLatin1(s string) (string, int) {
	var b strings.Builder
	replaced := 0
	for _, r := range s {
		c, ok := charmap.ISO8859_1.EncodeRune(r)
		if !ok {
			c = '?'
			replaced++
		}
		b.WriteByte(c)
	}
	return b.String(), replaced
}
