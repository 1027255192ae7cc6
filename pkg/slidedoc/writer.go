package slidedoc

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/compose"
	"github.com/gardar/slidelayers/pkg/layout"
	"github.com/gardar/slidelayers/pkg/raster"
)

// Writer renders composed slides to PDF.
type Writer struct {
	cfg   Config
	fonts map[string]fontData
	log   logrus.FieldLogger
}

// NewWriter loads the configured fonts and returns a Writer.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	fonts, err := loadFonts(cfg.Fonts)
	if err != nil {
		return nil, err
	}
	w := &Writer{cfg: cfg, fonts: fonts, log: getLogger(cfg.Logger)}
	for _, face := range []string{layout.FaceCJKMing, layout.FaceCJKGothic} {
		if _, ok := fonts[face]; !ok {
			w.log.WithField("face", face).Warn("No TrueType font configured; pages with CJK text will fail to render")
		}
	}
	return w, nil
}

// Pages returns the pairs that belong in an artifact. The picture layer
// only holds pages that have a background.
func Pages(pairs []compose.Pair, kind Artifact) []compose.Pair {
	if kind != PictureLayer {
		return pairs
	}
	var out []compose.Pair
	for _, p := range pairs {
		if p.HasBackground() {
			out = append(out, p)
		}
	}
	return out
}

// Write renders pairs as the given artifact to out.
func (w *Writer) Write(out io.Writer, pairs []compose.Pair, kind Artifact) error {
	pages := Pages(pairs, kind)
	if len(pages) == 0 {
		return ErrNoPages
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCellMargin(0)

	fonts := newFontSet(pdf, w.fonts, w.log)
	tpl := &templateState{}
	size := fpdf.SizeType{Wd: w.cfg.PageWidth, Ht: w.cfg.PageHeight}

	for _, pair := range pages {
		pdf.AddPageFormat("P", size)

		if kind != TextLayer {
			switch {
			case pair.HasBackground():
				if err := w.drawBackground(pdf, pair); err != nil {
					return err
				}
			case kind == Final && len(w.cfg.Template) > 0:
				if err := w.drawTemplate(pdf, tpl); err != nil {
					return err
				}
			}
		}
		if kind != PictureLayer {
			if err := w.drawTextLayer(pdf, fonts, pair); err != nil {
				return fmt.Errorf("failed to draw text of page %d: %w", pair.Index, err)
			}
		}

		if err := pdf.Error(); err != nil {
			return fmt.Errorf("failed to render page %d: %w", pair.Index, err)
		}
	}

	if fonts.replaced > 0 {
		w.log.WithField("runes", fonts.replaced).
			Warn("Some characters could not be encoded in core fonts and were replaced; configure a TrueType font for them")
	}

	if err := pdf.Output(out); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	w.log.WithFields(logrus.Fields{"artifact": kind.String(), "pages": len(pages)}).Debug("Wrote document")
	return nil
}

// Bytes renders pairs as the given artifact and returns the PDF.
func (w *Writer) Bytes(pairs []compose.Pair, kind Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Write(&buf, pairs, kind); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawBackground places the page image full-bleed on its own layer.
func (w *Writer) drawBackground(pdf *fpdf.Fpdf, pair compose.Pair) error {
	img, imageType, err := raster.Embeddable(pair.Background)
	if err != nil {
		return fmt.Errorf("failed to prepare background of page %d: %w", pair.Index, err)
	}

	name := fmt.Sprintf("bg%d", pair.Index)
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))

	layer := pdf.AddLayer(fmt.Sprintf("Background (Page %d)", pair.Index), true)
	pdf.BeginLayer(layer)
	pdf.ImageOptions(name, 0, 0, w.cfg.PageWidth, w.cfg.PageHeight, false, opts, 0, "")
	pdf.EndLayer()
	return nil
}

// drawTextLayer draws every placement of a page onto one layer.
func (w *Writer) drawTextLayer(pdf *fpdf.Fpdf, fonts *fontSet, pair compose.Pair) error {
	if len(pair.Placements) == 0 {
		return nil
	}

	layer := pdf.AddLayer(fmt.Sprintf("%s (Page %d)", w.cfg.LayerName, pair.Index), true)
	pdf.BeginLayer(layer)
	defer pdf.EndLayer()
	for _, p := range pair.Placements {
		if err := w.drawPlacement(pdf, fonts, p); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) drawPlacement(pdf *fpdf.Fpdf, fonts *fontSet, p layout.Placement) error {
	x := p.XPct / 100 * w.cfg.PageWidth
	y := p.YPct / 100 * w.cfg.PageHeight
	width := p.WPct / 100 * w.cfg.PageWidth
	height := p.HPct / 100 * w.cfg.PageHeight

	size := float64(p.FontSizePt)
	text, err := fonts.apply(p.FontFace, p.Bold, p.Italic, size, p.Text)
	if err != nil {
		return err
	}

	r, g, b := rgb(p.ColorHex)
	pdf.SetTextColor(int(r), int(g), int(b))
	pdf.SetXY(x, y)
	pdf.MultiCell(width, size*w.cfg.LineSpacing, text, "", alignStr(p.Alignment), false)

	if w.cfg.Debug {
		pdf.SetDrawColor(255, 0, 0)
		pdf.Rect(x, y, width, height, "D")
	}
	return nil
}

// rgb parses a hex color without '#'. Invalid colors are black.
func rgb(hex string) (uint8, uint8, uint8) {
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return 0, 0, 0
	}
	return c.RGB255()
}

func alignStr(a layout.Alignment) string {
	switch a {
	case layout.AlignCenter:
		return "C"
	case layout.AlignRight:
		return "R"
	}
	return "L"
}
