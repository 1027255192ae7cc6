package slidedoc

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

// templateState holds the imported template page of one document.
type templateState struct {
	importer *gofpdi.Importer
	id       int
}

// drawTemplate draws the configured template page full-bleed. The page is
// imported once per document and reused.
func (w *Writer) drawTemplate(pdf *fpdf.Fpdf, state *templateState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to import template page %d: %v", w.cfg.TemplatePage, r)
		}
	}()

	if state.importer == nil {
		state.importer = gofpdi.NewImporter()
		rs := io.ReadSeeker(bytes.NewReader(w.cfg.Template))
		state.id = state.importer.ImportPageFromStream(pdf, &rs, w.cfg.TemplatePage, "/MediaBox")
	}
	state.importer.UseImportedTemplate(pdf, state.id, 0, 0, w.cfg.PageWidth, w.cfg.PageHeight)
	return nil
}
