package gdocai

import (
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gardar/slidelayers/pkg/layout"
)

// slideHeightPt is the height of the 16:9 slide page font sizes refer to.
const slideHeightPt = 405

// BlocksFromPage converts the paragraphs of one Document AI page into text
// blocks. Style comes from the first token of each paragraph; Document AI
// reports no alignment, so it stays absent.
func BlocksFromPage(page *documentaipb.Document_Page, fullText string) []layout.TextBlock {
	if page == nil {
		return nil
	}

	width := float64(page.GetDimension().GetWidth())
	height := float64(page.GetDimension().GetHeight())

	blocks := make([]layout.TextBlock, 0, len(page.GetParagraphs()))
	for _, para := range page.GetParagraphs() {
		text := strings.TrimRight(textFromLayout(para.GetLayout(), fullText), "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		block := layout.TextBlock{
			Text: text,
			Box:  boxFromPoly(para.GetLayout().GetBoundingPoly(), width, height),
		}
		if tokens := tokensWithin(para.GetLayout(), page.GetTokens()); len(tokens) > 0 {
			applyStyle(&block, tokens[0].GetStyleInfo(), height)
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// boxFromPoly prefers normalized vertices and falls back to pixel vertices
// scaled by the page dimension.
func boxFromPoly(poly *documentaipb.BoundingPoly, width, height float64) layout.Box {
	var xs, ys []float64
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 {
		for _, v := range nv {
			xs = append(xs, float64(v.GetX()))
			ys = append(ys, float64(v.GetY()))
		}
	} else if width > 0 && height > 0 {
		for _, v := range poly.GetVertices() {
			xs = append(xs, float64(v.GetX())/width)
			ys = append(ys, float64(v.GetY())/height)
		}
	}
	if len(xs) == 0 {
		return layout.FullPage
	}

	return layout.Box{
		YMin: normalized(minOf(ys)),
		XMin: normalized(minOf(xs)),
		YMax: normalized(maxOf(ys)),
		XMax: normalized(maxOf(xs)),
	}.OrFullPage()
}

func applyStyle(block *layout.TextBlock, style *documentaipb.Document_Page_Token_StyleInfo, pageHeight float64) {
	if style == nil {
		return
	}

	switch {
	case style.GetPixelFontSize() > 0 && pageHeight > 0:
		block.FontSizePt = int(math.Round(style.GetPixelFontSize() / pageHeight * slideHeightPt))
	case style.GetFontSize() > 0:
		block.FontSizePt = int(style.GetFontSize())
	}

	if c := style.GetTextColor(); c != nil {
		block.ColorHex = strings.TrimPrefix(colorful.Color{
			R: float64(c.GetRed()),
			G: float64(c.GetGreen()),
			B: float64(c.GetBlue()),
		}.Clamped().Hex(), "#")
	}

	block.Bold = style.GetBold() || style.GetFontWeight() >= 600
	block.Italic = style.GetItalic()
	block.FontClass = fontClass(style)
}

// fontClass maps Document AI's free-form font type to a font class.
func fontClass(style *documentaipb.Document_Page_Token_StyleInfo) layout.FontClass {
	if style.GetHandwritten() {
		return layout.Handwriting
	}
	ft := strings.ToLower(style.GetFontType())
	switch {
	case ft == "":
		return ""
	case strings.Contains(ft, "mono") || strings.Contains(ft, "courier"):
		return layout.Monospace
	case strings.Contains(ft, "sans"):
		return layout.SansSerif
	case strings.Contains(ft, "serif") || strings.Contains(ft, "times"):
		return layout.Serif
	case strings.Contains(ft, "script") || strings.Contains(ft, "hand"):
		return layout.Handwriting
	}
	return layout.SansSerif
}

func normalized(v float64) int {
	return int(math.Round(v * layout.Scale))
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}
