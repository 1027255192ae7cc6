package extract

import (
	"math"

	"github.com/gardar/slidelayers/pkg/hocr"
	"github.com/gardar/slidelayers/pkg/layout"
)

// slideHeightPt is the height of the 16:9 slide page font sizes refer to.
const slideHeightPt = 405

// BlocksFromHOCR turns every line of an hOCR page into a text block. Boxes
// are normalized to the page bbox and x_size becomes a point size on a
// 405pt-high slide. hOCR carries no color or alignment, so those stay absent.
func BlocksFromHOCR(page hocr.Page) []layout.TextBlock {
	w, h := page.BBox.Width(), page.BBox.Height()
	if w <= 0 || h <= 0 {
		return nil
	}

	blocks := make([]layout.TextBlock, 0, len(page.Lines))
	for _, line := range page.Lines {
		text := line.Text()
		if text == "" {
			continue
		}

		size := line.Size
		if size <= 0 {
			size = line.BBox.Height()
		}

		blocks = append(blocks, layout.TextBlock{
			Text: text,
			Box: layout.Box{
				YMin: scaled(line.BBox.Y1-page.BBox.Y1, h),
				XMin: scaled(line.BBox.X1-page.BBox.X1, w),
				YMax: scaled(line.BBox.Y2-page.BBox.Y1, h),
				XMax: scaled(line.BBox.X2-page.BBox.X1, w),
			},
			FontSizePt: int(math.Round(size / h * slideHeightPt)),
			Bold:       allWords(line.Words, func(w hocr.Word) bool { return w.Bold }),
			Italic:     allWords(line.Words, func(w hocr.Word) bool { return w.Italic }),
		})
	}
	return blocks
}

func scaled(v, extent float64) int {
	return int(math.Round(v / extent * layout.Scale))
}

func allWords(words []hocr.Word, pred func(hocr.Word) bool) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if w.Text != "" && !pred(w) {
			return false
		}
	}
	return true
}
