package layout

// Scale is the side length of the normalized coordinate space used by
// text-structure services.
const Scale = 1000

// FontClass is the broad family a text block was typeset in.
type FontClass string

// Font classes reported by text-structure services.
const (
	SansSerif   FontClass = "sans-serif"
	Serif       FontClass = "serif"
	Monospace   FontClass = "monospace"
	Handwriting FontClass = "handwriting"
)

// Valid reports whether c is a known font class.
func (c FontClass) Valid() bool {
	switch c {
	case SansSerif, Serif, Monospace, Handwriting:
		return true
	}
	return false
}

// Alignment is the horizontal alignment of text within its box.
type Alignment string

// Alignments. Justify is accepted on input but never emitted.
const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// Valid reports whether a is a known alignment.
func (a Alignment) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// Box is a bounding box in the 0-1000 normalized space, in the
// [ymin, xmin, ymax, xmax] order used by vision models.
type Box struct {
	YMin int
	XMin int
	YMax int
	XMax int
}

// FullPage covers the whole page. Malformed boxes collapse to it.
var FullPage = Box{YMin: 0, XMin: 0, YMax: Scale, XMax: Scale}

// BoxFromSlice builds a box from a [ymin, xmin, ymax, xmax] slice.
// Anything that is not a valid box yields FullPage.
func BoxFromSlice(v []int) Box {
	if len(v) != 4 {
		return FullPage
	}
	return Box{YMin: v[0], XMin: v[1], YMax: v[2], XMax: v[3]}.OrFullPage()
}

// Valid reports whether 0 <= min < max <= 1000 holds on both axes.
func (b Box) Valid() bool {
	return b.YMin >= 0 && b.YMin < b.YMax && b.YMax <= Scale &&
		b.XMin >= 0 && b.XMin < b.XMax && b.XMax <= Scale
}

// OrFullPage returns b if it is valid and FullPage otherwise.
func (b Box) OrFullPage() Box {
	if b.Valid() {
		return b
	}
	return FullPage
}

// TextBlock is one recognized text element with position and style.
// Zero values mean "absent" and are defaulted by Map.
type TextBlock struct {
	Text       string
	Box        Box
	FontSizePt int
	ColorHex   string
	FontClass  FontClass
	Alignment  Alignment
	Bold       bool
	Italic     bool
}

// Placement is a TextBlock translated to percentage coordinates of the page
// with fully resolved styling. Text is top-aligned in its box with no
// padding and no shrink-to-fit.
type Placement struct {
	Text       string
	XPct       float64
	YPct       float64
	WPct       float64
	HPct       float64
	FontFace   string
	FontSizePt int
	ColorHex   string
	Alignment  Alignment
	Bold       bool
	Italic     bool
}
