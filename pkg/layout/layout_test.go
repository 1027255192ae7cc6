package layout

import "testing"

const pctTolerance = 1e-9

func TestMapCoordinatesStayOnPage(t *testing.T) {
	steps := []int{0, 1, 7, 250, 499, 500, 999, 1000}
	for _, yMin := range steps {
		for _, yMax := range steps {
			for _, xMin := range steps {
				for _, xMax := range steps {
					box := Box{YMin: yMin, XMin: xMin, YMax: yMax, XMax: xMax}
					if !box.Valid() {
						continue
					}
					p := Map(TextBlock{Text: "x", Box: box})
					if p.XPct+p.WPct > 100+pctTolerance || p.YPct+p.HPct > 100+pctTolerance {
						t.Errorf("box %+v overflows page: %+v", box, p)
					}
					if p.WPct <= 0 || p.HPct <= 0 {
						t.Errorf("box %+v has empty extent: %+v", box, p)
					}
					if p.XPct < 0 || p.YPct < 0 {
						t.Errorf("box %+v has negative origin: %+v", box, p)
					}
				}
			}
		}
	}
}

func TestMapMalformedBoxUsesFullPage(t *testing.T) {
	tests := []struct {
		name string
		box  Box
	}{
		{"zero", Box{}},
		{"inverted y", Box{YMin: 500, XMin: 0, YMax: 100, XMax: 1000}},
		{"inverted x", Box{YMin: 0, XMin: 900, YMax: 100, XMax: 100}},
		{"out of range", Box{YMin: 0, XMin: 0, YMax: 1200, XMax: 1000}},
		{"negative", Box{YMin: -5, XMin: 0, YMax: 100, XMax: 100}},
	}

	for _, tt := range tests {
		p := Map(TextBlock{Text: "x", Box: tt.box})
		if p.XPct != 0 || p.YPct != 0 || p.WPct != 100 || p.HPct != 100 {
			t.Errorf("%s: got %+v, want full page", tt.name, p)
		}
	}
}

func TestBoxFromSlice(t *testing.T) {
	tests := []struct {
		in   []int
		want Box
	}{
		{[]int{100, 50, 200, 950}, Box{YMin: 100, XMin: 50, YMax: 200, XMax: 950}},
		{[]int{100, 50, 200}, FullPage},
		{nil, FullPage},
		{[]int{100, 50, 200, 950, 3}, FullPage},
		{[]int{300, 50, 200, 950}, FullPage},
	}

	for _, tt := range tests {
		if got := BoxFromSlice(tt.in); got != tt.want {
			t.Errorf("BoxFromSlice(%v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestMapFontSizeDefaults(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 12},
		{4, 12},
		{5, 12},
		{6, 6},
		{18, 18},
		{-3, 12},
	}

	for _, tt := range tests {
		p := Map(TextBlock{Text: "x", Box: FullPage, FontSizePt: tt.in})
		if p.FontSizePt != tt.want {
			t.Errorf("font size %d mapped to %d, want %d", tt.in, p.FontSizePt, tt.want)
		}
	}
}

func TestResolveFontFace(t *testing.T) {
	tests := []struct {
		text  string
		class FontClass
		want  string
	}{
		{"你好", Serif, FaceCJKMing},
		{"你好", SansSerif, FaceCJKGothic},
		{"你好", "", FaceCJKGothic},
		{"你好", Monospace, FaceCJKGothic},
		{"方案 A", Handwriting, FaceCJKGothic},
		{"こんにちは", Serif, FaceCJKMing},
		{"안녕하세요", SansSerif, FaceCJKGothic},
		{"Hello", Serif, FaceSerif},
		{"Hello", SansSerif, FaceSans},
		{"Hello", Monospace, FaceMono},
		{"Hello", Handwriting, FaceScript},
		{"Hello", "", FaceSans},
		{"Ünïcødé 123", "", FaceSans},
	}

	for _, tt := range tests {
		if got := ResolveFontFace(tt.text, tt.class); got != tt.want {
			t.Errorf("ResolveFontFace(%q, %q) = %q, want %q", tt.text, tt.class, got, tt.want)
		}
	}
}

func TestNormalizeAlignment(t *testing.T) {
	tests := []struct {
		in   Alignment
		want Alignment
	}{
		{AlignJustify, AlignLeft},
		{AlignLeft, AlignLeft},
		{AlignCenter, AlignCenter},
		{AlignRight, AlignRight},
		{"", AlignLeft},
		{"distributed", AlignLeft},
	}

	for _, tt := range tests {
		if got := NormalizeAlignment(tt.in); got != tt.want {
			t.Errorf("NormalizeAlignment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FF0000", "FF0000"},
		{"00AACC", "00AACC"},
		{"", "000000"},
		{"#", "000000"},
	}

	for _, tt := range tests {
		if got := NormalizeColor(tt.in); got != tt.want {
			t.Errorf("NormalizeColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapTitleBlock(t *testing.T) {
	block := TextBlock{
		Text:       "Title",
		Box:        BoxFromSlice([]int{100, 50, 200, 950}),
		FontSizePt: 24,
	}
	want := Placement{
		Text:       "Title",
		XPct:       5,
		YPct:       10,
		WPct:       90,
		HPct:       10,
		FontFace:   FaceSans,
		FontSizePt: 24,
		ColorHex:   "000000",
		Alignment:  AlignLeft,
	}

	if got := Map(block); got != want {
		t.Errorf("Map(title) = %+v, want %+v", got, want)
	}
}

func TestMapCarriesStyleFlags(t *testing.T) {
	p := Map(TextBlock{
		Text:      "Note",
		Box:       FullPage,
		ColorHex:  "#336699",
		Alignment: AlignRight,
		Bold:      true,
		Italic:    true,
	})
	if !p.Bold || !p.Italic {
		t.Errorf("style flags lost: %+v", p)
	}
	if p.ColorHex != "336699" || p.Alignment != AlignRight {
		t.Errorf("style values wrong: %+v", p)
	}
}

func TestMapAllPreservesOrder(t *testing.T) {
	blocks := []TextBlock{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	got := MapAll(blocks)
	if len(got) != 3 {
		t.Fatalf("got %d placements, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].Text != want {
			t.Errorf("placement %d = %q, want %q", i, got[i].Text, want)
		}
	}
}
