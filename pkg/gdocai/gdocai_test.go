package gdocai

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/genproto/googleapis/type/color"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/layout"
)

const pageText = "Quarterly Review\nRevenue grew\n"

func anchor(start, end int64) *documentaipb.Document_TextAnchor {
	return &documentaipb.Document_TextAnchor{
		TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
	}
}

func normPoly(x1, y1, x2, y2 float32) *documentaipb.BoundingPoly {
	return &documentaipb.BoundingPoly{NormalizedVertices: []*documentaipb.NormalizedVertex{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
	}}
}

func samplePage() *documentaipb.Document_Page {
	return &documentaipb.Document_Page{
		PageNumber: 1,
		Dimension:  &documentaipb.Document_Page_Dimension{Width: 1600, Height: 900},
		Paragraphs: []*documentaipb.Document_Page_Paragraph{
			{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 17), BoundingPoly: normPoly(0.05, 0.1, 0.95, 0.2)}},
			{Layout: &documentaipb.Document_Page_Layout{
				TextAnchor: anchor(17, 30),
				BoundingPoly: &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
					{X: 80, Y: 450}, {X: 800, Y: 450}, {X: 800, Y: 495}, {X: 80, Y: 495},
				}},
			}},
		},
		Tokens: []*documentaipb.Document_Page_Token{
			{
				Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 10)},
				StyleInfo: &documentaipb.Document_Page_Token_StyleInfo{
					PixelFontSize: 72,
					FontType:      "SANS_SERIF",
					Bold:          true,
					TextColor:     &color.Color{Red: 1, Green: 0, Blue: 0},
				},
			},
			{
				Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(17, 25)},
				StyleInfo: &documentaipb.Document_Page_Token_StyleInfo{
					FontSize:    14,
					Italic:      true,
					Handwritten: true,
				},
			},
		},
	}
}

func TestBlocksFromPage(t *testing.T) {
	blocks := BlocksFromPage(samplePage(), pageText)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	title := blocks[0]
	if title.Text != "Quarterly Review" {
		t.Errorf("title text = %q", title.Text)
	}
	if title.Box != (layout.Box{YMin: 100, XMin: 50, YMax: 200, XMax: 950}) {
		t.Errorf("title box = %+v", title.Box)
	}
	if title.FontSizePt != 32 || !title.Bold || title.ColorHex != "ff0000" || title.FontClass != layout.SansSerif {
		t.Errorf("title style = %+v", title)
	}

	body := blocks[1]
	if body.Text != "Revenue grew" {
		t.Errorf("body text = %q", body.Text)
	}
	if body.Box != (layout.Box{YMin: 500, XMin: 50, YMax: 550, XMax: 500}) {
		t.Errorf("body box = %+v", body.Box)
	}
	if body.FontSizePt != 14 || !body.Italic || body.FontClass != layout.Handwriting || body.ColorHex != "" {
		t.Errorf("body style = %+v", body)
	}
}

func TestBlocksFromPageSkipsEmptyParagraphs(t *testing.T) {
	page := &documentaipb.Document_Page{
		Paragraphs: []*documentaipb.Document_Page_Paragraph{
			{Layout: &documentaipb.Document_Page_Layout{TextAnchor: anchor(0, 2)}},
			{Layout: &documentaipb.Document_Page_Layout{}},
		},
	}
	if blocks := BlocksFromPage(page, "\n\n"); len(blocks) != 0 {
		t.Errorf("blocks = %+v, want none", blocks)
	}
	if BlocksFromPage(nil, "") != nil {
		t.Error("nil page should yield nil")
	}
}

func TestBoxFromPolyWithoutGeometry(t *testing.T) {
	if got := boxFromPoly(nil, 0, 0); got != layout.FullPage {
		t.Errorf("box = %+v, want full page", got)
	}
	if got := boxFromPoly(normPoly(0.5, 0.5, 0.5, 0.9), 0, 0); got != layout.FullPage {
		t.Errorf("degenerate box = %+v, want full page", got)
	}
}

func TestFontClass(t *testing.T) {
	tests := []struct {
		fontType string
		want     layout.FontClass
	}{
		{"", ""},
		{"Courier New", layout.Monospace},
		{"MONOSPACE", layout.Monospace},
		{"sans-serif", layout.SansSerif},
		{"Times New Roman", layout.Serif},
		{"SERIF", layout.Serif},
		{"Brush Script", layout.Handwriting},
		{"Helvetica", layout.SansSerif},
	}
	for _, tt := range tests {
		got := fontClass(&documentaipb.Document_Page_Token_StyleInfo{FontType: tt.fontType})
		if got != tt.want {
			t.Errorf("fontClass(%q) = %q, want %q", tt.fontType, got, tt.want)
		}
	}
}

func fakeClient(process processFunc) *Client {
	return &Client{
		cfg:     Config{ProjectID: "p", Location: "eu", ProcessorID: "ocr"},
		process: process,
	}
}

func TestExtractorExtract(t *testing.T) {
	var got *documentaipb.ProcessRequest
	client := fakeClient(func(_ context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		got = req
		return &documentaipb.ProcessResponse{Document: &documentaipb.Document{
			Text:  pageText,
			Pages: []*documentaipb.Document_Page{samplePage()},
		}}, nil
	})

	res, err := NewExtractor(client).Extract(context.Background(), bytes.Repeat([]byte{1}, 200), "image/png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Status != extract.StatusOK || len(res.Blocks) != 2 {
		t.Errorf("result = %+v", res)
	}
	if got.GetName() != "projects/p/locations/eu/processors/ocr" {
		t.Errorf("processor name = %q", got.GetName())
	}
	if !got.GetProcessOptions().GetOcrConfig().GetPremiumFeatures().GetComputeStyleInfo() {
		t.Error("style info not requested")
	}
	if got.GetRawDocument().GetMimeType() != "image/png" {
		t.Errorf("mime type = %q", got.GetRawDocument().GetMimeType())
	}
}

func TestExtractorClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		auth bool
	}{
		{"permission denied", status.Error(codes.PermissionDenied, "billing disabled"), true},
		{"unavailable", status.Error(codes.Unavailable, "try again"), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		client := fakeClient(func(context.Context, *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
			return nil, tt.err
		})
		_, err := NewExtractor(client).Extract(context.Background(), bytes.Repeat([]byte{1}, 200), "image/png")
		if !errors.Is(err, failure.ErrExtractionFailed) {
			t.Errorf("%s: error = %v, want extraction failed", tt.name, err)
		}
		if got := errors.Is(err, failure.ErrAuthorizationRequired); got != tt.auth {
			t.Errorf("%s: authorization = %v, want %v", tt.name, got, tt.auth)
		}
	}
}

func TestExtractorRejectsTinyImage(t *testing.T) {
	client := fakeClient(func(context.Context, *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		t.Fatal("backend called for invalid input")
		return nil, nil
	})
	_, err := NewExtractor(client).Extract(context.Background(), []byte("x"), "image/png")
	if !errors.Is(err, failure.ErrInvalidInput) {
		t.Errorf("error = %v, want invalid input", err)
	}
}

func TestPageImages(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	client := fakeClient(func(_ context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
		if req.GetRawDocument().GetMimeType() != "application/pdf" {
			t.Errorf("mime type = %q", req.GetRawDocument().GetMimeType())
		}
		return &documentaipb.ProcessResponse{Document: &documentaipb.Document{
			Pages: []*documentaipb.Document_Page{
				{Image: &documentaipb.Document_Page_Image{Content: gif}},
				{},
			},
		}}, nil
	})

	images, err := client.PageImages(context.Background(), []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("PageImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("got %d images, want 2", len(images))
	}
	if images[0].MimeType != "image/gif" || images[0].Empty() {
		t.Errorf("first image = %+v", images[0])
	}
	if !images[1].Empty() {
		t.Errorf("second image should be empty")
	}
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(&documentaipb.Document{Text: "hi"})
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte(`"text"`)) || !bytes.Contains([]byte(out), []byte(`"hi"`)) {
		t.Errorf("ToJSON = %s", out)
	}
}
