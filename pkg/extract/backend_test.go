package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tmc/langchaingo/llms"

	"github.com/gardar/slidelayers/pkg/hocr"
	"github.com/gardar/slidelayers/pkg/layout"
)

type fakeModel struct {
	messages []llms.MessageContent
	options  []llms.CallOption
	resp     *llms.ContentResponse
	err      error
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	m.options = options
	return m.resp, m.err
}

func TestLLMBackendSendsImageAndPrompt(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  bool
	}{
		{"openai", true},
		{"Mistral", true},
		{"anthropic", false},
		{"ollama", false},
	}

	for _, tt := range tests {
		model := &fakeModel{resp: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: `{"textBlocks":[]}`}},
		}}
		b := NewLLMBackendWithModel(LLMConfig{Provider: tt.provider, Model: "m"}, model)

		payload, err := b.Analyze(context.Background(), []byte("img"), "image/png")
		if err != nil {
			t.Fatalf("%s: Analyze: %v", tt.provider, err)
		}
		if string(payload) != `{"textBlocks":[]}` {
			t.Errorf("%s: payload = %q", tt.provider, payload)
		}
		if len(model.messages) != 1 || len(model.messages[0].Parts) != 2 {
			t.Fatalf("%s: messages = %+v", tt.provider, model.messages)
		}

		switch part := model.messages[0].Parts[0].(type) {
		case llms.ImageURLContent:
			if !tt.wantURL || !strings.HasPrefix(part.URL, "data:image/png;base64,") {
				t.Errorf("%s: image part = %+v", tt.provider, part)
			}
		case llms.BinaryContent:
			if tt.wantURL || part.MIMEType != "image/png" {
				t.Errorf("%s: image part = %+v", tt.provider, part)
			}
		default:
			t.Errorf("%s: unexpected image part %T", tt.provider, part)
		}

		text, ok := model.messages[0].Parts[1].(llms.TextContent)
		if !ok || text.Text != DefaultPrompt {
			t.Errorf("%s: prompt part = %+v", tt.provider, model.messages[0].Parts[1])
		}
	}
}

func TestLLMBackendNoChoices(t *testing.T) {
	b := NewLLMBackendWithModel(LLMConfig{Provider: "openai"}, &fakeModel{resp: &llms.ContentResponse{}})
	payload, err := b.Analyze(context.Background(), []byte("img"), "image/png")
	if err != nil || payload != nil {
		t.Errorf("Analyze = %q, %v; want nil payload", payload, err)
	}
}

func TestLLMBackendWrapsErrors(t *testing.T) {
	cause := errors.New("Requested entity was not found.")
	b := NewLLMBackendWithModel(LLMConfig{Provider: "openai"}, &fakeModel{err: cause})
	if _, err := b.Analyze(context.Background(), []byte("img"), "image/png"); !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped cause", err)
	}
}

func TestNewLLMBackendUnknownProvider(t *testing.T) {
	if _, err := NewLLMBackend(LLMConfig{Provider: "palm"}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}

func TestBlocksFromHOCR(t *testing.T) {
	page := hocr.Page{
		BBox: hocr.BoundingBox{X2: 1600, Y2: 900},
		Lines: []hocr.Line{
			{
				BBox: hocr.BoundingBox{X1: 80, Y1: 90, X2: 1520, Y2: 180},
				Size: 72,
				Words: []hocr.Word{
					{Text: "Quarterly", Bold: true},
					{Text: "Review", Bold: true},
				},
			},
			{BBox: hocr.BoundingBox{X1: 10, Y1: 10, X2: 20, Y2: 20}},
			{
				BBox: hocr.BoundingBox{X1: 80, Y1: 450, X2: 800, Y2: 495},
				Words: []hocr.Word{
					{Text: "Revenue", Italic: true},
					{Text: "grew"},
				},
			},
		},
	}

	blocks := BlocksFromHOCR(page)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	header := blocks[0]
	if header.Text != "Quarterly Review" || !header.Bold || header.Italic {
		t.Errorf("header = %+v", header)
	}
	if header.Box != (layout.Box{YMin: 100, XMin: 50, YMax: 200, XMax: 950}) {
		t.Errorf("header box = %+v", header.Box)
	}
	if header.FontSizePt != 32 {
		t.Errorf("header size = %d, want 32", header.FontSizePt)
	}

	body := blocks[1]
	if body.Italic || body.Bold {
		t.Errorf("body style = %+v", body)
	}
	if body.Box != (layout.Box{YMin: 500, XMin: 50, YMax: 550, XMax: 500}) {
		t.Errorf("body box = %+v", body.Box)
	}
	// No x_size: the line height stands in, 45px of 900 on a 405pt page.
	if body.FontSizePt != 20 {
		t.Errorf("body size = %d, want 20", body.FontSizePt)
	}
}

func TestBlocksFromHOCREmptyPage(t *testing.T) {
	if blocks := BlocksFromHOCR(hocr.Page{}); blocks != nil {
		t.Errorf("blocks = %+v, want nil", blocks)
	}
}
