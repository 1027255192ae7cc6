package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/layout"
)

// response is the payload schema requested from text-structure services.
type response struct {
	TextBlocks *json.RawMessage `json:"textBlocks"`
}

// MaxFontSizePt is the largest font size accepted from a service. Larger
// sizes are treated as absent.
const MaxFontSizePt = 400

// rawBlock is one untrusted text block as the service reported it.
// A field of the wrong type is left absent instead of rejecting the block.
type rawBlock struct {
	Text       string
	Box        []float64
	FontSize   *float64
	FontColor  string
	FontFamily string
	Alignment  string
	IsBold     bool
	IsItalic   bool
}

// UnmarshalJSON decodes each field on its own. Only a value that is not a
// JSON object is an error.
func (rb *rawBlock) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("text block is null")
	}

	rb.Text, _ = field[string](fields, "text")
	rb.Box, _ = field[[]float64](fields, "box_2d")
	if size, ok := number(fields["fontSize"]); ok {
		rb.FontSize = &size
	}
	rb.FontColor, _ = field[string](fields, "fontColor")
	rb.FontFamily, _ = field[string](fields, "fontFamilyType")
	rb.Alignment, _ = field[string](fields, "alignment")
	rb.IsBold = flag(fields["isBold"])
	rb.IsItalic = flag(fields["isItalic"])
	return nil
}

// field decodes fields[key] into a T, reporting false when the key is
// missing or holds another type.
func field[T any](fields map[string]json.RawMessage, key string) (T, bool) {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// number accepts a JSON number or a string holding one.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// flag accepts a JSON boolean or a string holding one.
func flag(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	b, _ = strconv.ParseBool(strings.TrimSpace(s))
	return b
}

// Decode parses a service payload into a validated Result.
//
// An empty payload is an ExtractionFailed error. A payload that is not the
// expected JSON object yields StatusDegraded with no blocks. A missing or
// empty textBlocks array is a normal result with no blocks.
func Decode(payload []byte) (Result, error) {
	body := stripCodeFence(bytes.TrimSpace(payload))
	if len(body) == 0 {
		return Result{}, failure.New(failure.ErrExtractionFailed, 0, fmt.Errorf("service returned an empty response"))
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return degraded("unparseable response: %v", err), nil
	}
	if resp.TextBlocks == nil || string(*resp.TextBlocks) == "null" {
		return Result{Status: StatusOK}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(*resp.TextBlocks, &items); err != nil {
		return degraded("textBlocks is not an array: %v", err), nil
	}

	blocks := make([]layout.TextBlock, 0, len(items))
	malformed := 0
	for _, item := range items {
		var rb rawBlock
		if err := json.Unmarshal(item, &rb); err != nil {
			malformed++
			continue
		}
		blocks = append(blocks, rb.toTextBlock())
	}

	valid, dropped := Validate(blocks)
	res := Result{Blocks: valid, Status: StatusOK, Dropped: dropped + malformed}
	if res.Dropped > 0 {
		res.Diagnostic = fmt.Sprintf("dropped %d of %d text blocks", res.Dropped, len(items))
	}
	return res, nil
}

func degraded(format string, args ...interface{}) Result {
	return Result{Status: StatusDegraded, Diagnostic: fmt.Sprintf(format, args...)}
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	} else {
		b = bytes.TrimPrefix(b, []byte("json"))
	}
	if end := bytes.LastIndex(b, []byte("```")); end >= 0 {
		b = b[:end]
	}
	return bytes.TrimSpace(b)
}

func (rb rawBlock) toTextBlock() layout.TextBlock {
	block := layout.TextBlock{
		Text:      rb.Text,
		Box:       boxFromFloats(rb.Box),
		ColorHex:  rb.FontColor,
		FontClass: layout.FontClass(normalizeEnum(rb.FontFamily)),
		Alignment: layout.Alignment(normalizeEnum(rb.Alignment)),
		Bold:      rb.IsBold,
		Italic:    rb.IsItalic,
	}
	if size := rb.FontSize; size != nil && *size > 0 && *size <= MaxFontSizePt {
		block.FontSizePt = int(math.Round(*size))
	}
	return block
}

func boxFromFloats(v []float64) layout.Box {
	ints := make([]int, 0, len(v))
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return layout.FullPage
		}
		ints = append(ints, int(math.Round(f)))
	}
	return layout.BoxFromSlice(ints)
}

func normalizeEnum(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
}

// Validate applies the boundary rules to blocks from any backend: blocks
// without text are dropped, malformed boxes become the full page, and
// invalid or implausibly large sizes, colors and enum values become absent.
func Validate(blocks []layout.TextBlock) ([]layout.TextBlock, int) {
	valid := make([]layout.TextBlock, 0, len(blocks))
	dropped := 0
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) == "" {
			dropped++
			continue
		}
		b.Box = b.Box.OrFullPage()
		if b.FontSizePt <= 0 || b.FontSizePt > MaxFontSizePt {
			b.FontSizePt = 0
		}
		if !validColor(b.ColorHex) {
			b.ColorHex = ""
		}
		if !b.FontClass.Valid() {
			b.FontClass = ""
		}
		if !b.Alignment.Valid() {
			b.Alignment = ""
		}
		valid = append(valid, b)
	}
	return valid, dropped
}

func validColor(hex string) bool {
	if hex == "" {
		return false
	}
	_, err := colorful.Hex("#" + strings.TrimPrefix(hex, "#"))
	return err == nil
}
