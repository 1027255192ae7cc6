package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	result := strings.Builder{}
	totalRunes := len(runes)

	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > totalRunes {
			end = totalRunes
		}
		if start > end {
			start = end
		}
		result.WriteString(string(runes[start:end]))
	}
	return result.String()
}

// anchorRange returns the first text segment of layout as [start, end).
func anchorRange(layout *documentaipb.Document_Page_Layout) (int64, int64, bool) {
	if layout == nil || layout.TextAnchor == nil || len(layout.TextAnchor.TextSegments) == 0 {
		return 0, 0, false
	}
	seg := layout.TextAnchor.TextSegments[0]
	return seg.StartIndex, seg.EndIndex, true
}

// tokensWithin returns the tokens whose text lies inside parent's text range.
func tokensWithin(parent *documentaipb.Document_Page_Layout, tokens []*documentaipb.Document_Page_Token) []*documentaipb.Document_Page_Token {
	start, end, ok := anchorRange(parent)
	if !ok {
		return nil
	}

	var result []*documentaipb.Document_Page_Token
	for _, tok := range tokens {
		s, e, ok := anchorRange(tok.GetLayout())
		if !ok {
			continue
		}
		if s >= start && e <= end {
			result = append(result, tok)
		}
	}
	return result
}
