package slidedoc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// ocgPatterns match the name of an optional content group. The name group
// allows escaped parentheses.
var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)/Type\s*/OCG\s*/Name\s*\(((?:\\.|[^\\)])*)\)`),
	regexp.MustCompile(`(?s)/Name\s*\(((?:\\.|[^\\)])*)\)\s*/Type\s*/OCG`),
}

// DetectLayers returns the names of the optional content layers found in
// a PDF, in document order without duplicates.
func DetectLayers(pdf []byte) ([]string, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	content := string(pdf)
	var layers []string
	for _, re := range ocgPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			name := unescapePDFString(m[1])
			if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
				name = decoded
			}
			layers = append(layers, name)
		}
	}

	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, l := range layers {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	return unique, nil
}

// HasTextLayer reports whether layers contain a text layer named
// "<name> (Page N)".
func HasTextLayer(layers []string, name string) bool {
	prefix := name + " (Page "
	for _, l := range layers {
		if l == name || strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

var pdfEscapes = strings.NewReplacer(
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
	`\r`, "\r",
	`\n`, "\n",
	`\t`, "\t",
)

func unescapePDFString(s string) string {
	return pdfEscapes.Replace(s)
}

// decodeUTF16BE decodes a PDF text string that starts with a UTF-16BE BOM.
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	b = b[2:]
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units)), nil
}
