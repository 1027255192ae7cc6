package hocr

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// Parse converts raw hOCR data into a Document.
func Parse(data []byte) (Document, error) {
	doc := Document{Metadata: make(map[string]string)}

	// Tesseract writes UTF-8, older engines sometimes Latin-1
	if charset := declaredCharset(data); charset != "" && charset != "utf-8" {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return doc, fmt.Errorf("failed to decode %s: %w", charset, err)
		}
		data = decoded
	}

	root, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return doc, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	readHead(&doc, root)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			page := readPage(n)
			page.Number = len(doc.Pages) + 1
			doc.Pages = append(doc.Pages, page)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(root)

	if len(doc.Pages) == 0 {
		return doc, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return doc, nil
}

// declaredCharset returns the lower-cased charset from a meta tag, if any.
func declaredCharset(data []byte) string {
	content := string(data)
	i := strings.Index(content, "charset=")
	if i < 0 {
		return ""
	}
	rest := content[i+len("charset="):]
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' ' || r == '/'
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// parseBBox reads the bbox property, returning false if it is missing or short.
func parseBBox(props map[string][]string) (BoundingBox, bool) {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return BoundingBox{}, false
	}
	var coords [4]float64
	for i := range coords {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return BoundingBox{}, false
		}
		coords[i] = f
	}
	return BoundingBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, true
}

func readHead(doc *Document, root *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := attr(n, "lang"); lang != "" {
					doc.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					doc.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := attr(n, "name"), attr(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					doc.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

func readPage(n *html.Node) Page {
	page := Page{ID: attr(n, "id")}
	props := ParseTitle(attr(n, "title"))
	if bbox, ok := parseBBox(props); ok {
		page.BBox = bbox
	}
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.Image = strings.Trim(image[0], `"`)
	}

	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.ElementNode && isLine(c) {
			page.Lines = append(page.Lines, readLine(c))
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			collect(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}
	return page
}

func readLine(n *html.Node) Line {
	line := Line{ID: attr(n, "id")}
	for _, class := range lineClasses {
		if hasClass(n, class) {
			line.Class = class
			break
		}
	}

	props := ParseTitle(attr(n, "title"))
	if bbox, ok := parseBBox(props); ok {
		line.BBox = bbox
	}
	if size, ok := props["x_size"]; ok && len(size) > 0 {
		line.Size, _ = strconv.ParseFloat(size[0], 64)
	}
	if baseline, ok := props["baseline"]; ok {
		line.Baseline = strings.Join(baseline, " ")
	}

	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.ElementNode && hasClass(c, "ocrx_word") {
			line.Words = append(line.Words, readWord(c))
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			collect(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}
	return line
}

func readWord(n *html.Node) Word {
	word := Word{ID: attr(n, "id")}
	props := ParseTitle(attr(n, "title"))
	if bbox, ok := parseBBox(props); ok {
		word.BBox = bbox
	}
	if conf, ok := props["x_wconf"]; ok && len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			text.WriteString(c.Data)
		case html.ElementNode:
			switch c.Data {
			case "strong", "b":
				word.Bold = true
			case "em", "i":
				word.Italic = true
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	word.Text = strings.TrimSpace(text.String())
	return word
}

func isLine(n *html.Node) bool {
	for _, class := range lineClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// attr returns the value of a specific attribute from a node
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
