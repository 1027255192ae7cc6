package gdocai

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/gardar/slidelayers/pkg/raster"
)

var dumpOptions = protojson.MarshalOptions{Multiline: true, Indent: "  "}

// ToJSON renders a Document AI response or a plain report as indented JSON.
func ToJSON(data interface{}) (string, error) {
	var (
		out []byte
		err error
	)
	if msg, ok := data.(proto.Message); ok {
		out, err = dumpOptions.Marshal(msg)
	} else {
		out, err = json.MarshalIndent(data, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(out), nil
}

// pageImage returns the rendered bitmap Document AI attached to page.
// An image the decoder does not understand is kept as sent, typed by
// its declared or sniffed MIME type.
func pageImage(page *documentaipb.Document_Page) (raster.Image, error) {
	content := page.GetImage().GetContent()
	if len(content) == 0 {
		return raster.Image{}, fmt.Errorf("page %d has no image", page.GetPageNumber())
	}
	img, err := raster.New(content)
	if err == nil {
		return img, nil
	}
	mime := page.GetImage().GetMimeType()
	if mime == "" {
		mime = raster.SniffMime(content)
	}
	return raster.Image{Data: content, MimeType: mime}, fmt.Errorf("page %d image is not a decodable bitmap: %w", page.GetPageNumber(), err)
}
