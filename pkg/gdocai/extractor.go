package gdocai

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gardar/slidelayers/pkg/extract"
	"github.com/gardar/slidelayers/pkg/failure"
	"github.com/gardar/slidelayers/pkg/raster"
)

// Extractor recovers text blocks from one page image with Document AI.
// The Document AI client retries unavailable backends on its own, so
// each page is sent once.
type Extractor struct {
	client *Client
	log    logrus.FieldLogger
}

// NewExtractor wraps client as an extract.Extractor.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client, log: getLogger(client.cfg.Logger)}
}

// Extract sends the image and converts its first page to text blocks.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (extract.Result, error) {
	minBytes := e.client.cfg.MinImageBytes
	if minBytes == 0 {
		minBytes = extract.DefaultConfig().MinImageBytes
	}
	if err := extract.CheckImage(image, minBytes); err != nil {
		return extract.Result{}, err
	}

	doc, err := e.client.ProcessDocument(ctx, image, mimeType)
	if err != nil {
		if failure.IsAuthorizationSignature(err) {
			err = failure.New(failure.ErrAuthorizationRequired, 0, err)
		}
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, err)
	}
	if doc == nil {
		return extract.Result{}, failure.New(failure.ErrExtractionFailed, 0, fmt.Errorf("Document AI returned no document"))
	}
	if len(doc.GetPages()) == 0 {
		return extract.Result{Status: extract.StatusOK}, nil
	}
	if len(doc.GetPages()) > 1 {
		e.log.WithField("pages", len(doc.GetPages())).Warn("Document AI returned several pages for one image, using the first")
	}

	blocks, dropped := extract.Validate(BlocksFromPage(doc.GetPages()[0], doc.GetText()))
	res := extract.Result{Blocks: blocks, Status: extract.StatusOK, Dropped: dropped}
	if dropped > 0 {
		res.Diagnostic = fmt.Sprintf("dropped %d text blocks", dropped)
	}
	return res, nil
}

// PageImages rasterizes a PDF by processing it with Document AI and
// collecting the image it returns for each page. Pages without an image
// come back empty, so their position is kept.
func (c *Client) PageImages(ctx context.Context, pdf []byte) ([]raster.Image, error) {
	doc, err := c.ProcessDocument(ctx, pdf, "application/pdf")
	if err != nil {
		return nil, err
	}

	log := getLogger(c.cfg.Logger)
	images := make([]raster.Image, 0, len(doc.GetPages()))
	for i, page := range doc.GetPages() {
		img, err := pageImage(page)
		if err != nil {
			log.WithError(err).WithField("page", i+1).Warn("Page image unusable")
		}
		images = append(images, img)
	}
	return images, nil
}
