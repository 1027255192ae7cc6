package gdocai

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// processFunc sends one request to Document AI.
type processFunc func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)

// Client calls one Document AI processor.
type Client struct {
	cfg     Config
	process processFunc
	close   func() error
}

// NewClient dials the regional Document AI endpoint for cfg.Location.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)

	credentials := cfg.CredentialsFile
	if credentials == "" {
		credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}

	return &Client{
		cfg: cfg,
		process: func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
			return client.ProcessDocument(ctx, req)
		},
		close: client.Close,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// ProcessorName is the full resource name of the configured processor.
func (c *Client) ProcessorName() string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/processors/%s",
		c.cfg.ProjectID, c.cfg.Location, c.cfg.ProcessorID,
	)
}

// ProcessDocument sends content to Document AI with style information
// enabled and returns the raw Document proto.
func (c *Client) ProcessDocument(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: c.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		ProcessOptions: &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				PremiumFeatures: &documentaipb.OcrConfig_PremiumFeatures{
					ComputeStyleInfo: true,
				},
			},
		},
		SkipHumanReview: true,
	}

	resp, err := c.process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return resp.GetDocument(), nil
}
