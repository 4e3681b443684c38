package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperengineering/foodlens/internal/datauri"
	"github.com/hyperengineering/foodlens/internal/types"
)

// Image is an inline image attached to an oracle request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Completer sends one prompt (with an optional image) to an oracle
// provider and returns its raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, image *Image) (string, error)
	Name() string
}

// Compile-time interface check
var _ Gateway = (*Client)(nil)

// Client implements Gateway on top of a Completer.
type Client struct {
	completer Completer
}

// NewClient returns a Gateway backed by completer.
func NewClient(completer Completer) *Client {
	return &Client{completer: completer}
}

// Provider returns the name of the underlying provider.
func (c *Client) Provider() string {
	return c.completer.Name()
}

// AnalyzeByImage submits a photo for identification.
func (c *Client) AnalyzeByImage(ctx context.Context, uri string) (*types.FoodRecord, error) {
	mime, data, err := datauri.Decode(uri)
	if err != nil {
		return nil, failure(KindMalformed, "image is not a valid data URI", err)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, failure(KindMalformed, "data URI is not an image", fmt.Errorf("media type %s", mime))
	}
	return c.analyze(ctx, "image", ImagePrompt(), &Image{MIMEType: mime, Data: data})
}

// AnalyzeByName submits a free-text dish name.
func (c *Client) AnalyzeByName(ctx context.Context, name string) (*types.FoodRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	return c.analyze(ctx, "name", NamePrompt(name), nil)
}

func (c *Client) analyze(ctx context.Context, by, prompt string, image *Image) (*types.FoodRecord, error) {
	requestID := uuid.NewString()
	start := time.Now()
	log := slog.With(
		"component", "analysis",
		"provider", c.completer.Name(),
		"request_id", requestID,
		"by", by,
	)

	text, err := c.completer.Complete(ctx, prompt, image)
	if err != nil {
		log.Warn("oracle request failed", "action", "request_failed", "error", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, failure(KindTransport, "analysis request interrupted", err)
		}
		return nil, failure(KindTransport, "oracle request failed", err)
	}

	record, err := ParseResponse(text)
	if err != nil {
		log.Warn("oracle response rejected", "action", "response_rejected", "error", err)
		return nil, err
	}

	log.Info("analysis completed",
		"action", "completed",
		"dish", record.Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}
