package analysis

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

// Compile-time interface check
var _ Completer = (*Vertex)(nil)

// ContentGenerator is the subset of *genai.GenerativeModel used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// VertexConfig configures the Vertex AI Gemini provider.
type VertexConfig struct {
	ProjectID       string
	Location        string
	CredentialsFile string
	Model           string
}

// Vertex sends oracle requests to a Gemini model on Vertex AI.
type Vertex struct {
	client    *genai.Client
	generator ContentGenerator
	model     string
}

// NewVertex connects to Vertex AI.
func NewVertex(ctx context.Context, cfg VertexConfig) (*Vertex, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(SystemPrompt)}}
	return &Vertex{client: client, generator: model, model: cfg.Model}, nil
}

// Complete sends the prompt with the image as an inline blob.
func (v *Vertex) Complete(ctx context.Context, prompt string, image *Image) (string, error) {
	parts := []genai.Part{genai.Text(prompt)}
	if image != nil {
		parts = append(parts, genai.ImageData(strings.TrimPrefix(image.MIMEType, "image/"), image.Data))
	}

	resp, err := v.generator.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("generate content failed: no candidates returned")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("generate content failed: no text in response")
	}
	return b.String(), nil
}

// Name returns the provider name.
func (v *Vertex) Name() string {
	return "vertex"
}

// ModelName returns the Gemini model name.
func (v *Vertex) ModelName() string {
	return v.model
}

// Close releases the Vertex client.
func (v *Vertex) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
