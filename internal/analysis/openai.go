package analysis

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hyperengineering/foodlens/internal/datauri"
)

// Compile-time interface check
var _ Completer = (*OpenAI)(nil)

// CompletionsService defines the interface for chat completion calls.
// This abstraction enables testing without calling the real OpenAI API.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI sends oracle requests to an OpenAI vision chat model.
type OpenAI struct {
	completions CompletionsService
	model       openai.ChatModel
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		completions: client.Chat.Completions,
		model:       openai.ChatModel(model),
	}
}

// Complete sends the prompt, attaching the image as an image_url data URI.
func (o *OpenAI) Complete(ctx context.Context, prompt string, image *Image) (string, error) {
	var user openai.ChatCompletionMessageParamUnion
	if image != nil {
		user = openai.UserMessageParts(
			openai.TextPart(prompt),
			openai.ImagePart(datauri.Encode(image.MIMEType, image.Data)),
		)
	} else {
		user = openai.UserMessage(prompt)
	}

	resp, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt),
			user,
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion failed: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Name returns the provider name.
func (o *OpenAI) Name() string {
	return "openai"
}

// ModelName returns the chat model name.
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
