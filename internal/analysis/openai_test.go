package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockCompletionsService implements CompletionsService for testing
type mockCompletionsService struct {
	response *openai.ChatCompletion
	err      error

	callCount  int
	lastParams openai.ChatCompletionNewParams
}

func (m *mockCompletionsService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.callCount++
	m.lastParams = params
	return m.response, m.err
}

func chatResponse(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func newTestOpenAI(mock *mockCompletionsService) *OpenAI {
	return &OpenAI{completions: mock, model: openai.ChatModel("gpt-4o")}
}

func TestOpenAI_CompleteWithImage(t *testing.T) {
	mock := &mockCompletionsService{response: chatResponse(`{"food":{}}`)}
	o := newTestOpenAI(mock)

	text, err := o.Complete(context.Background(), "describe", &Image{MIMEType: "image/png", Data: []byte{1, 2}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != `{"food":{}}` {
		t.Errorf("text = %q", text)
	}

	if mock.lastParams.Model.Value != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", mock.lastParams.Model.Value)
	}
	msgs := mock.lastParams.Messages.Value
	if len(msgs) != 2 {
		t.Fatalf("len(messages) = %d, want system + user", len(msgs))
	}
	user, ok := msgs[1].(openai.ChatCompletionUserMessageParam)
	if !ok {
		t.Fatalf("messages[1] = %T, want user message", msgs[1])
	}
	parts := user.Content.Value
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want text + image", len(parts))
	}
	if _, ok := parts[1].(openai.ChatCompletionContentPartImageParam); !ok {
		t.Errorf("parts[1] = %T, want image part", parts[1])
	}
}

func TestOpenAI_CompleteTextOnly(t *testing.T) {
	mock := &mockCompletionsService{response: chatResponse("ok")}

	if _, err := newTestOpenAI(mock).Complete(context.Background(), "describe dal", nil); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	user := mock.lastParams.Messages.Value[1].(openai.ChatCompletionUserMessageParam)
	for _, p := range user.Content.Value {
		if _, isImage := p.(openai.ChatCompletionContentPartImageParam); isImage {
			t.Error("text-only request carried an image part")
		}
	}
}

func TestOpenAI_Errors(t *testing.T) {
	apiErr := errors.New("rate limited")

	tests := []struct {
		name string
		mock *mockCompletionsService
	}{
		{"api_error", &mockCompletionsService{err: apiErr}},
		{"no_choices", &mockCompletionsService{response: &openai.ChatCompletion{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newTestOpenAI(tt.mock).Complete(context.Background(), "p", nil); err == nil {
				t.Error("Complete() error = nil, want error")
			}
		})
	}
}

func TestOpenAI_ThroughClient(t *testing.T) {
	mock := &mockCompletionsService{response: chatResponse("```json\n" + foodJSON(t, paneerRecord()) + "\n```")}
	c := NewClient(newTestOpenAI(mock))

	rec, err := c.AnalyzeByImage(context.Background(), testImage)
	if err != nil {
		t.Fatalf("AnalyzeByImage() error = %v", err)
	}
	if rec.Cuisine != "Indian" {
		t.Errorf("Cuisine = %q", rec.Cuisine)
	}
	if c.Provider() != "openai" {
		t.Errorf("Provider() = %q", c.Provider())
	}
}

func TestNewOpenAI(t *testing.T) {
	o := NewOpenAI("sk-test", "gpt-4o-mini")
	if o.ModelName() != "gpt-4o-mini" || o.completions == nil {
		t.Errorf("NewOpenAI() = %+v", o)
	}
}
