package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIBackend speaks the OpenAI chat-completions protocol. It covers
// OpenAI itself, Groq and local Ollama instances via the base URL.
type OpenAIBackend struct {
	client openai.Client
	model  string
	// jsonMode requests response_format json_object on structured calls.
	// Some compatible servers reject it, so it is opt-in per backend.
	jsonMode bool
}

func NewOpenAIBackend(apiKey, baseURL, model string, jsonMode bool) *OpenAIBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIBackend{
		client:   openai.NewClient(opts...),
		model:    model,
		jsonMode: jsonMode,
	}
}

func (b *OpenAIBackend) params(prompt string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: shared.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
}

func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.Chat.Completions.New(ctx, b.params(prompt))
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *OpenAIBackend) StreamComplete(ctx context.Context, prompt string, onDelta func(string) error) (string, error) {
	stream := b.client.Chat.Completions.NewStreaming(ctx, b.params(prompt))
	defer stream.Close()

	var full string
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if err := onDelta(delta); err != nil {
			return full, err
		}
	}
	if err := stream.Err(); err != nil {
		return full, fmt.Errorf("stream failed: %w", err)
	}
	return full, nil
}

func (b *OpenAIBackend) StructuredComplete(ctx context.Context, prompt string, out any) error {
	params := b.params(prompt)
	if b.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	var lastErr error
	for attempt := 0; attempt < structuredAttempts; attempt++ {
		resp, err := b.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return fmt.Errorf("structured completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("structured completion returned no choices")
			continue
		}
		if err := decodeStructured(resp.Choices[0].Message.Content, out); err != nil {
			lastErr = err
			continue
		}
		if err := validateStructured(out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("structured output mismatch: %w", lastErr)
}
