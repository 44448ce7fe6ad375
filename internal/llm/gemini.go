package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiBackend binds the facade to a Gemini model. A second model handle
// with a JSON response MIME type serves structured calls.
type GeminiBackend struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
}

func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0.3)
	m.SetTopP(0.95)

	jm := client.GenerativeModel(model)
	jm.SetTemperature(0.3)
	jm.ResponseMIMEType = "application/json"

	return &GeminiBackend{client: client, model: m, jsonModel: jm}, nil
}

func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

func (b *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractText(resp), nil
}

func (b *GeminiBackend) StreamComplete(ctx context.Context, prompt string, onDelta func(string) error) (string, error) {
	iter := b.model.GenerateContentStream(ctx, genai.Text(prompt))

	var full string
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return full, fmt.Errorf("Gemini stream error: %w", err)
		}
		delta := extractText(resp)
		if delta == "" {
			continue
		}
		full += delta
		if err := onDelta(delta); err != nil {
			return full, err
		}
	}
	return full, nil
}

func (b *GeminiBackend) StructuredComplete(ctx context.Context, prompt string, out any) error {
	var lastErr error
	for attempt := 0; attempt < structuredAttempts; attempt++ {
		resp, err := b.jsonModel.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("Gemini API error: %w", err)
		}
		if err := decodeStructured(extractText(resp), out); err != nil {
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

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
