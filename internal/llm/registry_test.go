package llm

import (
	"context"
	"testing"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/models"
)

func TestValidateModel(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		model   models.ChatModel
		wantErr bool
	}{
		{"gpt-4o with key", config.Config{OpenAIAPIKey: "sk", GPT4Enabled: true}, models.ModelGPT4o, false},
		{"gpt-4o without key", config.Config{GPT4Enabled: true}, models.ModelGPT4o, true},
		{"gpt-4o disabled", config.Config{OpenAIAPIKey: "sk"}, models.ModelGPT4o, true},
		{"gpt-3.5 with key", config.Config{OpenAIAPIKey: "sk"}, models.ModelGPT35Turbo, false},
		{"llama without groq key", config.Config{}, models.ModelLlama370B, true},
		{"llama with groq key", config.Config{GroqAPIKey: "gk"}, models.ModelLlama370B, false},
		{"gemini without key", config.Config{}, models.ModelGeminiFlash, true},
		{"local disabled", config.Config{}, models.ModelLocalLlama3, true},
		{"local enabled", config.Config{LocalModelsEnabled: true}, models.ModelLocalLlama3, false},
		{"unknown model", config.Config{}, models.ChatModel("claude-9"), true},
		{"empty model", config.Config{}, models.ChatModel(""), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateModel(&tc.cfg, tc.model)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateModel() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestIsLocal(t *testing.T) {
	if !models.ModelLocalLlama3.IsLocal() || !models.ModelLocalGemma.IsLocal() {
		t.Error("Expected ollama models to be local")
	}
	if models.ModelGPT4o.IsLocal() || models.ModelLlama370B.IsLocal() {
		t.Error("Expected hosted models to not be local")
	}
}

func TestDecodeStructured(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain json", `{"name":"plan"}`, "plan", false},
		{"fenced json", "```json\n{\"name\":\"plan\"}\n```", "plan", false},
		{"bare fence", "```\n{\"name\":\"plan\"}\n```", "plan", false},
		{"preamble", "Here you go:\n{\"name\":\"plan\"}", "plan", false},
		{"not json", "sorry, I cannot do that", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p payload
			err := decodeStructured(tc.raw, &p)
			if (err != nil) != tc.wantErr {
				t.Fatalf("decodeStructured() error = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && p.Name != tc.want {
				t.Errorf("Expected name %q, got %q", tc.want, p.Name)
			}
		})
	}
}

type closableBackend struct {
	closed bool
}

func (b *closableBackend) Complete(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (b *closableBackend) StreamComplete(ctx context.Context, prompt string, onDelta func(string) error) (string, error) {
	return "", nil
}

func (b *closableBackend) StructuredComplete(ctx context.Context, prompt string, out any) error {
	return nil
}

func (b *closableBackend) Close() error {
	b.closed = true
	return nil
}

func TestRegistryReusesBackends(t *testing.T) {
	creates := 0
	r := NewRegistry(&config.Config{})
	r.create = func(ctx context.Context, cfg *config.Config, model models.ChatModel) (LLM, error) {
		creates++
		return &closableBackend{}, nil
	}

	first, err := r.Get(context.Background(), models.ModelGeminiFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Get(context.Background(), models.ModelGeminiFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the same backend instance across calls")
	}
	if creates != 1 {
		t.Errorf("expected one backend construction, got %d", creates)
	}
}

func TestRegistryCloseReleasesBackends(t *testing.T) {
	backend := &closableBackend{}
	r := NewRegistry(&config.Config{})
	r.create = func(ctx context.Context, cfg *config.Config, model models.ChatModel) (LLM, error) {
		return backend, nil
	}

	if _, err := r.Get(context.Background(), models.ModelGeminiFlash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Close()
	if !backend.closed {
		t.Error("expected Close to release the constructed backend")
	}

	// A Get after Close constructs afresh rather than returning the
	// released backend.
	fresh, err := r.Get(context.Background(), models.ModelGeminiFlash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh == nil {
		t.Fatal("expected a backend after Close")
	}
}
