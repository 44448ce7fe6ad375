package llm

import (
	"context"
	"fmt"
	"io"
	"sync"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/models"
)

// Vendor model identifiers behind the ChatModel enum.
const (
	gpt4Model     = "gpt-4o"
	gpt35Model    = "gpt-3.5-turbo"
	llama70BModel = "llama3-70b-8192"
	geminiModel   = "gemini-2.0-flash"
	localLlama3   = "llama3"
	localGemma    = "gemma:2b"
	groqBaseURL   = "https://api.groq.com/openai/v1"
	ollamaAPIKey  = "ollama"
)

// ValidateModel fails fast when the selected model is unknown or its
// required credentials and flags are absent. It runs once, before a run
// starts and before any event is emitted.
func ValidateModel(cfg *config.Config, model models.ChatModel) error {
	switch model {
	case models.ModelGPT4o, models.ModelGPT35Turbo:
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not found")
		}
		if model == models.ModelGPT4o && !cfg.GPT4Enabled {
			return fmt.Errorf("GPT-4o has been disabled, please try a different model")
		}
	case models.ModelLlama370B:
		if cfg.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not found")
		}
	case models.ModelGeminiFlash:
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not found")
		}
	case models.ModelLocalLlama3, models.ModelLocalGemma:
		if !cfg.LocalModelsEnabled {
			return fmt.Errorf("local models are not enabled")
		}
	default:
		return fmt.Errorf("invalid model %q", model)
	}
	return nil
}

// NewFromConfig maps a validated ChatModel to a bound backend. The mapping
// is pure; all state lives in the returned backend.
func NewFromConfig(ctx context.Context, cfg *config.Config, model models.ChatModel) (LLM, error) {
	if err := ValidateModel(cfg, model); err != nil {
		return nil, err
	}

	switch model {
	case models.ModelGPT4o:
		return NewOpenAIBackend(cfg.OpenAIAPIKey, "", gpt4Model, true), nil
	case models.ModelGPT35Turbo:
		return NewOpenAIBackend(cfg.OpenAIAPIKey, "", gpt35Model, true), nil
	case models.ModelLlama370B:
		return NewOpenAIBackend(cfg.GroqAPIKey, groqBaseURL, llama70BModel, false), nil
	case models.ModelGeminiFlash:
		return NewGeminiBackend(ctx, cfg.GeminiAPIKey, geminiModel)
	case models.ModelLocalLlama3:
		return NewOpenAIBackend(ollamaAPIKey, cfg.OllamaBaseURL, localLlama3, false), nil
	case models.ModelLocalGemma:
		return NewOpenAIBackend(ollamaAPIKey, cfg.OllamaBaseURL, localGemma, false), nil
	}
	return nil, fmt.Errorf("invalid model %q", model)
}

// Registry hands out one backend per model for the process lifetime.
// Backends hold network clients (the Gemini one keeps a gRPC connection),
// so they are constructed on first use, reused across runs, and closed
// together at shutdown.
type Registry struct {
	cfg    *config.Config
	create func(ctx context.Context, cfg *config.Config, model models.ChatModel) (LLM, error)

	mu       sync.Mutex
	backends map[models.ChatModel]LLM
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:      cfg,
		create:   NewFromConfig,
		backends: make(map[models.ChatModel]LLM),
	}
}

// Get returns the shared backend for model, constructing it on first use.
func (r *Registry) Get(ctx context.Context, model models.ChatModel) (LLM, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if backend, ok := r.backends[model]; ok {
		return backend, nil
	}
	backend, err := r.create(ctx, r.cfg, model)
	if err != nil {
		return nil, err
	}
	r.backends[model] = backend
	return backend, nil
}

// Close releases every constructed backend.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for model, backend := range r.backends {
		if closer, ok := backend.(io.Closer); ok {
			closer.Close()
		}
		delete(r.backends, model)
	}
}
