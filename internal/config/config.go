package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database (optional, chat history is not persisted when empty)
	DatabaseURL string

	// Redis (optional, search cache is disabled when empty)
	RedisURL       string
	SearchCacheTTL int // seconds

	// Search provider
	SearchProvider string
	TavilyAPIKey   string
	SerperAPIKey   string
	BingAPIKey     string
	SearxngBaseURL string

	// Model backends
	OpenAIAPIKey  string
	GroqAPIKey    string
	GeminiAPIKey  string
	OllamaBaseURL string

	// Feature flags
	GPT4Enabled        bool
	LocalModelsEnabled bool
	ProModeEnabled     bool

	// Optional bearer-token guard for the API
	AuthSecret string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8000"),
		Env:                getEnvOrDefault("ENV", "development"),
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
		SearchCacheTTL:     getEnvAsIntOrDefault("SEARCH_CACHE_TTL_SECONDS", 7200),
		SearchProvider:     getEnvOrDefault("SEARCH_PROVIDER", "tavily"),
		TavilyAPIKey:       getEnvOrDefault("TAVILY_API_KEY", ""),
		SerperAPIKey:       getEnvOrDefault("SERPER_API_KEY", ""),
		BingAPIKey:         getEnvOrDefault("BING_API_KEY", ""),
		SearxngBaseURL:     getEnvOrDefault("SEARXNG_BASE_URL", ""),
		OpenAIAPIKey:       getEnvOrDefault("OPENAI_API_KEY", ""),
		GroqAPIKey:         getEnvOrDefault("GROQ_API_KEY", ""),
		GeminiAPIKey:       getEnvOrDefault("GEMINI_API_KEY", ""),
		OllamaBaseURL:      getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		GPT4Enabled:        getEnvAsBoolOrDefault("GPT4_ENABLED", true),
		LocalModelsEnabled: getEnvAsBoolOrDefault("ENABLE_LOCAL_MODELS", false),
		ProModeEnabled:     getEnvAsBoolOrDefault("PRO_MODE_ENABLED", true),
		AuthSecret:         getEnvOrDefault("AUTH_SECRET", ""),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	switch strings.ToLower(val) {
	case "true", "1", "t", "yes":
		return true
	case "false", "0", "f", "no":
		return false
	}
	return defaultVal
}
