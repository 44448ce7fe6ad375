package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/models"
)

// Provider executes one query against a search backend and adapts its native
// result shape into a SearchResponse.
type Provider interface {
	Search(ctx context.Context, query string) (models.SearchResponse, error)
}

// linkResultCount and imageResultCount bound what each provider fetches.
const (
	linkResultCount  = 6
	imageResultCount = 4
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// NewProviderFromConfig maps the configured provider name to a concrete
// backend. Selection happens once per process; an unknown name or a missing
// credential is a configuration error.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	switch cfg.SearchProvider {
	case "tavily":
		if cfg.TavilyAPIKey == "" {
			return nil, fmt.Errorf("TAVILY_API_KEY is not set")
		}
		return NewTavily(cfg.TavilyAPIKey), nil
	case "searxng":
		if cfg.SearxngBaseURL == "" {
			return nil, fmt.Errorf("SEARXNG_BASE_URL is not set")
		}
		return NewSearxng(cfg.SearxngBaseURL), nil
	case "serper":
		if cfg.SerperAPIKey == "" {
			return nil, fmt.Errorf("SERPER_API_KEY is not set")
		}
		return NewSerper(cfg.SerperAPIKey), nil
	case "bing":
		if cfg.BingAPIKey == "" {
			return nil, fmt.Errorf("BING_API_KEY is not set")
		}
		return NewBing(cfg.BingAPIKey), nil
	}
	return nil, fmt.Errorf("invalid search provider %q (expected tavily, searxng, serper or bing)", cfg.SearchProvider)
}
