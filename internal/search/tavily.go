package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"searchlight-backend/internal/models"
)

// Tavily calls the Tavily search API.
type Tavily struct {
	apiKey string
	client *http.Client
}

func NewTavily(apiKey string) *Tavily {
	return &Tavily{apiKey: apiKey, client: newHTTPClient()}
}

func (t *Tavily) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	body := map[string]any{
		"api_key":        t.apiKey,
		"query":          query,
		"search_depth":   "basic",
		"max_results":    linkResultCount,
		"include_images": true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return models.SearchResponse{}, err
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(payload))
		if err != nil {
			return models.SearchResponse{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return models.SearchResponse{}, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30 s.
		select {
		case <-ctx.Done():
			return models.SearchResponse{}, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.SearchResponse{}, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
		Images []string `json:"images"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return models.SearchResponse{}, err
	}

	results := make([]models.SearchResult, 0, len(response.Results))
	for _, r := range response.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return models.SearchResponse{Results: results, Images: response.Images}, nil
}
