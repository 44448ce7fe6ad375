package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"searchlight-backend/internal/models"
)

// Bing queries the Bing Web Search v7 API.
type Bing struct {
	apiKey string
	client *http.Client
}

func NewBing(apiKey string) *Bing {
	return &Bing{apiKey: apiKey, client: newHTTPClient()}
}

func (b *Bing) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	var (
		results []models.SearchResult
		images  []string
		linkErr error
		imgErr  error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		images, imgErr = b.imageResults(ctx, query)
	}()
	results, linkErr = b.linkResults(ctx, query)
	<-done

	if linkErr != nil {
		return models.SearchResponse{}, linkErr
	}
	if imgErr != nil {
		return models.SearchResponse{}, imgErr
	}
	return models.SearchResponse{Results: results, Images: images}, nil
}

func (b *Bing) get(ctx context.Context, path, query string, count int) ([]byte, error) {
	endpoint := fmt.Sprintf("https://api.bing.microsoft.com/v7.0/%s?q=%s&count=%d", path, url.QueryEscape(query), count)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bing http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bing) linkResults(ctx context.Context, query string) ([]models.SearchResult, error) {
	body, err := b.get(ctx, "search", query, linkResultCount)
	if err != nil {
		return nil, err
	}

	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, linkResultCount)
	for _, r := range payload.WebPages.Value {
		results = append(results, models.SearchResult{Title: r.Name, URL: r.URL, Content: r.Snippet})
		if len(results) >= linkResultCount {
			break
		}
	}
	return results, nil
}

func (b *Bing) imageResults(ctx context.Context, query string) ([]string, error) {
	body, err := b.get(ctx, "images/search", query, imageResultCount)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Value []struct {
			ContentURL string `json:"contentUrl"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	images := make([]string, 0, imageResultCount)
	for _, r := range payload.Value {
		images = append(images, r.ContentURL)
		if len(images) >= imageResultCount {
			break
		}
	}
	return images, nil
}
