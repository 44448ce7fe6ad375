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

// Searxng queries a self-hosted SearXNG instance over its JSON API.
type Searxng struct {
	baseURL string
	client  *http.Client
}

func NewSearxng(baseURL string) *Searxng {
	return &Searxng{baseURL: baseURL, client: newHTTPClient()}
}

func (s *Searxng) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	var (
		results []models.SearchResult
		images  []string
		linkErr error
		imgErr  error
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		images, imgErr = s.imageResults(ctx, query)
	}()
	results, linkErr = s.linkResults(ctx, query)
	<-done

	if linkErr != nil {
		return models.SearchResponse{}, linkErr
	}
	if imgErr != nil {
		return models.SearchResponse{}, imgErr
	}
	return models.SearchResponse{Results: results, Images: images}, nil
}

func (s *Searxng) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		// The JSON format has to be enabled in the instance's settings.yml.
		return nil, fmt.Errorf("searxng returned 403, is the json format enabled?")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Searxng) linkResults(ctx context.Context, query string) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	body, err := s.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, linkResultCount)
	for _, r := range payload.Results {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
		if len(results) >= linkResultCount {
			break
		}
	}
	return results, nil
}

func (s *Searxng) imageResults(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("categories", "images")

	body, err := s.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []struct {
			ImgSrc string `json:"img_src"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	images := make([]string, 0, imageResultCount)
	for _, r := range payload.Results {
		images = append(images, r.ImgSrc)
		if len(images) >= imageResultCount {
			break
		}
	}
	return images, nil
}
