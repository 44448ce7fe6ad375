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

// Serper queries the Serper Google-search API.
type Serper struct {
	apiKey string
	client *http.Client
}

func NewSerper(apiKey string) *Serper {
	return &Serper{apiKey: apiKey, client: newHTTPClient()}
}

func (s *Serper) Search(ctx context.Context, query string) (models.SearchResponse, error) {
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

func (s *Serper) get(ctx context.Context, path, query string) ([]byte, error) {
	endpoint := fmt.Sprintf("https://google.serper.dev/%s?q=%s", path, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Serper) linkResults(ctx context.Context, query string) ([]models.SearchResult, error) {
	body, err := s.get(ctx, "search", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, linkResultCount)
	for _, r := range payload.Organic {
		results = append(results, models.SearchResult{Title: r.Title, URL: r.Link, Content: r.Snippet})
		if len(results) >= linkResultCount {
			break
		}
	}
	return results, nil
}

func (s *Serper) imageResults(ctx context.Context, query string) ([]string, error) {
	body, err := s.get(ctx, "images", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Images []struct {
			ImageURL string `json:"imageUrl"`
		} `json:"images"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	images := make([]string, 0, imageResultCount)
	for _, r := range payload.Images {
		images = append(images, r.ImageURL)
		if len(images) >= imageResultCount {
			break
		}
	}
	return images, nil
}
