package search

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"searchlight-backend/internal/models"
)

// ErrSearchFailed is the single error kind callers see for any provider
// fault. Provider-specific details are logged, never propagated.
var ErrSearchFailed = errors.New("there was an error while searching")

// Service is the cache-aware search gateway. The provider is selected once
// at startup; redis may be nil, in which case every lookup is a miss.
type Service struct {
	provider Provider
	cache    *redis.Client
	ttl      time.Duration
}

func NewService(provider Provider, cache *redis.Client, ttlSeconds int) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      time.Duration(ttlSeconds) * time.Second,
	}
}

func cacheKey(query string) string {
	return "search:" + query
}

// Search returns the cached response for an exact query string when present,
// otherwise invokes the provider and stores the serialized response.
func (s *Service) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(query)).Bytes(); err == nil {
			var response models.SearchResponse
			if err := json.Unmarshal(cached, &response); err == nil {
				return response, nil
			}
			// Corrupt entry; fall through to the provider.
		}
	}

	response, err := s.provider.Search(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.SearchResponse{}, err
		}
		log.Printf("search provider error for %q: %v", query, err)
		return models.SearchResponse{}, ErrSearchFailed
	}

	if s.cache != nil {
		if data, err := json.Marshal(response); err == nil {
			s.cache.Set(ctx, cacheKey(query), data, s.ttl)
		}
	}

	return response, nil
}
