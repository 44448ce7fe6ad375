package services

import (
	"context"
	"fmt"
	"strings"

	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
)

// GenerateRelatedQueries produces exactly 3 follow-up questions for a query
// given its search results. Returned questions are normalized here (lower
// case, trailing question marks stripped); downstream consumers see only
// the normalized form.
func GenerateRelatedQueries(ctx context.Context, query string, results []models.SearchResult, model llm.LLM) ([]string, error) {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.String()
	}
	context := truncate(strings.Join(parts, "\n\n"), relatedContextLimit)

	var related models.RelatedQueries
	prompt := fmt.Sprintf(relatedQuestionPrompt, query, context)
	if err := model.StructuredComplete(ctx, prompt, &related); err != nil {
		return nil, err
	}

	normalized := make([]string, len(related.RelatedQueries))
	for i, q := range related.RelatedQueries {
		normalized[i] = strings.ReplaceAll(strings.ToLower(q), "?", "")
	}
	return normalized, nil
}
