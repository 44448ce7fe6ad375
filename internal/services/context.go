package services

import (
	"fmt"
	"sort"
	"strings"

	"searchlight-backend/internal/models"
)

// Context size caps, in characters.
const (
	citationContextLimit  = 10000
	relatedContextLimit   = 4000
	stepContextLimit      = 7000
	synthesisContextLimit = 10000
)

// buildCitationContext numbers each result for inline citation. The cap is
// applied per whole result block, so citation index i always refers to the
// i-th input result; the output never exceeds limit.
func buildCitationContext(results []models.SearchResult, limit int) string {
	var b strings.Builder
	for i, result := range results {
		block := fmt.Sprintf("Citation %d. %s", i+1, result)
		if i == 0 {
			// An oversized first result is cut rather than dropped so
			// citation 1 always has content.
			b.WriteString(truncate(block, limit))
			continue
		}
		if b.Len()+len(block)+2 > limit {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(block)
	}
	return b.String()
}

// truncate cuts s at limit without worrying about block boundaries; used for
// step contexts where citation alignment does not apply.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// interleaveResults merges per-query result lists round-robin so that no
// single query's results dominate ranking.
func interleaveResults(lists [][]models.SearchResult) []models.SearchResult {
	var merged []models.SearchResult
	for i := 0; ; i++ {
		found := false
		for _, list := range lists {
			if i < len(list) {
				merged = append(merged, list[i])
				found = true
			}
		}
		if !found {
			return merged
		}
	}
}

// interleaveStrings merges per-query image lists round-robin, matching the
// ordering policy of interleaveResults.
func interleaveStrings(lists [][]string) []string {
	var merged []string
	for i := 0; ; i++ {
		found := false
		for _, list := range lists {
			if i < len(list) {
				merged = append(merged, list[i])
				found = true
			}
		}
		if !found {
			return merged
		}
	}
}

// dedupeResults removes results whose url was already seen, preserving
// first-seen order. Idempotent.
func dedupeResults(results []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		deduped = append(deduped, r)
	}
	return deduped
}

// dedupeStrings removes duplicate entries, preserving first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	deduped := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		deduped = append(deduped, v)
	}
	return deduped
}

// buildStepResultContext renders one step's search results as its stored
// StepContext text.
func buildStepResultContext(results []models.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.String()
	}
	return truncate(strings.Join(parts, "\n"), stepContextLimit)
}

// formatStepContexts renders dependency contexts for a step-execution
// prompt.
func formatStepContexts(contexts []models.StepContext) string {
	parts := make([]string, len(contexts))
	for i, sc := range contexts {
		parts[i] = fmt.Sprintf("Step: %s\nContext: %s", sc.Step, sc.Context)
	}
	return strings.Join(parts, "\n")
}

// formatContextWithSteps concatenates every completed step's context in
// step-id order for the synthesis prompt.
func formatContextWithSteps(stepContexts map[int]models.StepContext) string {
	ids := make([]int, 0, len(stepContexts))
	for id := range stepContexts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, id := range ids {
		sc := stepContexts[id]
		fmt.Fprintf(&b, "Everything below is context for step: %s\nContext: %s\n%s\n", sc.Step, sc.Context, strings.Repeat("-", 20))
	}
	return truncate(b.String(), synthesisContextLimit)
}
