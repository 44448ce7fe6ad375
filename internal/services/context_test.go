package services

import (
	"strings"
	"testing"

	"searchlight-backend/internal/models"
)

func result(title, url string) models.SearchResult {
	return models.SearchResult{Title: title, URL: url, Content: "body of " + title}
}

func TestBuildCitationContextNumbersResults(t *testing.T) {
	results := []models.SearchResult{result("First", "https://a"), result("Second", "https://b")}
	got := buildCitationContext(results, citationContextLimit)

	if !strings.Contains(got, "Citation 1. Title: First") {
		t.Errorf("missing first citation block:\n%s", got)
	}
	if !strings.Contains(got, "Citation 2. Title: Second") {
		t.Errorf("missing second citation block:\n%s", got)
	}
}

func TestBuildCitationContextNeverSplitsBlocks(t *testing.T) {
	results := []models.SearchResult{
		result("First", "https://a"),
		result("Second", "https://b"),
		result("Third", "https://c"),
	}
	first := "Citation 1. " + results[0].String()

	// A limit that fits the first block but not the second must drop the
	// second block entirely rather than truncate it mid-text.
	got := buildCitationContext(results, len(first)+10)
	if got != first {
		t.Errorf("expected only the first whole block, got:\n%s", got)
	}

	// A first block longer than the limit is cut, never dropped, so the
	// output respects the cap while citation 1 keeps content.
	got = buildCitationContext(results, 5)
	if got != first[:5] {
		t.Errorf("expected the first block cut to the limit, got:\n%s", got)
	}
}

func TestBuildCitationContextRespectsLimit(t *testing.T) {
	results := []models.SearchResult{
		result("First", "https://a"),
		result("Second", "https://b"),
		result("Third", "https://c"),
	}
	for _, limit := range []int{3, 40, 90, 200, 100000} {
		if got := buildCitationContext(results, limit); len(got) > limit {
			t.Errorf("limit %d: output is %d bytes", limit, len(got))
		}
	}
}

func TestInterleaveResults(t *testing.T) {
	lists := [][]models.SearchResult{
		{result("a1", "https://a1"), result("a2", "https://a2")},
		{result("b1", "https://b1")},
		{result("c1", "https://c1"), result("c2", "https://c2"), result("c3", "https://c3")},
	}
	got := interleaveResults(lists)
	want := []string{"https://a1", "https://b1", "https://c1", "https://a2", "https://c2", "https://c3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].URL != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i].URL)
		}
	}
}

func TestDedupeResultsIdempotent(t *testing.T) {
	results := []models.SearchResult{
		result("a", "https://a"),
		result("b", "https://b"),
		result("a again", "https://a"),
	}
	once := dedupeResults(results)
	if len(once) != 2 {
		t.Fatalf("expected 2 results after dedupe, got %d", len(once))
	}
	if once[0].URL != "https://a" || once[1].URL != "https://b" {
		t.Errorf("dedupe did not preserve first-seen order: %v", once)
	}
	if once[0].Title != "a" {
		t.Errorf("dedupe kept the wrong duplicate: %q", once[0].Title)
	}

	twice := dedupeResults(once)
	if len(twice) != len(once) {
		t.Errorf("dedupe is not idempotent: %d then %d", len(once), len(twice))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("expected hard cut, got %q", got)
	}
}

func TestFormatContextWithStepsOrdersByID(t *testing.T) {
	contexts := map[int]models.StepContext{
		2: {Step: "later", Context: "ctx2"},
		0: {Step: "earlier", Context: "ctx0"},
	}
	got := formatContextWithSteps(contexts)
	if strings.Index(got, "earlier") > strings.Index(got, "later") {
		t.Errorf("contexts not ordered by step id:\n%s", got)
	}
	if !strings.Contains(got, strings.Repeat("-", 20)) {
		t.Errorf("missing separator between step contexts:\n%s", got)
	}
}
