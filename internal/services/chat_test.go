package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
)

type fakeLLM struct {
	completeFn    func(prompt string) (string, error)
	chunks        []string
	streamErr     error
	structuredFn  func(prompt string, out any) error
	completeCalls int
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.completeCalls++
	if f.completeFn != nil {
		return f.completeFn(prompt)
	}
	return "", errors.New("unexpected Complete call")
}

func (f *fakeLLM) StreamComplete(ctx context.Context, prompt string, onDelta func(string) error) (string, error) {
	if f.streamErr != nil {
		return "", f.streamErr
	}
	var full strings.Builder
	for _, chunk := range f.chunks {
		if err := onDelta(chunk); err != nil {
			return "", err
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

func (f *fakeLLM) StructuredComplete(ctx context.Context, prompt string, out any) error {
	if f.structuredFn != nil {
		return f.structuredFn(prompt, out)
	}
	if related, ok := out.(*models.RelatedQueries); ok {
		related.RelatedQueries = []string{"What about A?", "What about B?", "what about c"}
		return nil
	}
	return fmt.Errorf("unexpected structured call for %T", out)
}

type fakeSearch struct {
	responses map[string]models.SearchResponse
	err       error

	mu      sync.Mutex
	queries []string
}

func (f *fakeSearch) Search(ctx context.Context, query string) (models.SearchResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return models.SearchResponse{}, f.err
	}
	if resp, ok := f.responses[query]; ok {
		return resp, nil
	}
	return models.SearchResponse{
		Results: []models.SearchResult{
			{Title: "Result", URL: "https://example.com/" + query, Content: "summary"},
		},
	}, nil
}

type fakeStore struct {
	saved    []SaveTurnInput
	threadID int
	err      error
}

func (f *fakeStore) SaveTurn(ctx context.Context, in SaveTurnInput) (*int, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, in)
	id := f.threadID
	return &id, nil
}

// eventRecorder collects emitted events in order.
type eventRecorder struct {
	events []models.ChatResponseEvent
	onEach func(models.ChatResponseEvent)
}

func (r *eventRecorder) sink(event models.ChatResponseEvent) error {
	r.events = append(r.events, event)
	if r.onEach != nil {
		r.onEach(event)
	}
	return nil
}

func (r *eventRecorder) sequence() []models.StreamEvent {
	tags := make([]models.StreamEvent, len(r.events))
	for i, e := range r.events {
		tags[i] = e.Event
	}
	return tags
}

func fixedBackend(model llm.LLM, err error) BackendFactory {
	return func(ctx context.Context, m models.ChatModel) (llm.LLM, error) {
		return model, err
	}
}

func newTestService(search SearchGateway, store ThreadStore, model llm.LLM) *ChatService {
	cfg := &config.Config{ProModeEnabled: true}
	return NewChatService(cfg, search, store, fixedBackend(model, nil))
}

func assertSequence(t *testing.T, got, want []models.StreamEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events %v, got %d events %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAnswerEventOrder(t *testing.T) {
	model := &fakeLLM{chunks: []string{"Hello ", "world"}}
	search := &fakeSearch{}
	store := &fakeStore{threadID: 42}
	svc := newTestService(search, store, model)
	recorder := &eventRecorder{}

	err := svc.Answer(context.Background(), models.ChatRequest{Query: "what is go", Model: models.ModelGPT4o}, recorder.sink)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	assertSequence(t, recorder.sequence(), []models.StreamEvent{
		models.EventBeginStream,
		models.EventSearchResults,
		models.EventTextChunk,
		models.EventTextChunk,
		models.EventRelatedQueries,
		models.EventFinalResponse,
		models.EventStreamEnd,
	})

	if model.completeCalls != 0 {
		t.Errorf("expected no rephrase call for empty history, got %d", model.completeCalls)
	}

	final := recorder.events[5].Data.(models.FinalResponseStream)
	if final.Message != "Hello world" {
		t.Errorf("expected accumulated answer %q, got %q", "Hello world", final.Message)
	}

	related := recorder.events[4].Data.(models.RelatedQueriesStream)
	want := []string{"what about a", "what about b", "what about c"}
	for i, q := range related.RelatedQueries {
		if q != want[i] {
			t.Errorf("related query %d: expected %q, got %q", i, want[i], q)
		}
	}

	end := recorder.events[6].Data.(models.StreamEndStream)
	if end.ThreadID == nil || *end.ThreadID != 42 {
		t.Errorf("expected thread id 42 in stream end, got %v", end.ThreadID)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one saved turn, got %d", len(store.saved))
	}
	if store.saved[0].AssistantMessage != "Hello world" {
		t.Errorf("saved wrong assistant message: %q", store.saved[0].AssistantMessage)
	}
}

func TestAnswerRephrasesWithHistory(t *testing.T) {
	model := &fakeLLM{
		chunks:     []string{"ok"},
		completeFn: func(prompt string) (string, error) { return `"go generics"`, nil },
	}
	search := &fakeSearch{}
	svc := newTestService(search, nil, model)
	recorder := &eventRecorder{}

	req := models.ChatRequest{
		Query:   "what about generics",
		History: []models.Message{{Role: models.RoleUser, Content: "tell me about go"}},
		Model:   models.ModelGPT4o,
	}
	if err := svc.Answer(context.Background(), req, recorder.sink); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if model.completeCalls != 1 {
		t.Fatalf("expected one rephrase call, got %d", model.completeCalls)
	}
	if len(search.queries) != 1 || search.queries[0] != "go generics" {
		t.Errorf("expected search for rephrased query without quotes, got %v", search.queries)
	}

	end := recorder.events[len(recorder.events)-1].Data.(models.StreamEndStream)
	if end.ThreadID != nil {
		t.Errorf("expected nil thread id without a store, got %v", end.ThreadID)
	}
}

func TestAnswerUnknownModelEmitsNothing(t *testing.T) {
	cfg := &config.Config{}
	svc := NewChatService(cfg, &fakeSearch{}, nil, fixedBackend(nil, errors.New(`invalid model "bogus"`)))
	recorder := &eventRecorder{}

	err := svc.Answer(context.Background(), models.ChatRequest{Query: "q", Model: "bogus"}, recorder.sink)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if len(recorder.events) != 0 {
		t.Errorf("expected no events before configuration validation, got %v", recorder.sequence())
	}
}

func TestAnswerSearchFailureEmitsSingleErrorEvent(t *testing.T) {
	model := &fakeLLM{chunks: []string{"never"}}
	searchErr := errors.New("there was an error while searching")
	svc := newTestService(&fakeSearch{err: searchErr}, nil, model)
	recorder := &eventRecorder{}

	err := svc.Answer(context.Background(), models.ChatRequest{Query: "q", Model: models.ModelGPT4o}, recorder.sink)
	if !errors.Is(err, searchErr) {
		t.Fatalf("expected search error, got %v", err)
	}

	assertSequence(t, recorder.sequence(), []models.StreamEvent{
		models.EventBeginStream,
		models.EventError,
	})
	detail := recorder.events[1].Data.(models.ErrorStream).Detail
	if detail != searchErr.Error() {
		t.Errorf("expected error detail %q, got %q", searchErr.Error(), detail)
	}
}

func TestAnswerStreamFailureBecomesModelUnavailable(t *testing.T) {
	model := &fakeLLM{streamErr: errors.New("upstream 500")}
	svc := newTestService(&fakeSearch{}, nil, model)
	recorder := &eventRecorder{}

	err := svc.Answer(context.Background(), models.ChatRequest{Query: "q", Model: models.ModelGPT4o}, recorder.sink)
	if !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	last := recorder.events[len(recorder.events)-1]
	if last.Event != models.EventError {
		t.Errorf("expected trailing error event, got %q", last.Event)
	}
}

func TestAnswerRelatedFailurePropagates(t *testing.T) {
	model := &fakeLLM{
		chunks: []string{"answer"},
		structuredFn: func(prompt string, out any) error {
			return errors.New("structured output mismatch: expected exactly 3 related queries, got 2")
		},
	}
	svc := newTestService(&fakeSearch{}, nil, model)
	recorder := &eventRecorder{}

	err := svc.Answer(context.Background(), models.ChatRequest{Query: "q", Model: models.ModelGPT4o}, recorder.sink)
	if err == nil {
		t.Fatal("expected related-query failure to fail the run")
	}
	for _, e := range recorder.events {
		if e.Event == models.EventRelatedQueries {
			t.Error("run emitted related-queries despite generation failure")
		}
	}
	last := recorder.events[len(recorder.events)-1]
	if last.Event != models.EventError {
		t.Errorf("expected trailing error event, got %q", last.Event)
	}
}

func TestAnswerStopsSilentlyOnDisconnect(t *testing.T) {
	model := &fakeLLM{chunks: []string{"a", "b", "c"}}
	svc := newTestService(&fakeSearch{}, nil, model)

	ctx, cancel := context.WithCancel(context.Background())
	recorder := &eventRecorder{}
	recorder.onEach = func(event models.ChatResponseEvent) {
		if event.Event == models.EventTextChunk {
			cancel()
		}
	}

	err := svc.Answer(ctx, models.ChatRequest{Query: "q", Model: models.ModelGPT4o}, recorder.sink)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, e := range recorder.events {
		if e.Event == models.EventError {
			t.Error("disconnection must not produce an error event")
		}
	}
	last := recorder.events[len(recorder.events)-1]
	if last.Event != models.EventTextChunk {
		t.Errorf("expected run to stop at the first chunk after cancel, last event was %q", last.Event)
	}
}

func TestAnswerDefersRelatedForLocalModels(t *testing.T) {
	// With a local model the related-query call must start only after the
	// answer stream is fully consumed.
	recorder := &eventRecorder{}
	chunksAtStructuredCall := -1
	model := &fakeLLM{chunks: []string{"x", "y"}}
	model.structuredFn = func(prompt string, out any) error {
		count := 0
		for _, e := range recorder.events {
			if e.Event == models.EventTextChunk {
				count++
			}
		}
		chunksAtStructuredCall = count
		related := out.(*models.RelatedQueries)
		related.RelatedQueries = []string{"a", "b", "c"}
		return nil
	}

	svc := newTestService(&fakeSearch{}, nil, model)
	err := svc.Answer(context.Background(), models.ChatRequest{Query: "q", Model: models.ModelLocalLlama3}, recorder.sink)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if chunksAtStructuredCall != len(model.chunks) {
		t.Errorf("related-query generation started after %d of %d chunks", chunksAtStructuredCall, len(model.chunks))
	}
}
