package services

import (
	"context"
	"errors"
	"fmt"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
)

// SearchGateway is the slice of the search service the orchestrators use.
type SearchGateway interface {
	Search(ctx context.Context, query string) (models.SearchResponse, error)
}

// SaveTurnInput carries one completed question/answer turn to the store.
type SaveTurnInput struct {
	ThreadID         *int
	UserMessage      string
	AssistantMessage string
	Model            models.ChatModel
	SearchResults    []models.SearchResult
	Images           []string
	RelatedQueries   []string
	AgentResponse    *models.AgentSearchFullResponse
}

// ThreadStore persists completed turns. The thread is created lazily on the
// first turn; the returned id addresses the thread afterwards.
type ThreadStore interface {
	SaveTurn(ctx context.Context, in SaveTurnInput) (*int, error)
}

// BackendFactory maps a model identifier to a bound LLM backend, failing
// fast on unknown or misconfigured models. Returned backends are shared
// process-wide; the orchestrator never closes them.
type BackendFactory func(ctx context.Context, model models.ChatModel) (llm.LLM, error)

// EventSink receives each stream event, in order. It returns a non-nil
// error when the client is gone; the run stops without emitting further
// events.
type EventSink func(event models.ChatResponseEvent) error

// ChatService runs query-answering orchestrations. One instance serves all
// requests; per-run state lives on the stack of each call.
type ChatService struct {
	cfg      *config.Config
	search   SearchGateway
	store    ThreadStore
	backends BackendFactory
}

// NewChatService wires the orchestrator. store may be nil when persistence
// is disabled.
func NewChatService(cfg *config.Config, search SearchGateway, store ThreadStore, backends BackendFactory) *ChatService {
	return &ChatService{cfg: cfg, search: search, store: store, backends: backends}
}

// send polls for disconnection before every event; nothing is emitted once
// the context is done.
func (s *ChatService) send(ctx context.Context, emit EventSink, event models.ChatResponseEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return emit(event)
}

func isDisconnect(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Answer runs the single-pass pipeline: rephrase, search, answer stream,
// related queries, persist. Configuration errors (unknown model, missing
// credentials) return before any event is emitted. Any later failure is
// emitted as a single "error" event and also returned; disconnection stops
// the run silently.
func (s *ChatService) Answer(ctx context.Context, req models.ChatRequest, emit EventSink) error {
	model, err := s.backends(ctx, req.Model)
	if err != nil {
		return err
	}

	if err := s.answer(ctx, req, model, emit); err != nil {
		if isDisconnect(err) {
			return err
		}
		s.send(ctx, emit, models.ChatResponseEvent{
			Event: models.EventError,
			Data:  models.ErrorStream{Detail: err.Error()},
		})
		return err
	}
	return nil
}

func (s *ChatService) answer(ctx context.Context, req models.ChatRequest, model llm.LLM, emit EventSink) error {
	err := s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventBeginStream,
		Data:  models.BeginStream{Query: req.Query},
	})
	if err != nil {
		return err
	}

	query, err := RephraseWithHistory(ctx, req.Query, req.History, model)
	if err != nil {
		return err
	}

	response, err := s.search.Search(ctx, query)
	if err != nil {
		return err
	}

	// Start related-query generation early so its latency overlaps with the
	// answer stream. Local backends run it after the answer instead.
	var related *relatedTask
	if !req.Model.IsLocal() {
		related = s.startRelated(ctx, query, response.Results, model)
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventSearchResults,
		Data:  models.SearchResultStream{Results: response.Results, Images: response.Images},
	})
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(chatPrompt, buildCitationContext(response.Results, citationContextLimit), query)
	fullResponse, err := model.StreamComplete(ctx, prompt, func(delta string) error {
		return s.send(ctx, emit, models.ChatResponseEvent{
			Event: models.EventTextChunk,
			Data:  models.TextChunkStream{Text: delta},
		})
	})
	if err != nil {
		if isDisconnect(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if related == nil {
		related = s.startRelated(ctx, query, response.Results, model)
	}
	relatedQueries, err := related.await(ctx)
	if err != nil {
		return err
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventRelatedQueries,
		Data:  models.RelatedQueriesStream{RelatedQueries: relatedQueries},
	})
	if err != nil {
		return err
	}

	threadID, err := s.saveTurn(ctx, SaveTurnInput{
		ThreadID:         req.ThreadID,
		UserMessage:      req.Query,
		AssistantMessage: fullResponse,
		Model:            req.Model,
		SearchResults:    response.Results,
		Images:           response.Images,
		RelatedQueries:   relatedQueries,
	})
	if err != nil {
		return err
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventFinalResponse,
		Data:  models.FinalResponseStream{Message: fullResponse},
	})
	if err != nil {
		return err
	}

	return s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventStreamEnd,
		Data:  models.StreamEndStream{ThreadID: threadID},
	})
}

func (s *ChatService) saveTurn(ctx context.Context, in SaveTurnInput) (*int, error) {
	if s.store == nil {
		return nil, nil
	}
	threadID, err := s.store.SaveTurn(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to save turn: %w", err)
	}
	return threadID, nil
}

// relatedTask is the one background task a run may spawn. It is always
// awaited before the run ends so a failure propagates into the run's
// single error path.
type relatedTask struct {
	ch chan relatedOutcome
}

type relatedOutcome struct {
	queries []string
	err     error
}

func (s *ChatService) startRelated(ctx context.Context, query string, results []models.SearchResult, model llm.LLM) *relatedTask {
	task := &relatedTask{ch: make(chan relatedOutcome, 1)}
	go func() {
		queries, err := GenerateRelatedQueries(ctx, query, results, model)
		task.ch <- relatedOutcome{queries: queries, err: err}
	}()
	return task
}

func (t *relatedTask) await(ctx context.Context) ([]string, error) {
	select {
	case outcome := <-t.ch:
		return outcome.queries, outcome.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
