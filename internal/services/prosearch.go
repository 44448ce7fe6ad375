package services

import (
	"context"
	"fmt"
	"sync"

	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
)

const (
	// terminalResultCap bounds how many results feed the synthesis prompt,
	// split evenly across the terminal step's dependencies.
	terminalResultCap = 12
	// imagesPerDependency bounds how many images each dependency contributes
	// to the final response.
	imagesPerDependency = 2
)

// proSearchState accumulates per-step outputs across a pro-search run.
// Later steps read earlier steps' entries; nothing outlives the run.
type proSearchState struct {
	contexts map[int]models.StepContext
	results  map[int][]models.SearchResult
	images   map[int][]string
	details  []models.AgentSearchStep
}

func newProSearchState() *proSearchState {
	return &proSearchState{
		contexts: make(map[int]models.StepContext),
		results:  make(map[int][]models.SearchResult),
		images:   make(map[int][]string),
	}
}

// ProSearch runs the multi-step research pipeline: plan generation, per-step
// search execution respecting dependencies, then a synthesis step that
// streams the answer exactly like Answer does. Configuration errors return
// before any event; later failures become a single "error" event.
func (s *ChatService) ProSearch(ctx context.Context, req models.ChatRequest, emit EventSink) error {
	if !s.cfg.ProModeEnabled {
		return ErrProModeDisabled
	}
	model, err := s.backends(ctx, req.Model)
	if err != nil {
		return err
	}

	if err := s.proSearch(ctx, req, model, emit); err != nil {
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

func (s *ChatService) proSearch(ctx context.Context, req models.ChatRequest, model llm.LLM, emit EventSink) error {
	query, err := RephraseWithHistory(ctx, req.Query, req.History, model)
	if err != nil {
		return err
	}

	plan, err := generatePlan(ctx, query, model)
	if err != nil {
		return err
	}

	descriptions := make([]string, len(plan.Steps))
	for i, step := range plan.Steps {
		descriptions[i] = step.Step
	}
	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventAgentQueryPlan,
		Data:  models.AgentQueryPlanStream{Steps: descriptions},
	})
	if err != nil {
		return err
	}

	state := newProSearchState()
	for i, step := range plan.Steps {
		if i == len(plan.Steps)-1 {
			// The terminal step ends the run; nothing after it executes.
			return s.finishProSearch(ctx, req, model, emit, query, step, descriptions, state)
		}
		if err := s.executeSearchStep(ctx, model, emit, query, step, state); err != nil {
			return err
		}
	}
	return nil
}

// generatePlan requests a structured QueryPlan. Schema or dependency-order
// violations surface as plan validation errors.
func generatePlan(ctx context.Context, query string, model llm.LLM) (models.QueryPlan, error) {
	var plan models.QueryPlan
	if err := model.StructuredComplete(ctx, fmt.Sprintf(queryPlanPrompt, query), &plan); err != nil {
		if isDisconnect(err) {
			return models.QueryPlan{}, err
		}
		return models.QueryPlan{}, fmt.Errorf("%w: %v", ErrPlanValidation, err)
	}
	return plan, nil
}

// executeSearchStep runs one non-terminal plan step: generate its search
// queries from the dependency contexts, fan the searches out concurrently,
// then merge and record the results as this step's context.
func (s *ChatService) executeSearchStep(ctx context.Context, model llm.LLM, emit EventSink, query string, step models.QueryPlanStep, state *proSearchState) error {
	dependencyContexts := make([]models.StepContext, 0, len(step.Dependencies))
	for _, dep := range step.Dependencies {
		dependencyContexts = append(dependencyContexts, state.contexts[dep])
	}

	var execution models.QueryStepExecution
	prompt := fmt.Sprintf(searchQueryPrompt, query, step.Step, formatStepContexts(dependencyContexts))
	if err := model.StructuredComplete(ctx, prompt, &execution); err != nil {
		if isDisconnect(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrQueryGeneration, err)
	}

	err := s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventAgentSearchQueries,
		Data:  models.AgentSearchQueriesStream{StepNumber: step.ID, Queries: execution.SearchQueries},
	})
	if err != nil {
		return err
	}

	results, images, err := s.fanOutSearches(ctx, execution.SearchQueries)
	if err != nil {
		return err
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventAgentReadResults,
		Data:  models.AgentReadResultsStream{StepNumber: step.ID, Results: results},
	})
	if err != nil {
		return err
	}

	state.results[step.ID] = results
	state.images[step.ID] = images
	state.contexts[step.ID] = models.StepContext{
		Step:    step.Step,
		Context: buildStepResultContext(results),
	}
	state.details = append(state.details, models.AgentSearchStep{
		StepNumber: step.ID,
		Step:       step.Step,
		Queries:    execution.SearchQueries,
		Results:    results,
		Status:     models.StepStatusDone,
	})
	return nil
}

// fanOutSearches issues all of a step's queries concurrently and joins them.
// Result lists are interleaved round-robin before url de-duplication so no
// single query dominates the ranking.
func (s *ChatService) fanOutSearches(ctx context.Context, queries []string) ([]models.SearchResult, []string, error) {
	responses := make([]models.SearchResponse, len(queries))
	errs := make([]error, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			responses[i], errs[i] = s.search.Search(ctx, q)
		}(i, q)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	resultLists := make([][]models.SearchResult, len(responses))
	imageLists := make([][]string, len(responses))
	for i, resp := range responses {
		resultLists[i] = resp.Results
		imageLists[i] = resp.Images
	}
	results := dedupeResults(interleaveResults(resultLists))
	images := dedupeStrings(interleaveStrings(imageLists))
	return results, images, nil
}

// terminalQuota splits the synthesis result cap evenly across dependencies.
// When fewer results are available than the even split, the smaller share is
// used. dependencyCount must be positive.
func terminalQuota(dependencyCount, totalAvailable int) int {
	quota := terminalResultCap / dependencyCount
	if available := totalAvailable / dependencyCount; available < quota {
		quota = available
	}
	return quota
}

// finishProSearch executes the terminal synthesis step: draw a balanced
// sample of the dependency results, then stream the answer from the
// concatenation of every completed step's context.
func (s *ChatService) finishProSearch(ctx context.Context, req models.ChatRequest, model llm.LLM, emit EventSink, query string, step models.QueryPlanStep, descriptions []string, state *proSearchState) error {
	if len(step.Dependencies) == 0 {
		return fmt.Errorf("%w: terminal step %d has no dependencies", ErrPlanValidation, step.ID)
	}

	totalAvailable := 0
	for _, dep := range step.Dependencies {
		totalAvailable += len(state.results[dep])
	}
	quota := terminalQuota(len(step.Dependencies), totalAvailable)

	var results []models.SearchResult
	var images []string
	for _, dep := range step.Dependencies {
		depResults := state.results[dep]
		if len(depResults) > quota {
			depResults = depResults[:quota]
		}
		results = append(results, depResults...)

		depImages := state.images[dep]
		if len(depImages) > imagesPerDependency {
			depImages = depImages[:imagesPerDependency]
		}
		images = append(images, depImages...)
	}
	results = dedupeResults(results)

	err := s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventAgentFinish,
		Data:  models.AgentFinishStream{},
	})
	if err != nil {
		return err
	}
	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventBeginStream,
		Data:  models.BeginStream{Query: query},
	})
	if err != nil {
		return err
	}

	var related *relatedTask
	if !req.Model.IsLocal() {
		related = s.startRelated(ctx, query, results, model)
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventSearchResults,
		Data:  models.SearchResultStream{Results: results, Images: images},
	})
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf(chatPrompt, formatContextWithSteps(state.contexts), query)
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
		related = s.startRelated(ctx, query, results, model)
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

	state.details = append(state.details, models.AgentSearchStep{
		StepNumber: step.ID,
		Step:       step.Step,
		Status:     models.StepStatusDone,
	})
	agentResponse := &models.AgentSearchFullResponse{
		Steps:        descriptions,
		StepsDetails: state.details,
	}

	err = s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventFinalResponse,
		Data:  models.FinalResponseStream{Message: fullResponse},
	})
	if err != nil {
		return err
	}

	// The answer is already delivered at this point; a persistence failure
	// only costs the thread id.
	threadID, err := s.saveTurn(ctx, SaveTurnInput{
		ThreadID:         req.ThreadID,
		UserMessage:      req.Query,
		AssistantMessage: fullResponse,
		Model:            req.Model,
		SearchResults:    results,
		Images:           images,
		RelatedQueries:   relatedQueries,
		AgentResponse:    agentResponse,
	})
	if err != nil {
		return err
	}

	return s.send(ctx, emit, models.ChatResponseEvent{
		Event: models.EventStreamEnd,
		Data:  models.StreamEndStream{ThreadID: threadID},
	})
}
