package models

// StreamEvent tags one unit of the event stream wire contract.
type StreamEvent string

const (
	EventBeginStream        StreamEvent = "begin-stream"
	EventSearchResults      StreamEvent = "search-results"
	EventTextChunk          StreamEvent = "text-chunk"
	EventRelatedQueries     StreamEvent = "related-queries"
	EventFinalResponse      StreamEvent = "final-response"
	EventStreamEnd          StreamEvent = "stream-end"
	EventError              StreamEvent = "error"
	EventAgentQueryPlan     StreamEvent = "agent-query-plan"
	EventAgentSearchQueries StreamEvent = "agent-search-queries"
	EventAgentReadResults   StreamEvent = "agent-read-results"
	EventAgentFinish        StreamEvent = "agent-finish"
)

// ChatResponseEvent is one tagged unit of the stream. Data is the payload
// struct matching the tag; the transport serializes it as one frame.
type ChatResponseEvent struct {
	Event StreamEvent `json:"event"`
	Data  any         `json:"data"`
}

type BeginStream struct {
	Query string `json:"query"`
}

type SearchResultStream struct {
	Results []SearchResult `json:"results"`
	Images  []string       `json:"images"`
}

type TextChunkStream struct {
	Text string `json:"text"`
}

type RelatedQueriesStream struct {
	RelatedQueries []string `json:"related_queries"`
}

type FinalResponseStream struct {
	Message string `json:"message"`
}

type StreamEndStream struct {
	ThreadID *int `json:"thread_id"`
}

type ErrorStream struct {
	Detail string `json:"detail"`
}

type AgentQueryPlanStream struct {
	Steps []string `json:"steps"`
}

type AgentSearchQueriesStream struct {
	StepNumber int      `json:"step_number"`
	Queries    []string `json:"queries"`
}

type AgentReadResultsStream struct {
	StepNumber int            `json:"step_number"`
	Results    []SearchResult `json:"results"`
}

type AgentFinishStream struct{}
