package models

import "time"

// ChatMessage is a persisted message returned by the thread API.
type ChatMessage struct {
	Role           MessageRole              `json:"role"`
	Content        string                   `json:"content"`
	RelatedQueries []string                 `json:"related_queries"`
	Sources        []SearchResult           `json:"sources"`
	Images         []string                 `json:"images"`
	AgentResponse  *AgentSearchFullResponse `json:"agent_response,omitempty"`
}

// ChatSnapshot is one row of the history listing: the thread's first
// question as title and its first answer (citations stripped) as preview.
type ChatSnapshot struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Preview   string    `json:"preview"`
	Date      time.Time `json:"date"`
	ModelName string    `json:"model_name"`
}

// ThreadResponse is the full message list of one persisted thread.
type ThreadResponse struct {
	ThreadID int           `json:"thread_id"`
	Messages []ChatMessage `json:"messages"`
}
