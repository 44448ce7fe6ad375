package models

import "fmt"

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single message in the conversation history. Immutable once
// part of a request's history.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ChatModel selects a language-model backend. The set is closed; anything
// else is a configuration error.
type ChatModel string

const (
	ModelGPT4o       ChatModel = "gpt-4o"
	ModelGPT35Turbo  ChatModel = "gpt-3.5-turbo"
	ModelLlama370B   ChatModel = "llama-3-70b"
	ModelGeminiFlash ChatModel = "gemini-flash"
	ModelLocalLlama3 ChatModel = "llama3"
	ModelLocalGemma  ChatModel = "gemma"
)

// IsLocal reports whether the model runs on a local Ollama instance. Local
// backends are assumed to lack spare concurrent capacity, so orchestrators
// defer background work for them.
func (m ChatModel) IsLocal() bool {
	return m == ModelLocalLlama3 || m == ModelLocalGemma
}

// ChatRequest is the read-only input to one orchestration run.
// History is ordered oldest to newest.
type ChatRequest struct {
	Query     string    `json:"query"`
	History   []Message `json:"history"`
	Model     ChatModel `json:"model"`
	ProSearch bool      `json:"pro_search"`
	ThreadID  *int      `json:"thread_id"`
}

// SearchResult is one ranked link from a search provider. Identity key is
// the URL; results are deduplicated by it.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// String renders the result the way answer prompts expect it.
func (r SearchResult) String() string {
	return fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s", r.Title, r.URL, r.Content)
}

// SearchResponse is the uniform result shape every provider adapts into.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Images  []string       `json:"images"`
}
