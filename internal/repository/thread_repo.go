package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"searchlight-backend/internal/models"
	"searchlight-backend/internal/services"
)

// ErrThreadNotFound is returned when a thread id resolves to nothing.
var ErrThreadNotFound = errors.New("thread not found")

// citationPattern matches inline [n] citation markers in answer text.
var citationPattern = regexp.MustCompile(`\[\d+\]`)

type ThreadRepo struct {
	pool *pgxpool.Pool
}

func NewThreadRepo(pool *pgxpool.Pool) *ThreadRepo {
	return &ThreadRepo{pool: pool}
}

// SaveTurn stores one question/answer turn atomically. A nil thread id
// creates a new thread; the assistant message is linked to the user message
// it answers through parent_message_id.
func (r *ThreadRepo) SaveTurn(ctx context.Context, in services.SaveTurnInput) (*int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	threadID := 0
	if in.ThreadID != nil {
		threadID = *in.ThreadID
	} else {
		err = tx.QueryRow(ctx,
			"INSERT INTO chat_thread (model_name) VALUES ($1) RETURNING id",
			string(in.Model),
		).Scan(&threadID)
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
	}

	var userMessageID int
	err = tx.QueryRow(ctx,
		"INSERT INTO chat_message (thread_id, role, content) VALUES ($1, $2, $3) RETURNING id",
		threadID, string(models.RoleUser), in.UserMessage,
	).Scan(&userMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	var agentBytes []byte
	if in.AgentResponse != nil {
		agentBytes, err = json.Marshal(in.AgentResponse)
		if err != nil {
			return nil, fmt.Errorf("failed to encode agent response: %w", err)
		}
	}

	var assistantMessageID int
	err = tx.QueryRow(ctx,
		`INSERT INTO chat_message (thread_id, role, content, parent_message_id, related_queries, images, agent_search_full_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		threadID, string(models.RoleAssistant), in.AssistantMessage, userMessageID,
		in.RelatedQueries, in.Images, agentBytes,
	).Scan(&assistantMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	for _, result := range in.SearchResults {
		_, err = tx.Exec(ctx,
			"INSERT INTO search_result (chat_message_id, title, url, content) VALUES ($1, $2, $3, $4)",
			assistantMessageID, result.Title, result.URL, result.Content,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save search result: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit turn: %w", err)
	}
	return &threadID, nil
}

// GetChatHistory lists threads newest first. Each snapshot carries the
// thread's first question as title and its first answer, with inline
// citation markers stripped, as preview.
func (r *ThreadRepo) GetChatHistory(ctx context.Context) ([]models.ChatSnapshot, error) {
	query := `SELECT t.id, t.time_created, t.model_name, first_user.content, first_assistant.content
		FROM chat_thread t
		JOIN LATERAL (
			SELECT content FROM chat_message
			WHERE thread_id = t.id AND role = 'user'
			ORDER BY id ASC LIMIT 1
		) first_user ON TRUE
		JOIN LATERAL (
			SELECT content FROM chat_message
			WHERE thread_id = t.id AND role = 'assistant'
			ORDER BY id ASC LIMIT 1
		) first_assistant ON TRUE
		ORDER BY t.time_created DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []models.ChatSnapshot
	for rows.Next() {
		s := models.ChatSnapshot{}
		var preview string
		if err := rows.Scan(&s.ID, &s.Date, &s.ModelName, &s.Title, &preview); err != nil {
			return nil, err
		}
		s.Preview = strings.TrimSpace(citationPattern.ReplaceAllString(preview, ""))
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// GetThread returns a thread's messages oldest first, with each assistant
// message's sources attached.
func (r *ThreadRepo) GetThread(ctx context.Context, threadID int) (*models.ThreadResponse, error) {
	query := `SELECT id, role, content, related_queries, images, agent_search_full_response
		FROM chat_message WHERE thread_id = $1 ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messageIDs []int
	indexByID := make(map[int]int)
	var messages []models.ChatMessage
	for rows.Next() {
		var id int
		var agentBytes []byte
		m := models.ChatMessage{}
		if err := rows.Scan(&id, &m.Role, &m.Content, &m.RelatedQueries, &m.Images, &agentBytes); err != nil {
			return nil, err
		}
		if len(agentBytes) > 0 {
			m.AgentResponse = &models.AgentSearchFullResponse{}
			if err := json.Unmarshal(agentBytes, m.AgentResponse); err != nil {
				return nil, fmt.Errorf("failed to decode agent response: %w", err)
			}
		}
		indexByID[id] = len(messages)
		messages = append(messages, m)
		messageIDs = append(messageIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrThreadNotFound
	}

	resultRows, err := r.pool.Query(ctx,
		"SELECT chat_message_id, title, url, content FROM search_result WHERE chat_message_id = ANY($1) ORDER BY id ASC",
		messageIDs,
	)
	if err != nil {
		return nil, err
	}
	defer resultRows.Close()

	for resultRows.Next() {
		var messageID int
		result := models.SearchResult{}
		if err := resultRows.Scan(&messageID, &result.Title, &result.URL, &result.Content); err != nil {
			return nil, err
		}
		idx := indexByID[messageID]
		messages[idx].Sources = append(messages[idx].Sources, result)
	}
	if err := resultRows.Err(); err != nil {
		return nil, err
	}

	return &models.ThreadResponse{ThreadID: threadID, Messages: messages}, nil
}
