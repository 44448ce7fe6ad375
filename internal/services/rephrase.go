package services

import (
	"context"
	"fmt"
	"strings"

	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
)

// RephraseWithHistory collapses the conversation history and the new
// question into one standalone search query. With empty history the
// question is returned unchanged and no model call is made.
func RephraseWithHistory(ctx context.Context, question string, history []models.Message, model llm.LLM) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	lines := make([]string, len(history))
	for i, msg := range history {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	prompt := fmt.Sprintf(historyQueryRephrase, strings.Join(lines, "\n"), question)

	rephrased, err := model.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return strings.ReplaceAll(strings.TrimSpace(rephrased), `"`, ""), nil
}
