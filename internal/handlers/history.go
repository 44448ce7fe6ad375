package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"searchlight-backend/internal/models"
	"searchlight-backend/internal/repository"
)

type HistoryHandler struct {
	threads *repository.ThreadRepo
}

// NewHistoryHandler takes a nil repo when persistence is disabled; the
// endpoints then report history as unavailable.
func NewHistoryHandler(threads *repository.ThreadRepo) *HistoryHandler {
	return &HistoryHandler{threads: threads}
}

func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.threads == nil {
		writeJSON(w, http.StatusNotFound, errorResp("HISTORY_DISABLED", "Chat history is not enabled", r))
		return
	}

	snapshots, err := h.threads.GetChatHistory(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load chat history", r))
		return
	}
	if snapshots == nil {
		snapshots = []models.ChatSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snapshots": snapshots})
}

func (h *HistoryHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	if h.threads == nil {
		writeJSON(w, http.StatusNotFound, errorResp("HISTORY_DISABLED", "Chat history is not enabled", r))
		return
	}

	threadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid thread ID", r))
		return
	}

	thread, err := h.threads.GetThread(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, repository.ErrThreadNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Thread not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load thread", r))
		return
	}
	writeJSON(w, http.StatusOK, thread)
}
