package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
	"searchlight-backend/internal/services"
)

type ChatHandler struct {
	cfg  *config.Config
	chat *services.ChatService
}

func NewChatHandler(cfg *config.Config, chat *services.ChatService) *ChatHandler {
	return &ChatHandler{cfg: cfg, chat: chat}
}

// Stream answers a chat request over server-sent events. Validation happens
// before the stream starts so bad requests still get proper status codes;
// once streaming, failures arrive as "error" events.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Query is required", r))
		return
	}
	if err := llm.ValidateModel(h.cfg, req.Model); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}
	if req.ProSearch && !h.cfg.ProModeEnabled {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", services.ErrProModeDisabled.Error(), r))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming unsupported", r))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	emitted := false
	sink := func(event models.ChatResponseEvent) error {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, payload); err != nil {
			return err
		}
		flusher.Flush()
		emitted = true
		return nil
	}

	var err error
	if req.ProSearch {
		err = h.chat.ProSearch(r.Context(), req, sink)
	} else {
		err = h.chat.Answer(r.Context(), req, sink)
	}
	if err != nil {
		log.Printf("chat stream ended with error: %v", err)
		if !emitted {
			// Backend construction failed after validation passed; the
			// stream headers are already out, so report it in-band.
			sink(models.ChatResponseEvent{
				Event: models.EventError,
				Data:  models.ErrorStream{Detail: err.Error()},
			})
		}
	}
}
