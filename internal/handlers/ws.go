package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/models"
	"searchlight-backend/internal/services"
)

// WSChatHandler serves the same orchestrations as the SSE endpoint over a
// websocket, for clients that cannot consume server-sent events. Each
// connection carries one request; the socket closes after the final event.
type WSChatHandler struct {
	cfg      *config.Config
	chat     *services.ChatService
	upgrader websocket.Upgrader
}

func NewWSChatHandler(cfg *config.Config, chat *services.ChatService) *WSChatHandler {
	return &WSChatHandler{
		cfg:  cfg,
		chat: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == cfg.FrontendURL
			},
		},
	}
}

func (h *WSChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var req models.ChatRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeErrorEvent(conn, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeErrorEvent(conn, "Query is required")
		return
	}
	if err := llm.ValidateModel(h.cfg, req.Model); err != nil {
		h.writeErrorEvent(conn, err.Error())
		return
	}
	if req.ProSearch && !h.cfg.ProModeEnabled {
		h.writeErrorEvent(conn, services.ErrProModeDisabled.Error())
		return
	}

	sink := func(event models.ChatResponseEvent) error {
		return conn.WriteJSON(event)
	}

	if req.ProSearch {
		err = h.chat.ProSearch(r.Context(), req, sink)
	} else {
		err = h.chat.Answer(r.Context(), req, sink)
	}
	if err != nil {
		log.Printf("websocket chat ended with error: %v", err)
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *WSChatHandler) writeErrorEvent(conn *websocket.Conn, detail string) {
	conn.WriteJSON(models.ChatResponseEvent{
		Event: models.EventError,
		Data:  models.ErrorStream{Detail: detail},
	})
}
