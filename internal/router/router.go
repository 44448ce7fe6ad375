package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"searchlight-backend/internal/handlers"
	"searchlight-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	wsChatHandler *handlers.WSChatHandler,
	historyHandler *handlers.HistoryHandler,
	jwtAuth *middleware.JWTAuth,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Chat rate limiter (30 req/min per IP)
	chatLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if jwtAuth != nil {
			r.Use(jwtAuth.Middleware)
		}

		r.Group(func(r chi.Router) {
			r.Use(chatLimiter.Middleware)
			r.Post("/chat", chatHandler.Stream)
			r.Get("/ws/chat", wsChatHandler.Chat)
		})

		r.Get("/history", historyHandler.GetHistory)
		r.Get("/threads/{id}", historyHandler.GetThread)
	})

	return r
}
