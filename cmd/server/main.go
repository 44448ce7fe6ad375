package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"searchlight-backend/internal/config"
	"searchlight-backend/internal/database"
	"searchlight-backend/internal/handlers"
	"searchlight-backend/internal/llm"
	"searchlight-backend/internal/middleware"
	"searchlight-backend/internal/repository"
	"searchlight-backend/internal/router"
	"searchlight-backend/internal/search"
	"searchlight-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting Searchlight Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL (optional) ────
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")
	} else {
		log.Println("- DATABASE_URL not set, chat history disabled")
	}

	// ──── Step 3: Initialize Redis Search Cache (optional) ────
	var cache *redis.Client
	if cfg.RedisURL != "" {
		var err error
		cache, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer cache.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("- REDIS_URL not set, search cache disabled")
	}

	// ──── Step 4: Initialize Search Provider ────
	provider, err := search.NewProviderFromConfig(cfg)
	if err != nil {
		log.Fatalf("✗ Search provider initialization failed: %v", err)
	}
	log.Printf("✓ Search provider ready (%s)", cfg.SearchProvider)

	searchService := search.NewService(provider, cache, cfg.SearchCacheTTL)

	// ──── Initialize Repositories ────
	var threadRepo *repository.ThreadRepo
	var store services.ThreadStore
	if pool != nil {
		threadRepo = repository.NewThreadRepo(pool)
		store = threadRepo
	}

	// ──── Initialize Services ────
	backends := llm.NewRegistry(cfg)
	defer backends.Close()
	chatService := services.NewChatService(cfg, searchService, store, backends.Get)

	var jwtAuth *middleware.JWTAuth
	if cfg.AuthSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.AuthSecret)
		log.Println("✓ Bearer token auth enabled")
	}

	// ──── Initialize Handlers ────
	chatHandler := handlers.NewChatHandler(cfg, chatService)
	wsChatHandler := handlers.NewWSChatHandler(cfg, chatService)
	historyHandler := handlers.NewHistoryHandler(threadRepo)

	// ──── Step 5: Start HTTP Server ────
	r := router.New(chatHandler, wsChatHandler, historyHandler, jwtAuth, cfg.FrontendURL)

	// WriteTimeout stays unset: chat responses stream for as long as the
	// model produces tokens.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Searchlight Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
