package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"github.com/dvloznov/finance-assistant/internal/api/handlers"
	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/assistant"
	"github.com/dvloznov/finance-assistant/internal/config"
	"github.com/dvloznov/finance-assistant/internal/conversation"
	infraBQ "github.com/dvloznov/finance-assistant/internal/infra/bigquery"
	"github.com/dvloznov/finance-assistant/internal/logger"
)

func main() {
	// Load .env if present; real env vars take precedence
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Financial records and identity resolution
	recordStore, err := infraBQ.NewRecordStore(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create record store")
	}
	defer recordStore.Close()

	resolver := infraBQ.NewIdentityResolver(recordStore)

	// Conversation persistence with a read-through history cache
	sqliteStore, err := conversation.NewSQLiteStore(cfg.ChatDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open conversation store")
	}
	defer sqliteStore.Close()

	conversations := conversation.NewCachedStore(sqliteStore)

	// Generation model client
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create genai client")
	}
	generator := assistant.NewGeminiGenerator(genaiClient, cfg.GeminiModel)

	aggregator := assistant.NewAggregator(recordStore, logger.WithComponent(log, "aggregator"))

	orchestrator := assistant.NewOrchestrator(
		resolver,
		aggregator,
		conversations,
		generator,
		logger.WithComponent(log, "orchestrator"),
	)
	orchestrator.SetGenerateTimeout(cfg.GenerateTimeout)

	if cfg.ArchiveBucket != "" {
		orchestrator.SetArchiver(archive.NewGCSArchiver(cfg.ArchiveBucket))
		log.Info().Str("bucket", cfg.ArchiveBucket).Msg("Transcript archiving enabled")
	} else {
		log.Warn().Msg("No archive bucket configured - transcripts are deleted without a copy")
	}

	chatHandler := handlers.NewChatHandler(orchestrator, logger.WithComponent(log, "api"))

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.SendMessage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/chat/history", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			chatHandler.GetHistory(w, r)
		case http.MethodDelete:
			chatHandler.ClearHistory(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			chatHandler.GetInsights(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting assistant API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
