// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pyai/assistant-platform/internal/config"
	"github.com/pyai/assistant-platform/internal/handler"
	"github.com/pyai/assistant-platform/internal/llm"
	"github.com/pyai/assistant-platform/internal/middleware"
	natsclient "github.com/pyai/assistant-platform/internal/nats"
	"github.com/pyai/assistant-platform/internal/service"
	"github.com/pyai/assistant-platform/internal/store"
	"github.com/pyai/assistant-platform/pkg/logger"
	"github.com/pyai/assistant-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS when configured; event publishing is optional and
	// the core never depends on the broker.
	var nc *natsclient.Client
	var publisher natsclient.EventPublisher = natsclient.Disabled{}
	if cfg.NATSURL != "" {
		nc, err = natsclient.Connect(natsclient.Config{
			URL:   cfg.NATSURL,
			Token: cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer nc.Close()

		streamPublisher := natsclient.NewStreamPublisher(nc)
		if err := streamPublisher.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = streamPublisher
	}

	// Initialize the completion client. A malformed credential is only
	// warned about here; every send re-checks it and surfaces a
	// user-visible warning instead of calling out.
	var llmClient llm.Client
	if err := llm.ValidateCredential(cfg.Provider, cfg.APIKey()); err != nil {
		log.Warn("completion credential invalid, sends will be rejected", zap.Error(err))
	} else {
		llmClient, err = llm.NewClient(cfg.Provider, cfg.APIKey())
		if err != nil {
			log.Warn("failed to create completion client", zap.Error(err))
		}
	}

	// Initialize services
	sessions := store.NewSessionManager()
	conversationSvc := service.NewConversationService(sessions, publisher, log)
	messageSvc := service.NewMessageService(conversationSvc, llmClient, service.CompletionParams{
		Provider:     cfg.Provider,
		APIKey:       cfg.APIKey(),
		Model:        cfg.DefaultModel,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		TopP:         cfg.TopP,
		SystemPrompt: cfg.SystemPrompt,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(nc)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, conversationSvc, log)
	exportHandler := handler.NewExportHandler(conversationSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Delete("/session", conversationHandler.ResetSession)

		// Conversations
		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", conversationHandler.Create)
			r.Get("/", conversationHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversationHandler.Get)
				r.Post("/activate", conversationHandler.Activate)

				// Messages
				r.Get("/messages", messageHandler.List)
				r.Post("/messages", messageHandler.Send)

				// Export
				r.Get("/export", exportHandler.Export)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
