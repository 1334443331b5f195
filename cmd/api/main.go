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

	"github.com/giadat1599/echo-support-api/internal/agent"
	"github.com/giadat1599/echo-support-api/internal/blob"
	"github.com/giadat1599/echo-support-api/internal/config"
	"github.com/giadat1599/echo-support-api/internal/database"
	"github.com/giadat1599/echo-support-api/internal/handler"
	"github.com/giadat1599/echo-support-api/internal/llm"
	"github.com/giadat1599/echo-support-api/internal/middleware"
	natsclient "github.com/giadat1599/echo-support-api/internal/nats"
	"github.com/giadat1599/echo-support-api/internal/service"
	"github.com/giadat1599/echo-support-api/pkg/logger"
	"github.com/giadat1599/echo-support-api/pkg/tracing"
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

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "echo-support-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the database
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	// Connect to NATS
	nc, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer nc.Close()

	// Ensure the thread stream exists
	threadStore := natsclient.NewThreadStore(nc)
	if err := threadStore.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Blob storage for knowledge uploads
	blobStore, err := blob.NewFSStore(cfg.BlobDir)
	if err != nil {
		log.Error("failed to initialize blob store", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client. The agent's tools require OpenAI; Anthropic
	// serves only when no OpenAI key is configured.
	var llmClient llm.Client
	if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, agent features disabled", zap.Error(err))
		llmClient = nil
	}

	// Initialize services
	sessionSvc := service.NewSessionService(db, cfg.SessionTTL, log)
	organizationSvc := service.NewOrganizationService(db, log)
	conversationSvc := service.NewConversationService(db, threadStore, sessionSvc, log)

	agentCfg := agent.DefaultConfig()
	if cfg.AgentModel != "" {
		agentCfg.Model = cfg.AgentModel
	}
	supportAgent := agent.New(agentCfg, llmClient, threadStore, conversationSvc, log)

	messageSvc := service.NewMessageService(threadStore, sessionSvc, conversationSvc, supportAgent, llmClient, nil, log)
	fileSvc := service.NewFileService(db, blobStore, service.PlainTextExtractor{}, log)
	pluginSvc := service.NewPluginService(db, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(nc, db)
	sessionHandler := handler.NewSessionHandler(sessionSvc, organizationSvc, log)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	messageHandler := handler.NewMessageHandler(messageSvc, log)
	fileHandler := handler.NewFileHandler(fileSvc, log)
	pluginHandler := handler.NewPluginHandler(pluginSvc, log)

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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Widget routes: public, session-scoped access control happens in the
	// service layer via contact session validation.
	r.Route("/api/v1/widget", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/organizations/validate", sessionHandler.ValidateOrganization)
		r.Post("/sessions", sessionHandler.Create)

		r.Post("/conversations", conversationHandler.CreateForWidget)
		r.Get("/conversations/{id}", conversationHandler.GetForWidget)

		r.Post("/messages", messageHandler.CreateForWidget)
		r.Get("/messages", messageHandler.ListForWidget)
	})

	// Operator routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversationHandler.List)
			r.Get("/{id}", conversationHandler.Get)
			r.Put("/{id}/status", conversationHandler.UpdateStatus)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", messageHandler.Create)
			r.Get("/", messageHandler.List)
			r.Post("/enhance", messageHandler.Enhance)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/", fileHandler.Upload)
			r.Get("/", fileHandler.List)
			r.Delete("/{id}", fileHandler.Delete)
		})

		r.Route("/plugins", func(r chi.Router) {
			r.Post("/", pluginHandler.Upsert)
			r.Get("/{service}", pluginHandler.Get)
			r.Delete("/{service}", pluginHandler.Remove)
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
