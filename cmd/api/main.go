// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/capitalize-ai/voice-assistant/internal/assistant"
	"github.com/capitalize-ai/voice-assistant/internal/config"
	"github.com/capitalize-ai/voice-assistant/internal/handler"
	"github.com/capitalize-ai/voice-assistant/internal/llm"
	"github.com/capitalize-ai/voice-assistant/internal/middleware"
	natsclient "github.com/capitalize-ai/voice-assistant/internal/nats"
	"github.com/capitalize-ai/voice-assistant/internal/store"
	"github.com/capitalize-ai/voice-assistant/internal/summarizer"
	"github.com/capitalize-ai/voice-assistant/pkg/logger"
	"github.com/capitalize-ai/voice-assistant/pkg/tracing"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides LOG_LEVEL)")
	cli.Parse()

	// A missing env file is fine; the environment may already be set.
	godotenv.Load(*envFile)

	// Load configuration
	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

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
		tp, err := tracing.InitTracer(ctx, "voice-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the data store
	db, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to open database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}
	defer db.Close()

	// Connect to NATS when the activity stream is enabled
	var (
		natsClient *natsclient.Client
		activity   *natsclient.ActivityStream
	)
	if cfg.NATSEnabled {
		natsClient, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		activity = natsclient.NewActivityStream(natsClient, log)
		if err := activity.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
	}

	// Initialize LLM client and summarizer
	var sum *summarizer.Summarizer
	if llmClient := newLLMClient(cfg, log); llmClient != nil {
		sum = summarizer.New(llmClient, db, log,
			summarizer.WithModel(cfg.SummaryModel),
			summarizer.WithTimeout(cfg.SummaryTimeout),
		)
	} else {
		log.Warn("no LLM API key configured, summarization disabled")
	}

	// Assemble the assistant
	router := assistant.NewRouter(log, assistant.WithGatewayTimeout(cfg.GatewayTimeout))

	// Interface values stay nil when the stream is disabled.
	var (
		observer  assistant.TurnObserver
		reader    handler.ActivityReader
		publisher handler.SummaryPublisher
		events    handler.Connectivity
	)
	if activity != nil {
		observer, reader, publisher, events = activity, activity, activity, natsClient
	}
	conversations := assistant.NewConversations(router, db, observer)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db, events, log)
	assistantHandler := handler.NewAssistantHandler(conversations, reader, log)
	summaryHandler := handler.NewSummaryHandler(sum, db, publisher, log)
	voiceHandler := handler.NewVoiceHandler(conversations, cfg.VoiceRestartDelay, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(nil))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Summaries work anonymously; signed-in callers get persistence.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
			r.Post("/summaries", summaryHandler.Summarize)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

			r.Route("/assistant", func(r chi.Router) {
				r.Post("/utterances", assistantHandler.Utterance)
				r.Get("/context", assistantHandler.Context)
				r.Delete("/context", assistantHandler.ClearContext)
				r.Get("/activity", assistantHandler.Activity)
			})

			r.Get("/voice", voiceHandler.Serve)
		})
	})

	// Create HTTP server. Voice sockets outlive WriteTimeout, so the
	// handler sets its own per-frame deadlines.
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
			log.Fatal("server error", zap.Error(err))
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

// newLLMClient returns nil when no provider is usable.
func newLLMClient(cfg *config.Config, log *logger.Logger) llm.Client {
	client, err := llm.NewPreferred(llm.Provider(cfg.DefaultLLM), map[llm.Provider]string{
		llm.ProviderOpenAI:    cfg.OpenAIAPIKey,
		llm.ProviderAnthropic: cfg.AnthropicAPIKey,
	})
	if err != nil {
		if !errors.Is(err, llm.ErrNoProvider) {
			log.Warn("failed to create LLM client", zap.Error(err))
		}
		return nil
	}
	log.Info("LLM provider ready", zap.String("provider", client.Name()))
	return client
}
