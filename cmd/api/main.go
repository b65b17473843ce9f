// Package main is the entry point for the session API server.
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

	"github.com/prepview-ai/session-core/internal/config"
	"github.com/prepview-ai/session-core/internal/handler"
	"github.com/prepview-ai/session-core/internal/middleware"
	natsclient "github.com/prepview-ai/session-core/internal/nats"
	"github.com/prepview-ai/session-core/internal/session"
	"github.com/prepview-ai/session-core/internal/store"
	"github.com/prepview-ai/session-core/pkg/logger"
	"github.com/prepview-ai/session-core/pkg/tracing"
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

	log.Info("starting session API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "interview-session-core", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Storage backends: transient registry always available, Redis when
	// configured. Backend selection happens per session lookup.
	redisStore := store.NewRedis(store.RedisConfig{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		KeyPrefix: cfg.SessionPrefix,
		TTL:       cfg.SessionTTL,
		MaxTries:  uint64(cfg.RedisMaxTries),
	}, log)
	if redisStore.Enabled() {
		defer redisStore.Close()
		log.Info("redis backend configured", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.SessionTTL))
	} else {
		log.Info("no redis configured, using transient backend")
	}
	stores := store.NewProvider(store.NewTransient(), redisStore)

	// Optional NATS event mirror
	var nc *natsclient.Client
	var publisher session.EventPublisher
	if cfg.NATSURL != "" {
		nc, err = natsclient.Connect(ctx, natsclient.Config{
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

		streamManager := natsclient.NewStreamManager(nc)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Error("failed to ensure stream", zap.Error(err))
			os.Exit(1)
		}
		publisher = streamManager
	}

	// Initialize services
	events := session.NewEventLogger(stores, cfg.MaxRecordBytes, publisher, log)
	projector := session.NewProjector(stores, log)
	restoreEngine := session.NewRestoreEngine(stores, cfg.MaxRecordBytes, log)
	ttlRefresher := session.NewTTLRefresher(stores, cfg.SessionTTL, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(redisStore, nc)
	sessionHandler := handler.NewSessionHandler(events, projector, restoreEngine, ttlRefresher, stores, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Id", "X-Correlation-ID"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1/session", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.RequireScope("session"))
		}
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		r.Use(middleware.RequireSessionID)

		r.Post("/log/question-shown", sessionHandler.LogQuestionShown)
		r.Post("/log/user-answer", sessionHandler.LogUserAnswer)
		r.Post("/log/evaluation", sessionHandler.LogEvaluation)

		r.Get("/dump", sessionHandler.Dump)
		r.Get("/evaluation-summary", sessionHandler.EvaluationSummary)
		r.Get("/followups/next", sessionHandler.NextFollowup)

		r.Post("/restore", sessionHandler.Restore)
		r.Delete("/reset", sessionHandler.Reset)
		r.Post("/refresh-ttl", sessionHandler.RefreshTTL)
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
