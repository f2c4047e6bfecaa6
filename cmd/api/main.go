package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/promptrelay/internal/api"
	"github.com/nikhilbhutani/promptrelay/internal/api/handlers"
	"github.com/nikhilbhutani/promptrelay/internal/audit"
	"github.com/nikhilbhutani/promptrelay/internal/cache"
	"github.com/nikhilbhutani/promptrelay/internal/config"
	"github.com/nikhilbhutani/promptrelay/internal/database"
	"github.com/nikhilbhutani/promptrelay/internal/diagnostics"
	"github.com/nikhilbhutani/promptrelay/internal/inference"
	"github.com/nikhilbhutani/promptrelay/internal/llm"
	"github.com/nikhilbhutani/promptrelay/internal/prompt"
	"github.com/nikhilbhutani/promptrelay/internal/queue"
)

// redisPinger adapts the go-redis command API to handlers.Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("running degraded", "error", err)
	}

	ctx := context.Background()
	deps := api.Deps{Checks: map[string]handlers.Pinger{}}

	// Database connection (optional, prompts fall back to process memory)
	var store prompt.Store
	var attempts *audit.Service
	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Warn("database unavailable, keeping prompts in memory", "error", err)
		store = prompt.NewMemoryStore()
	} else {
		defer db.Close()
		if err := database.RunMigrations(ctx, db); err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		store = prompt.NewPostgresStore(db)
		attempts = audit.NewService(db)
		deps.Attempts = attempts
		deps.Checks["database"] = db
	}

	// Redis connection (optional)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	redisUp := rdb.Ping(ctx).Err() == nil
	if !redisUp {
		slog.Warn("redis unavailable, running without probe cache or attempt queue", "addr", cfg.Redis.Addr)
	} else {
		deps.Checks["redis"] = redisPinger{client: rdb}
	}

	// The attempt trace needs both the queue and somewhere to land.
	var recorder prompt.AttemptRecorder
	if redisUp && attempts != nil {
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		recorder = qc
	}

	hf := inference.NewClient(cfg.Inference.APIKey, cfg.Inference.BaseURL)
	orch := inference.NewOrchestrator(hf, inference.DefaultCandidates, logger)
	registry := llm.NewRegistry(cfg.LLM)
	slog.Info("direct providers configured", "providers", registry.Names())

	deps.Prompts = prompt.NewService(store, orch, registry, recorder, cfg.Inference.Configured())

	if redisUp {
		deps.Prober = diagnostics.NewService(hf, diagnostics.DefaultCandidates, cfg.Inference.Configured(),
			cache.NewCache(rdb, "promptrelay:"), cfg.Inference.ProbeCacheTTL)
	} else {
		deps.Prober = diagnostics.NewService(hf, diagnostics.DefaultCandidates, cfg.Inference.Configured(), nil, 0)
	}

	router := api.NewRouter(cfg, deps)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
