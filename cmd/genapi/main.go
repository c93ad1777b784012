package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/copywriting24/genapi/config"
	"github.com/copywriting24/genapi/internal/admin"
	"github.com/copywriting24/genapi/internal/generate"
	"github.com/copywriting24/genapi/internal/provider/anthropic"
	"github.com/copywriting24/genapi/internal/quota"
	"github.com/copywriting24/genapi/internal/record"
	"github.com/copywriting24/genapi/internal/seeder"
	"github.com/copywriting24/genapi/internal/telemetry"
	"github.com/copywriting24/genapi/pkg/ratelimit"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	// 2. Init telemetry
	shutdownTracer, err := telemetry.InitTracer("genapi", cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to init tracer")
	}
	defer shutdownTracer()

	// 3. Connect PostgreSQL
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect postgres")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}
	logrus.Info("PostgreSQL connected")

	// 4. Connect Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Fatal("failed to ping redis")
	}
	logrus.Info("Redis connected")

	// 5. Init stores
	store := record.NewPostgresStore(pool)
	overrides := record.NewPostgresOverrideStore(pool)

	// 6. Init quota ledger
	ledger := quota.NewLedger(store, overrides, rdb, cfg.DailyLimit)

	// 7. Init burst limiter
	limiter := ratelimit.NewLimiter(rdb, cfg.BurstRPM)

	// 8. Init provider + engine
	prov := anthropic.New(cfg.AnthropicAPIKey, cfg.Model)
	engine := generate.NewEngine(prov)

	// 9. Init generation service + handlers
	service := generate.NewService(store, ledger, engine, cfg.PriceInputUSD, cfg.PriceOutputUSD, cfg.GenerateTimeout)
	tracer := otel.GetTracerProvider().Tracer("genapi")
	handler := generate.NewHandler(service, limiter, tracer)
	adminHandler := admin.NewHandler(store, store, overrides, ledger)

	// 10. Seed dev quota override if RUN_SEED=true
	if os.Getenv("RUN_SEED") == "true" {
		seeder.SeedDevOverride(ctx, overrides)
	}

	// 11. Init Chi router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Public routes
	r.Get("/api/health", handler.HandleHealth)
	r.Get("/api/limit-status", handler.HandleLimitStatus)
	r.Post("/api/generate", handler.HandleGenerate)
	r.Post("/api/generate/stream", handler.HandleGenerateStream)

	// Admin routes
	r.Mount("/api/admin", adminHandler.Routes(cfg.AdminToken))

	// 12. Graceful shutdown
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// Write timeout must outlast the slowest generation, streaming included.
		WriteTimeout: cfg.GenerateTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.WithField("port", cfg.Port).Info("generation API starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	<-quit
	logrus.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Fatal("forced shutdown")
	}
	logrus.Info("Server stopped")
}
