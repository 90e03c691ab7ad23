package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/store"
)

func buildHandler(cfg *config.Config, tracker *services.Tracker, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(tracker, logger)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)
	return chain(srv)
}

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"address", cfg.Address(),
		"store", cfg.Store,
	)

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}

	tracker := services.NewTracker(st, services.WithLogger(logger.With("component", "tracker")))

	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.Store.LoadTimeout)
	start := time.Now()
	err = tracker.Load(loadCtx)
	cancel()
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		st.Close()
		os.Exit(1)
	}
	logger.Info("sales data loaded", "duration", time.Since(start))

	if cfg.Store.SeedOnEmpty {
		seeded, _, err := tracker.SeedIfEmpty(context.Background(), services.HistoricalSeed())
		if err != nil {
			logger.Warn("seed not fully persisted, will retry on flush", "error", err)
		} else if seeded {
			logger.Info("installed historical seed")
		}
	}

	ctx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	go rateLimiter.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      buildHandler(cfg, tracker, rateLimiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook("flush pending writes", func(ctx context.Context) error {
		if tracker.Pending().Count == 0 {
			return nil
		}
		_, err := tracker.Flush(ctx)
		return err
	})
	gracefulServer.RegisterShutdownHook("close store", func(ctx context.Context) error {
		return st.Close()
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
