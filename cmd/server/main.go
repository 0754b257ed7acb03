package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/mapcrafter2048/judge0-docker-cli/internal/api"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/config"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/judge"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/sandbox"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/store"
	"github.com/mapcrafter2048/judge0-docker-cli/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		logger.Error("migration failed", "err", err)
		os.Exit(1)
	}
	queries := store.New(pool)

	engine := sandbox.NewEngine(cfg.DockerBinary, cfg.OutputLimitBytes, logger)
	if err := engine.Ping(ctx); err != nil {
		// The API can still accept submissions; executions will surface
		// internal_error until the runtime comes back.
		logger.Warn("container runtime check failed", "err", err)
	}

	executor := judge.NewExecutor(engine, cfg.WorkDir, logger)
	workers := worker.New(queries, executor, cfg.WorkerCount, logger, worker.Options{
		PollInterval:  cfg.PollInterval,
		SweepInterval: cfg.SweepInterval,
		StaleAfter:    cfg.StaleAfter,
	})

	g, ctx := errgroup.WithContext(ctx)

	switch cfg.Mode {
	case "worker":
		logger.Info("starting in worker-only mode")
		g.Go(func() error {
			workers.Start(ctx)
			return nil
		})
	case "api":
		logger.Info("starting in api-only mode")
		g.Go(func() error { return runAPI(ctx, cfg, queries, workers.Size(), logger) })
	default:
		g.Go(func() error {
			workers.Start(ctx)
			return nil
		})
		g.Go(func() error { return runAPI(ctx, cfg, queries, workers.Size(), logger) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func runAPI(ctx context.Context, cfg *config.Config, queries store.Querier, workers int, logger *slog.Logger) error {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, queries, cfg, workers, logger)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
