// Package main is the entry point for the ContestHub query API.
//
// It loads configuration, connects Postgres and Redis, builds the HTTP server
// with the core chassis (middleware, routing, health checks), and serves the
// contest listing endpoints plus manual job triggers until it receives
// SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"contesthub/internal/api/handlers"
	"contesthub/internal/cache"
	"contesthub/internal/config"
	"contesthub/internal/core"
	"contesthub/internal/db"
	"contesthub/internal/external"
	"contesthub/internal/ingest"
	"contesthub/internal/notify"
	"contesthub/internal/scheduler"
	"contesthub/internal/solutions"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("contesthub API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password.Reveal(),
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	store := cache.NewStore(cache.NewRedisBackend(redisClient), logger)
	contestRepo := db.NewContestRepository(pool)
	userRepo := db.NewUserRepository(pool)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.RegisterGlobalMiddleware()

	contestHandler := handlers.NewContestHandler(contestRepo, store, logger)
	jobsHandler := handlers.NewJobsHandler(buildJobTriggers(cfg, contestRepo, userRepo, store, logger), logger)

	srv.Router().Route("/v1", func(r chi.Router) {
		r.Route("/contests", contestHandler.RegisterRoutes)
		r.Route("/jobs", jobsHandler.RegisterRoutes)
	})
	srv.Router().Get("/health", core.HandleHealth(map[string]core.Pinger{
		"postgres": pool,
		"redis":    redisPinger{redisClient},
	}))

	return serveHTTP(ctx, srv, cfg, logger)
}

// buildJobTriggers wires each background job as an on-demand trigger. The
// API does not schedule them; the aggregator binary does.
func buildJobTriggers(
	cfg *config.Config,
	contestRepo *db.ContestRepository,
	userRepo *db.UserRepository,
	store *cache.Store,
	logger *slog.Logger,
) map[string]handlers.JobTrigger {
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}

	orchestrator := ingest.NewOrchestrator(ingest.OrchestratorConfig{
		Adapters: ingest.Registry{
			ingest.NewCodeforcesAdapter(httpClient, cfg.Providers.CodeforcesURL, logger),
			ingest.NewCodeChefAdapter(httpClient, cfg.Providers.CodeChefURL, logger),
			ingest.NewLeetCodeAdapter(httpClient, cfg.Providers.LeetCodeURL, logger),
		},
		Store:       contestRepo,
		Invalidator: store,
		Logger:      logger,
	})

	matcher := solutions.NewMatcher(solutions.MatcherConfig{
		Fetcher: external.NewYouTubeClient(httpClient, external.YouTubeClientConfig{
			APIKey:  cfg.Playlists.APIKey.Reveal(),
			BaseURL: cfg.Playlists.BaseURL,
			Logger:  logger,
		}),
		Store:     contestRepo,
		Playlists: cfg.Playlists.ByPlatform(),
		Cache:     store,
		Logger:    logger,
	})

	loc, err := time.LoadLocation(cfg.Notify.Timezone)
	if err != nil {
		// Validated at config load; UTC is the safe fallback.
		loc = time.UTC
	}
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Contests: contestRepo,
		Users:    userRepo,
		Email:    newEmailProvider(cfg, httpClient, logger),
		Location: loc,
		Logger:   logger,
	})

	sweep := scheduler.NewSweepService(scheduler.SweepConfig{
		Store:  contestRepo,
		Cache:  store,
		Logger: logger,
	})

	return map[string]handlers.JobTrigger{
		"ingest": func(ctx context.Context) (any, error) {
			res, err := orchestrator.RunCycle(ctx)
			return res, err
		},
		"solutions": func(ctx context.Context) (any, error) {
			res, err := matcher.Run(ctx)
			return res, err
		},
		"notify": func(ctx context.Context) (any, error) {
			res, err := dispatcher.Run(ctx)
			return res, err
		},
		"sweep": func(ctx context.Context) (any, error) {
			res, err := sweep.Run(ctx)
			return res, err
		},
	}
}

// newEmailProvider returns the configured provider, or a log-only stand-in
// when email delivery is disabled.
func newEmailProvider(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) external.EmailProvider {
	if !cfg.Email.Enabled {
		return logEmailProvider{logger}
	}
	return external.NewSendGridClient(httpClient, external.SendGridClientConfig{
		APIKey:      cfg.Email.SendGridAPIKey.Reveal(),
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		Logger:      logger,
	})
}

// logEmailProvider records would-be sends without delivering anything.
type logEmailProvider struct {
	logger *slog.Logger
}

func (p logEmailProvider) Send(ctx context.Context, mail external.Mail) (string, error) {
	p.logger.InfoContext(ctx, "email delivery disabled, dropping message",
		"to", mail.To,
		"subject", mail.Subject,
	)
	return "", nil
}

// redisPinger adapts *redis.Client to the health check interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL.Reveal())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// serveHTTP runs the HTTP server until ctx is canceled, then shuts down
// gracefully with a 10-second deadline.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
