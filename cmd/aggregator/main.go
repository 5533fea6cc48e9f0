// Package main is the entry point for the ContestHub aggregator worker.
//
// It runs the recurring background jobs on their configured intervals:
// contest ingestion from the platform APIs, the hourly status sweep, the
// playlist solution matcher, and the daily notification dispatch. The worker
// is a plain long-running process; SIGINT or SIGTERM stops the schedule and
// waits for in-flight runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"contesthub/internal/cache"
	"contesthub/internal/config"
	"contesthub/internal/db"
	"contesthub/internal/external"
	"contesthub/internal/ingest"
	"contesthub/internal/notify"
	"contesthub/internal/observability"
	"contesthub/internal/scheduler"
	"contesthub/internal/solutions"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("contesthub aggregator starting",
		"environment", cfg.Environment,
		"ingest_interval", cfg.Jobs.IngestInterval.String(),
		"sweep_interval", cfg.Jobs.SweepInterval.String(),
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
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}

	metrics, err := newMetrics(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	orchestrator := ingest.NewOrchestrator(ingest.OrchestratorConfig{
		Adapters: ingest.Registry{
			ingest.NewCodeforcesAdapter(httpClient, cfg.Providers.CodeforcesURL, logger),
			ingest.NewCodeChefAdapter(httpClient, cfg.Providers.CodeChefURL, logger),
			ingest.NewLeetCodeAdapter(httpClient, cfg.Providers.LeetCodeURL, logger),
		},
		Store:       contestRepo,
		Invalidator: store,
		Metrics:     metrics,
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
		return fmt.Errorf("loading notify timezone: %w", err)
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

	runner := scheduler.NewRunner(scheduler.RunnerConfig{
		Jobs: []scheduler.Job{
			{
				Name:       "contest-ingest",
				Interval:   cfg.Jobs.IngestInterval,
				RunOnStart: cfg.Jobs.RunOnStart,
				Run: func(ctx context.Context) error {
					_, err := orchestrator.RunCycle(ctx)
					return err
				},
			},
			{
				Name:     "status-sweep",
				Interval: cfg.Jobs.SweepInterval,
				Run: func(ctx context.Context) error {
					_, err := sweep.Run(ctx)
					return err
				},
			},
			{
				Name:     "solution-match",
				Interval: cfg.Jobs.SolutionsInterval,
				Run: func(ctx context.Context) error {
					_, err := matcher.Run(ctx)
					return err
				},
			},
			{
				Name:     "notify-digest",
				Interval: cfg.Jobs.NotifyInterval,
				Run: func(ctx context.Context) error {
					_, err := dispatcher.Run(ctx)
					return err
				},
			},
		},
		Metrics: metrics,
		Logger:  logger,
	})

	runner.Start(ctx)
	logger.Info("aggregator shutdown complete")
	return nil
}

// jobMetrics is the union of the metric sinks the aggregator feeds.
type jobMetrics interface {
	scheduler.JobMetrics
	ingest.CycleMetrics
}

// newMetrics returns a CloudWatch-backed sink when metrics are enabled, a
// no-op sink otherwise.
func newMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (jobMetrics, error) {
	if !cfg.Observability.EnableMetrics {
		return observability.NopMetrics{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Observability.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return observability.NewCloudWatchMetrics(
		cloudwatch.NewFromConfig(awsCfg),
		cfg.Observability.MetricNamespace,
		logger,
	), nil
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
