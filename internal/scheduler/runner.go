// Package scheduler drives the recurring background work: contest ingestion,
// the status sweep, solution matching, and the daily notification dispatch.
// Jobs run in-process on independent tickers; a slow or panicking job never
// delays the others.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one recurring unit of background work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart fires the job immediately when the runner starts instead of
	// waiting a full interval first.
	RunOnStart bool
	Run        func(ctx context.Context) error
}

// JobMetrics receives per-run outcome counters. Implementations must be safe
// for concurrent use.
type JobMetrics interface {
	RecordJobRun(ctx context.Context, job string, dur time.Duration, err error)
}

// RunnerConfig carries the dependencies for NewRunner.
type RunnerConfig struct {
	Jobs    []Job
	Metrics JobMetrics // optional
	Logger  *slog.Logger
}

// Runner executes a set of Jobs on their intervals until its context is
// canceled.
type Runner struct {
	jobs    []Job
	metrics JobMetrics
	logger  *slog.Logger
}

// NewRunner creates a Runner from cfg.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		jobs:    cfg.Jobs,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Start runs every job on its own goroutine and blocks until ctx is
// canceled, then waits for in-flight runs to finish.
func (r *Runner) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range r.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(ctx, job)
		}()
	}
	wg.Wait()
}

func (r *Runner) loop(ctx context.Context, job Job) {
	r.logger.InfoContext(ctx, "job scheduled",
		"job", job.Name,
		"interval", job.Interval.String(),
		"run_on_start", job.RunOnStart,
	)

	if job.RunOnStart {
		r.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, job)
		}
	}
}

// runOnce executes one job run with a fresh run ID and panic recovery. A
// panic is logged and counted as a failed run; the ticker keeps going.
func (r *Runner) runOnce(ctx context.Context, job Job) {
	runID := uuid.NewString()
	logger := r.logger.With("job", job.Name, "run_id", runID)
	started := time.Now()

	var err error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job panicked: %v", rec)
				logger.ErrorContext(ctx, "job panicked",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
			}
		}()
		err = job.Run(ctx)
	}()

	dur := time.Since(started)
	if err != nil {
		logger.ErrorContext(ctx, "job run failed",
			"duration_ms", dur.Milliseconds(),
			"error", err,
		)
	} else {
		logger.InfoContext(ctx, "job run finished",
			"duration_ms", dur.Milliseconds(),
		)
	}
	if r.metrics != nil {
		r.metrics.RecordJobRun(ctx, job.Name, dur, err)
	}
}
