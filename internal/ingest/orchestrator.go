package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"contesthub/internal/db"
	"contesthub/internal/types"
)

// ContestStore is the subset of the contest repository the orchestrator
// depends on.
type ContestStore interface {
	BulkUpsert(ctx context.Context, contests []types.Contest) (db.BulkUpsertResult, error)
}

// Invalidator drops cached contest listings after the store changes.
type Invalidator interface {
	InvalidateContestListings(ctx context.Context)
}

// CycleMetrics receives per-cycle counters. Implementations must be safe for
// concurrent use.
type CycleMetrics interface {
	RecordIngestCycle(ctx context.Context, platform types.Platform, fetched, upserted, failed int, dur time.Duration)
}

// CycleResult summarizes one ingestion cycle across all registered platforms.
type CycleResult struct {
	Platforms map[types.Platform]PlatformResult
}

// PlatformResult summarizes one platform's slice of a cycle.
type PlatformResult struct {
	Fetched  int
	Upserted int
	Failed   int
	Err      error
}

// OrchestratorConfig carries the dependencies for NewOrchestrator.
type OrchestratorConfig struct {
	Adapters    Registry
	Store       ContestStore
	Invalidator Invalidator
	Metrics     CycleMetrics // optional
	Logger      *slog.Logger
	Now         func() time.Time // optional, defaults to time.Now
}

// Orchestrator runs ingestion cycles: fetch from every adapter concurrently,
// upsert each platform's batch, and invalidate cached listings. A failing
// adapter or a partially failing upsert never aborts the other platforms.
type Orchestrator struct {
	adapters    Registry
	store       ContestStore
	invalidator Invalidator
	metrics     CycleMetrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrchestrator creates an Orchestrator from cfg.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		adapters:    cfg.Adapters,
		store:       cfg.Store,
		invalidator: cfg.Invalidator,
		metrics:     cfg.Metrics,
		logger:      logger,
		now:         now,
	}
}

// RunCycle executes one full ingestion cycle. The returned error is non-nil
// only when the context is canceled; per-platform failures are reported in
// CycleResult and logged, not propagated.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	result := CycleResult{Platforms: make(map[types.Platform]PlatformResult, len(o.adapters))}
	results := make([]PlatformResult, len(o.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, adapter := range o.adapters {
		g.Go(func() error {
			results[i] = o.runPlatform(gctx, adapter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for i, adapter := range o.adapters {
		result.Platforms[adapter.Platform()] = results[i]
	}
	return result, nil
}

// runPlatform fetches, upserts, and invalidates for a single adapter.
func (o *Orchestrator) runPlatform(ctx context.Context, adapter Adapter) PlatformResult {
	platform := adapter.Platform()
	started := o.now()

	contests, err := adapter.FetchAndNormalize(ctx, started.UTC())
	if err != nil {
		o.logger.ErrorContext(ctx, "ingestion fetch failed",
			"platform", platform,
			"error", err,
		)
		return PlatformResult{Err: err}
	}

	res := PlatformResult{Fetched: len(contests)}
	if len(contests) > 0 {
		upsert, upsertErr := o.store.BulkUpsert(ctx, contests)
		res.Upserted = upsert.Upserted
		res.Failed = upsert.Failed
		if upsertErr != nil {
			o.logger.ErrorContext(ctx, "ingestion upsert failed",
				"platform", platform,
				"error", upsertErr,
			)
			res.Err = upsertErr
		} else if upsert.Failed > 0 {
			o.logger.WarnContext(ctx, "ingestion upsert partially failed",
				"platform", platform,
				"attempted", upsert.Attempted,
				"failed", upsert.Failed,
			)
		}
		if res.Upserted > 0 && o.invalidator != nil {
			o.invalidator.InvalidateContestListings(ctx)
		}
	}

	dur := o.now().Sub(started)
	o.logger.InfoContext(ctx, "ingestion cycle finished for platform",
		"platform", platform,
		"fetched", res.Fetched,
		"upserted", res.Upserted,
		"failed", res.Failed,
		"duration_ms", dur.Milliseconds(),
	)
	if o.metrics != nil {
		o.metrics.RecordIngestCycle(ctx, platform, res.Fetched, res.Upserted, res.Failed, dur)
	}
	return res
}
