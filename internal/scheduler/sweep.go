package scheduler

import (
	"context"
	"log/slog"
	"time"

	"contesthub/internal/types"
)

// StatusStore is the subset of the contest repository the sweep needs.
type StatusStore interface {
	UpdateManyStatus(ctx context.Context, filter types.ContestStatusFilter, status types.ContestStatus) (int64, error)
}

// SweepInvalidator drops cached contest listings after statuses move.
type SweepInvalidator interface {
	InvalidateContestListings(ctx context.Context)
}

// SweepService moves contests between statuses as the clock passes their
// boundaries, without refetching from any provider. Status is derived from
// stored timestamps only.
type SweepService struct {
	store  StatusStore
	cache  SweepInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// SweepConfig carries the dependencies for NewSweepService.
type SweepConfig struct {
	Store  StatusStore
	Cache  SweepInvalidator // optional
	Logger *slog.Logger
	Now    func() time.Time // optional, defaults to time.Now
}

// NewSweepService creates a SweepService from cfg.
func NewSweepService(cfg SweepConfig) *SweepService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SweepService{
		store:  cfg.Store,
		cache:  cfg.Cache,
		logger: logger,
		now:    now,
	}
}

// SweepResult counts rows moved per transition during one sweep.
type SweepResult struct {
	ToPast     int64
	ToOngoing  int64
	ToUpcoming int64
}

// Total returns the number of rows the sweep changed.
func (r SweepResult) Total() int64 {
	return r.ToPast + r.ToOngoing + r.ToUpcoming
}

// Run applies the three status transitions. Order matters: ended contests
// must become past before the ongoing pass, or a contest whose end boundary
// just passed would match both filters. Boundaries are half-open: a contest
// is ongoing at its exact start instant and past at its exact end instant.
func (s *SweepService) Run(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()
	var result SweepResult

	// end <= now: the contest is over.
	moved, err := s.store.UpdateManyStatus(ctx, types.ContestStatusFilter{
		EndAtOrBefore: &now,
		NotStatus:     types.StatusPast,
	}, types.StatusPast)
	if err != nil {
		return result, err
	}
	result.ToPast = moved

	// start <= now < end: the contest is running.
	moved, err = s.store.UpdateManyStatus(ctx, types.ContestStatusFilter{
		StartAtOrBefore: &now,
		EndAfter:        &now,
		NotStatus:       types.StatusOngoing,
	}, types.StatusOngoing)
	if err != nil {
		return result, err
	}
	result.ToOngoing = moved

	// start > now: corrects rows drifted forward, for example after a
	// provider reschedules a contest.
	moved, err = s.store.UpdateManyStatus(ctx, types.ContestStatusFilter{
		StartAfter: &now,
		NotStatus:  types.StatusUpcoming,
	}, types.StatusUpcoming)
	if err != nil {
		return result, err
	}
	result.ToUpcoming = moved

	if result.Total() > 0 {
		if s.cache != nil {
			s.cache.InvalidateContestListings(ctx)
		}
		s.logger.InfoContext(ctx, "status sweep moved contests",
			"to_past", result.ToPast,
			"to_ongoing", result.ToOngoing,
			"to_upcoming", result.ToUpcoming,
		)
	}
	return result, nil
}
