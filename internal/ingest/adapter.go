// Package ingest implements the contest ingestion and normalization pipeline:
// one adapter per external platform converting that provider's payload into
// normalized Contest records, and the orchestrator that runs a full poll
// cycle across all adapters, upserts the results, and invalidates the
// listing caches.
package ingest

import (
	"context"
	"time"

	"contesthub/internal/types"
)

// Adapter translates one provider's raw response into normalized contest
// records. Implementations must tolerate malformed individual items: a
// missing field skips that one contest (with a log), never the batch.
type Adapter interface {
	// Platform returns the platform this adapter ingests.
	Platform() types.Platform
	// FetchAndNormalize fetches the provider's contest list and returns
	// normalized records. now anchors status classification so one cycle
	// classifies every platform against the same instant.
	FetchAndNormalize(ctx context.Context, now time.Time) ([]types.Contest, error)
}

// Registry is the static adapter set the orchestrator iterates. Order is not
// significant; platforms are independent.
type Registry []Adapter

// ByPlatform returns the adapter registered for the given platform, or nil.
func (r Registry) ByPlatform(p types.Platform) Adapter {
	for _, a := range r {
		if a.Platform() == p {
			return a
		}
	}
	return nil
}

// roundSecondsToMinutes converts a duration in seconds to whole minutes,
// rounding half away from zero the way the providers' own UIs display it.
func roundSecondsToMinutes(seconds int64) int {
	return int((seconds + 30) / 60)
}

// roundDurationToMinutes converts an elapsed time to whole minutes with the
// same rounding rule.
func roundDurationToMinutes(d time.Duration) int {
	return roundSecondsToMinutes(int64(d.Round(time.Second) / time.Second))
}
