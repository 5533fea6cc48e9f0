package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"contesthub/internal/external"
	"contesthub/internal/types"
)

// CodeChefAdapter ingests the CodeChef contest list endpoint. The provider
// buckets contests by temporal category; the bucket label is taken as the
// contest status verbatim (provider intent wins over the local clock), while
// timestamps are still parsed and validated from the ISO date strings.
type CodeChefAdapter struct {
	base   *external.BaseClient
	url    string
	logger *slog.Logger
}

// NewCodeChefAdapter creates a CodeChefAdapter fetching from listURL.
func NewCodeChefAdapter(httpClient *http.Client, listURL string, logger *slog.Logger) *CodeChefAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeChefAdapter{
		base:   external.NewBaseClient(httpClient, "codechef", external.DefaultRetryPolicy(), "ContestHub/1.0"),
		url:    listURL,
		logger: logger,
	}
}

// Platform implements Adapter.
func (a *CodeChefAdapter) Platform() types.Platform {
	return types.PlatformCodeChef
}

// codechefContest is one entry of any CodeChef bucket.
type codechefContest struct {
	Code         string `json:"contest_code"`
	Name         string `json:"contest_name"`
	StartDateISO string `json:"contest_start_date_iso"`
	EndDateISO   string `json:"contest_end_date_iso"`
	// Duration is minutes, serialized as a string by the provider.
	Duration string `json:"contest_duration"`
}

// codechefResponse mirrors the bucketed contest list payload.
type codechefResponse struct {
	Status          string            `json:"status"`
	FutureContests  []codechefContest `json:"future_contests"`
	PresentContests []codechefContest `json:"present_contests"`
	PastContests    []codechefContest `json:"past_contests"`
}

// FetchAndNormalize implements Adapter.
func (a *CodeChefAdapter) FetchAndNormalize(ctx context.Context, _ time.Time) ([]types.Contest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create codechef request", err)
	}

	resp, err := a.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamProvider,
			fmt.Sprintf("codechef returned %d", resp.StatusCode), nil)
	}

	var payload codechefResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "failed to decode codechef response", err)
	}

	var contests []types.Contest
	contests = a.appendBucket(ctx, contests, payload.FutureContests, types.StatusUpcoming)
	contests = a.appendBucket(ctx, contests, payload.PresentContests, types.StatusOngoing)
	contests = a.appendBucket(ctx, contests, payload.PastContests, types.StatusPast)
	return contests, nil
}

// appendBucket normalizes one provider bucket, stamping every entry with the
// bucket's status.
func (a *CodeChefAdapter) appendBucket(ctx context.Context, dst []types.Contest, bucket []codechefContest, status types.ContestStatus) []types.Contest {
	for _, item := range bucket {
		c, err := a.normalize(item, status)
		if err != nil {
			a.logger.WarnContext(ctx, "skipping codechef contest",
				"code", item.Code,
				"name", item.Name,
				"error", err,
			)
			continue
		}
		dst = append(dst, *c)
	}
	return dst
}

// normalize validates one bucket entry and converts it to a Contest.
func (a *CodeChefAdapter) normalize(item codechefContest, status types.ContestStatus) (*types.Contest, error) {
	if item.Code == "" || item.Name == "" {
		return nil, fmt.Errorf("missing contest code or name")
	}

	start, err := time.Parse(time.RFC3339, item.StartDateISO)
	if err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", item.StartDateISO, err)
	}
	end, err := time.Parse(time.RFC3339, item.EndDateISO)
	if err != nil {
		return nil, fmt.Errorf("parsing end date %q: %w", item.EndDateISO, err)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("end %s not after start %s", item.EndDateISO, item.StartDateISO)
	}

	// Provider minutes field wins; fall back to the timestamp delta.
	minutes, err := strconv.Atoi(item.Duration)
	if err != nil || minutes <= 0 {
		minutes = roundDurationToMinutes(end.Sub(start))
	}

	return &types.Contest{
		Platform:        types.PlatformCodeChef,
		Name:            item.Name,
		URL:             "https://www.codechef.com/" + item.Code,
		StartTime:       start.UTC(),
		EndTime:         end.UTC(),
		DurationMinutes: minutes,
		Status:          status,
	}, nil
}

var _ Adapter = (*CodeChefAdapter)(nil)
