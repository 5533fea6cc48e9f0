package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"contesthub/internal/external"
	"contesthub/internal/types"
)

// CodeforcesAdapter ingests the Codeforces contest.list REST endpoint.
type CodeforcesAdapter struct {
	base   *external.BaseClient
	url    string
	logger *slog.Logger
}

// NewCodeforcesAdapter creates a CodeforcesAdapter fetching from listURL.
func NewCodeforcesAdapter(httpClient *http.Client, listURL string, logger *slog.Logger) *CodeforcesAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeforcesAdapter{
		base:   external.NewBaseClient(httpClient, "codeforces", external.DefaultRetryPolicy(), "ContestHub/1.0"),
		url:    listURL,
		logger: logger,
	}
}

// Platform implements Adapter.
func (a *CodeforcesAdapter) Platform() types.Platform {
	return types.PlatformCodeforces
}

// codeforcesResponse mirrors the contest.list envelope. Optional numeric
// fields are pointers so absent values are distinguishable from zero:
// contests in the BEFORE phase may have no start time yet.
type codeforcesResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  []struct {
		ID               *int64 `json:"id"`
		Name             string `json:"name"`
		StartTimeSeconds *int64 `json:"startTimeSeconds"`
		DurationSeconds  *int64 `json:"durationSeconds"`
	} `json:"result"`
}

// FetchAndNormalize implements Adapter.
func (a *CodeforcesAdapter) FetchAndNormalize(ctx context.Context, now time.Time) ([]types.Contest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create codeforces request", err)
	}

	resp, err := a.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamProvider,
			fmt.Sprintf("codeforces returned %d", resp.StatusCode), nil)
	}

	var payload codeforcesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "failed to decode codeforces response", err)
	}
	if payload.Status != "OK" {
		return nil, types.NewAppError(types.ErrCodeUpstreamProvider,
			fmt.Sprintf("codeforces API status %q: %s", payload.Status, payload.Comment), nil)
	}

	contests := make([]types.Contest, 0, len(payload.Result))
	for _, item := range payload.Result {
		if item.Name == "" || item.ID == nil || item.StartTimeSeconds == nil || item.DurationSeconds == nil {
			a.logger.WarnContext(ctx, "skipping codeforces contest with missing fields",
				"name", item.Name,
			)
			continue
		}
		if *item.DurationSeconds <= 0 {
			a.logger.WarnContext(ctx, "skipping codeforces contest with non-positive duration",
				"name", item.Name,
				"duration_seconds", *item.DurationSeconds,
			)
			continue
		}

		start := time.Unix(*item.StartTimeSeconds, 0).UTC()
		end := start.Add(time.Duration(*item.DurationSeconds) * time.Second)

		contests = append(contests, types.Contest{
			Platform:        types.PlatformCodeforces,
			Name:            item.Name,
			URL:             fmt.Sprintf("https://codeforces.com/contest/%d", *item.ID),
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: roundSecondsToMinutes(*item.DurationSeconds),
			Status:          types.Classify(now, start, end),
		})
	}
	return contests, nil
}

var _ Adapter = (*CodeforcesAdapter)(nil)
