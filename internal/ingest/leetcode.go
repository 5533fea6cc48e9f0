package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"contesthub/internal/external"
	"contesthub/internal/types"
)

// leetcodeContestQuery fetches every contest with the fields needed for
// normalization. LeetCode exposes no REST contest list; this is the same
// query its own frontend issues.
const leetcodeContestQuery = `{ allContests { title titleSlug startTime duration } }`

// LeetCodeAdapter ingests contests from the LeetCode GraphQL endpoint.
type LeetCodeAdapter struct {
	base   *external.BaseClient
	url    string
	logger *slog.Logger
}

// NewLeetCodeAdapter creates a LeetCodeAdapter posting to graphqlURL.
func NewLeetCodeAdapter(httpClient *http.Client, graphqlURL string, logger *slog.Logger) *LeetCodeAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeetCodeAdapter{
		base:   external.NewBaseClient(httpClient, "leetcode", external.DefaultRetryPolicy(), "ContestHub/1.0"),
		url:    graphqlURL,
		logger: logger,
	}
}

// Platform implements Adapter.
func (a *LeetCodeAdapter) Platform() types.Platform {
	return types.PlatformLeetCode
}

type leetcodeContest struct {
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
	// StartTime is epoch seconds; Duration is seconds.
	StartTime *int64 `json:"startTime"`
	Duration  *int64 `json:"duration"`
}

type leetcodeResponse struct {
	Data struct {
		AllContests []leetcodeContest `json:"allContests"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchAndNormalize implements Adapter.
func (a *LeetCodeAdapter) FetchAndNormalize(ctx context.Context, now time.Time) ([]types.Contest, error) {
	body, err := json.Marshal(map[string]string{"query": leetcodeContestQuery})
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode leetcode query", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create leetcode request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(types.ErrCodeUpstreamProvider,
			fmt.Sprintf("leetcode returned %d", resp.StatusCode), nil)
	}

	var payload leetcodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamMalformed, "failed to decode leetcode response", err)
	}
	if len(payload.Errors) > 0 {
		return nil, types.NewAppError(types.ErrCodeUpstreamProvider,
			fmt.Sprintf("leetcode graphql error: %s", payload.Errors[0].Message), nil)
	}

	contests := make([]types.Contest, 0, len(payload.Data.AllContests))
	for _, item := range payload.Data.AllContests {
		if item.Title == "" || item.TitleSlug == "" || item.StartTime == nil || item.Duration == nil {
			a.logger.WarnContext(ctx, "skipping leetcode contest with missing fields",
				"title", item.Title,
				"slug", item.TitleSlug,
			)
			continue
		}
		if *item.Duration <= 0 {
			a.logger.WarnContext(ctx, "skipping leetcode contest with non-positive duration",
				"title", item.Title,
				"duration", *item.Duration,
			)
			continue
		}

		start := time.Unix(*item.StartTime, 0).UTC()
		end := start.Add(time.Duration(*item.Duration) * time.Second)

		contests = append(contests, types.Contest{
			Platform:        types.PlatformLeetCode,
			Name:            item.Title,
			URL:             "https://leetcode.com/contest/" + item.TitleSlug,
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: roundSecondsToMinutes(*item.Duration),
			Status:          types.Classify(now, start, end),
		})
	}
	return contests, nil
}

var _ Adapter = (*LeetCodeAdapter)(nil)
