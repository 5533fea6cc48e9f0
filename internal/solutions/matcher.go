// Package solutions links persisted contests to solution videos from
// curated playlists. Matching is textual: a video belongs to a contest when
// the contest's name appears as a case-insensitive substring of the video
// title. Each platform is matched against its own playlist so a Codeforces
// video can never attach to a LeetCode contest.
package solutions

import (
	"context"
	"log/slog"
	"strings"

	"contesthub/internal/external"
	"contesthub/internal/types"
)

// ContestStore is the subset of the contest repository the matcher needs.
type ContestStore interface {
	ListByPlatform(ctx context.Context, platform types.Platform) ([]types.Contest, error)
	BulkUpdateSolutionLinks(ctx context.Context, updates []types.SolutionLinkUpdate) (int64, error)
}

// Invalidator drops cached contest listings after links change.
type Invalidator interface {
	InvalidateContestListings(ctx context.Context)
}

// MatcherConfig carries the dependencies for NewMatcher.
type MatcherConfig struct {
	Fetcher   external.PlaylistFetcher
	Store     ContestStore
	Playlists map[types.Platform]string
	Cache     Invalidator // optional
	Logger    *slog.Logger
}

// Matcher runs the playlist-to-contest linking pass.
type Matcher struct {
	fetcher   external.PlaylistFetcher
	store     ContestStore
	playlists map[types.Platform]string
	cache     Invalidator
	logger    *slog.Logger
}

// NewMatcher creates a Matcher from cfg.
func NewMatcher(cfg MatcherConfig) *Matcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{
		fetcher:   cfg.Fetcher,
		store:     cfg.Store,
		playlists: cfg.Playlists,
		cache:     cfg.Cache,
		logger:    logger,
	}
}

// RunResult summarizes one matching pass.
type RunResult struct {
	VideosScanned   int
	ContestsMatched int
	RowsUpdated     int64
	PlatformErrs    map[types.Platform]error
}

// Run fetches every configured playlist and persists the resulting links.
// A failing playlist skips only its platform. Re-running against unchanged
// playlists is idempotent: the same video matches the same contest, and the
// update writes the same URL.
func (m *Matcher) Run(ctx context.Context) (RunResult, error) {
	result := RunResult{PlatformErrs: make(map[types.Platform]error)}

	var updates []types.SolutionLinkUpdate
	for _, platform := range types.AllPlatforms {
		playlistID, ok := m.playlists[platform]
		if !ok || playlistID == "" {
			continue
		}

		videos, err := m.fetcher.FetchAll(ctx, playlistID)
		if err != nil {
			m.logger.ErrorContext(ctx, "playlist fetch failed",
				"platform", platform,
				"playlist_id", playlistID,
				"error", err,
			)
			result.PlatformErrs[platform] = err
			continue
		}
		result.VideosScanned += len(videos)

		contests, err := m.store.ListByPlatform(ctx, platform)
		if err != nil {
			m.logger.ErrorContext(ctx, "loading contests for matching failed",
				"platform", platform,
				"error", err,
			)
			result.PlatformErrs[platform] = err
			continue
		}

		matched := MatchVideos(contests, videos)
		result.ContestsMatched += len(matched)
		updates = append(updates, matched...)
	}

	if len(updates) > 0 {
		updated, err := m.store.BulkUpdateSolutionLinks(ctx, updates)
		if err != nil {
			return result, err
		}
		result.RowsUpdated = updated
		if updated > 0 && m.cache != nil {
			m.cache.InvalidateContestListings(ctx)
		}
	}

	m.logger.InfoContext(ctx, "solution matching finished",
		"videos_scanned", result.VideosScanned,
		"contests_matched", result.ContestsMatched,
		"rows_updated", result.RowsUpdated,
		"failed_platforms", len(result.PlatformErrs),
	)
	return result, nil
}

// MatchVideos pairs contests with videos whose titles contain the contest
// name. When several contest names occur in one title, the longest name wins;
// equal lengths break ties toward the lexicographically smaller name. Later
// videos for the same contest overwrite earlier ones, so the newest playlist
// entry is the one that sticks.
func MatchVideos(contests []types.Contest, videos []types.PlaylistVideo) []types.SolutionLinkUpdate {
	byContest := make(map[string]types.SolutionLinkUpdate)
	order := make([]string, 0)

	for _, video := range videos {
		title := strings.ToLower(video.Title)

		var best *types.Contest
		for i := range contests {
			c := &contests[i]
			if c.Name == "" || !strings.Contains(title, strings.ToLower(c.Name)) {
				continue
			}
			if best == nil ||
				len(c.Name) > len(best.Name) ||
				(len(c.Name) == len(best.Name) && c.Name < best.Name) {
				best = c
			}
		}
		if best == nil {
			continue
		}

		if _, seen := byContest[best.ID]; !seen {
			order = append(order, best.ID)
		}
		byContest[best.ID] = types.SolutionLinkUpdate{
			ContestID: best.ID,
			VideoURL:  video.URL,
		}
	}

	updates := make([]types.SolutionLinkUpdate, 0, len(byContest))
	for _, id := range order {
		updates = append(updates, byContest[id])
	}
	return updates
}
