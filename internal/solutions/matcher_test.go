package solutions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

func TestMatchVideos_CaseInsensitiveSubstring(t *testing.T) {
	contests := []types.Contest{
		{ID: "c_1", Name: "Starters 120"},
	}
	videos := []types.PlaylistVideo{
		{Title: "CodeChef STARTERS 120 | Full Solutions", URL: "https://www.youtube.com/watch?v=a"},
		{Title: "Unrelated editorial", URL: "https://www.youtube.com/watch?v=b"},
	}

	updates := MatchVideos(contests, videos)
	require.Len(t, updates, 1)
	assert.Equal(t, "c_1", updates[0].ContestID)
	assert.Equal(t, "https://www.youtube.com/watch?v=a", updates[0].VideoURL)
}

func TestMatchVideos_LongestNameWins(t *testing.T) {
	// Both names occur in the title; the more specific contest gets the
	// video.
	contests := []types.Contest{
		{ID: "c_short", Name: "Weekly Contest 43"},
		{ID: "c_long", Name: "Weekly Contest 430"},
	}
	videos := []types.PlaylistVideo{
		{Title: "LeetCode Weekly Contest 430 screencast", URL: "https://www.youtube.com/watch?v=a"},
	}

	updates := MatchVideos(contests, videos)
	require.Len(t, updates, 1)
	assert.Equal(t, "c_long", updates[0].ContestID)
}

func TestMatchVideos_EqualLengthTieBreaksLexicographically(t *testing.T) {
	contests := []types.Contest{
		{ID: "c_b", Name: "Round B"},
		{ID: "c_a", Name: "Round A"},
	}
	videos := []types.PlaylistVideo{
		{Title: "Solutions for Round A and Round B", URL: "https://www.youtube.com/watch?v=a"},
	}

	updates := MatchVideos(contests, videos)
	require.Len(t, updates, 1)
	assert.Equal(t, "c_a", updates[0].ContestID)
}

func TestMatchVideos_LaterVideoOverwrites(t *testing.T) {
	contests := []types.Contest{
		{ID: "c_1", Name: "Starters 120"},
	}
	videos := []types.PlaylistVideo{
		{Title: "Starters 120 part 1", URL: "https://www.youtube.com/watch?v=old"},
		{Title: "Starters 120 complete solutions", URL: "https://www.youtube.com/watch?v=new"},
	}

	updates := MatchVideos(contests, videos)
	require.Len(t, updates, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=new", updates[0].VideoURL)
}

// --- Run tests ---

type fakeFetcher struct {
	videos map[string][]types.PlaylistVideo
	errs   map[string]error
}

func (f *fakeFetcher) FetchAll(_ context.Context, playlistID string) ([]types.PlaylistVideo, error) {
	if err := f.errs[playlistID]; err != nil {
		return nil, err
	}
	return f.videos[playlistID], nil
}

type fakeMatcherStore struct {
	contests map[types.Platform][]types.Contest
	updates  []types.SolutionLinkUpdate
}

func (s *fakeMatcherStore) ListByPlatform(_ context.Context, platform types.Platform) ([]types.Contest, error) {
	return s.contests[platform], nil
}

func (s *fakeMatcherStore) BulkUpdateSolutionLinks(_ context.Context, updates []types.SolutionLinkUpdate) (int64, error) {
	s.updates = append(s.updates, updates...)
	return int64(len(updates)), nil
}

type fakeCache struct {
	invalidations int
}

func (f *fakeCache) InvalidateContestListings(context.Context) { f.invalidations++ }

func TestMatcher_Run_IsolatesPlaylistFailure(t *testing.T) {
	store := &fakeMatcherStore{
		contests: map[types.Platform][]types.Contest{
			types.PlatformCodeforces: {{ID: "cf_1", Name: "Codeforces Round 900"}},
			types.PlatformLeetCode:   {{ID: "lc_1", Name: "Weekly Contest 430"}},
		},
	}
	cache := &fakeCache{}
	m := NewMatcher(MatcherConfig{
		Fetcher: &fakeFetcher{
			videos: map[string][]types.PlaylistVideo{
				"pl-lc": {{Title: "Weekly Contest 430 solutions", URL: "https://www.youtube.com/watch?v=a"}},
			},
			errs: map[string]error{"pl-cf": errors.New("quota exceeded")},
		},
		Store: store,
		Playlists: map[types.Platform]string{
			types.PlatformCodeforces: "pl-cf",
			types.PlatformLeetCode:   "pl-lc",
		},
		Cache: cache,
	})

	result, err := m.Run(context.Background())
	require.NoError(t, err, "a playlist failure never fails the run")

	assert.Len(t, result.PlatformErrs, 1)
	assert.Error(t, result.PlatformErrs[types.PlatformCodeforces])
	assert.Equal(t, 1, result.ContestsMatched)
	assert.Equal(t, int64(1), result.RowsUpdated)

	require.Len(t, store.updates, 1)
	assert.Equal(t, "lc_1", store.updates[0].ContestID)
	assert.Equal(t, 1, cache.invalidations)
}

func TestMatcher_Run_NoMatchesIsNoOp(t *testing.T) {
	store := &fakeMatcherStore{
		contests: map[types.Platform][]types.Contest{
			types.PlatformCodeChef: {{ID: "cc_1", Name: "Starters 120"}},
		},
	}
	cache := &fakeCache{}
	m := NewMatcher(MatcherConfig{
		Fetcher: &fakeFetcher{
			videos: map[string][]types.PlaylistVideo{
				"pl-cc": {{Title: "totally unrelated video", URL: "https://www.youtube.com/watch?v=x"}},
			},
		},
		Store:     store,
		Playlists: map[types.Platform]string{types.PlatformCodeChef: "pl-cc"},
		Cache:     cache,
	})

	result, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ContestsMatched)
	assert.Empty(t, store.updates)
	assert.Equal(t, 0, cache.invalidations, "no writes, no invalidation")
}

func TestMatcher_Run_Idempotent(t *testing.T) {
	store := &fakeMatcherStore{
		contests: map[types.Platform][]types.Contest{
			types.PlatformLeetCode: {{ID: "lc_1", Name: "Weekly Contest 430"}},
		},
	}
	m := NewMatcher(MatcherConfig{
		Fetcher: &fakeFetcher{
			videos: map[string][]types.PlaylistVideo{
				"pl-lc": {{Title: "Weekly Contest 430 solutions", URL: "https://www.youtube.com/watch?v=a"}},
			},
		},
		Store:     store,
		Playlists: map[types.Platform]string{types.PlatformLeetCode: "pl-lc"},
	})

	first, err := m.Run(context.Background())
	require.NoError(t, err)
	second, err := m.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.ContestsMatched, second.ContestsMatched)
	require.Len(t, store.updates, 2)
	assert.Equal(t, store.updates[0], store.updates[1], "re-running writes the same link")
}
