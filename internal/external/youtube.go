package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contesthub/internal/types"
)

// playlistPageSize is the maximum page size the playlist API allows.
const playlistPageSize = 50

// YouTubeClientConfig holds the configuration for creating a YouTubeClient.
type YouTubeClientConfig struct {
	APIKey  string
	BaseURL string // e.g. https://www.googleapis.com/youtube/v3
	Logger  *slog.Logger
}

// YouTubeClient implements PlaylistFetcher against the YouTube Data API v3
// playlistItems endpoint, routed through BaseClient for circuit breaking and
// retries.
type YouTubeClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// NewYouTubeClient creates a YouTubeClient. The httpClient should carry the
// provider timeout.
func NewYouTubeClient(httpClient *http.Client, cfg YouTubeClientConfig) *YouTubeClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBaseClient(
		httpClient,
		"youtube",
		RetryPolicy{
			MaxRetries: 2,
			MinWait:    500 * time.Millisecond,
			MaxWait:    5 * time.Second,
		},
		"ContestHub/1.0",
	)
	return &YouTubeClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// NewYouTubeClientWithBase creates a YouTubeClient with a pre-configured
// BaseClient. Useful for tests that want to disable retries.
func NewYouTubeClientWithBase(base *BaseClient, cfg YouTubeClientConfig) *YouTubeClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTubeClient{
		base:    base,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}
}

// playlistItemsResponse is the subset of the playlistItems payload the
// matcher consumes.
type playlistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title      string `json:"title"`
			ResourceID struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
		} `json:"snippet"`
	} `json:"items"`
}

// FetchAll pages through the playlist, following nextPageToken until the
// provider stops returning one, and collects every video entry. Items
// without a videoId (deleted or private videos) are skipped. Any page
// failure aborts the whole playlist fetch; partial playlists would silently
// shrink the match set.
func (y *YouTubeClient) FetchAll(ctx context.Context, playlistID string) ([]types.PlaylistVideo, error) {
	var all []types.PlaylistVideo
	pageToken := ""

	for {
		page, err := y.fetchPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, fmt.Errorf("fetching playlist %s page: %w", playlistID, err)
		}

		for _, item := range page.Items {
			videoID := item.Snippet.ResourceID.VideoID
			if videoID == "" {
				continue
			}
			all = append(all, types.PlaylistVideo{
				Title:   item.Snippet.Title,
				VideoID: videoID,
				URL:     "https://www.youtube.com/watch?v=" + videoID,
			})
		}

		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// fetchPage retrieves a single playlistItems page.
func (y *YouTubeClient) fetchPage(ctx context.Context, playlistID, pageToken string) (*playlistItemsResponse, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("maxResults", fmt.Sprintf("%d", playlistPageSize))
	params.Set("playlistId", playlistID)
	params.Set("key", y.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	reqURL := y.baseURL + "/playlistItems?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create playlist request",
			err,
		)
	}

	resp, err := y.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, types.NewAppError(
			types.ErrCodeUpstreamPlaylist,
			fmt.Sprintf("playlist API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			nil,
		)
	}

	var page playlistItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamMalformed,
			"failed to decode playlist page",
			err,
		)
	}
	return &page, nil
}

// Compile-time assertion that YouTubeClient satisfies PlaylistFetcher.
var _ PlaylistFetcher = (*YouTubeClient)(nil)
