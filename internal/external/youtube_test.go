package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeClient_FetchAll_PagesThroughPlaylist(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		requests = append(requests, q.Get("pageToken"))
		assert.Equal(t, "snippet", q.Get("part"))
		assert.Equal(t, "PL-test", q.Get("playlistId"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			fmt.Fprint(w, `{
				"nextPageToken": "page2",
				"items": [
					{"snippet": {"title": "Starters 120 solutions", "resourceId": {"videoId": "vid1"}}},
					{"snippet": {"title": "Deleted video", "resourceId": {"videoId": ""}}}
				]
			}`)
			return
		}
		fmt.Fprint(w, `{
			"items": [
				{"snippet": {"title": "Starters 121 solutions", "resourceId": {"videoId": "vid2"}}}
			]
		}`)
	}))
	defer srv.Close()

	client := NewYouTubeClient(srv.Client(), YouTubeClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	videos, err := client.FetchAll(context.Background(), "PL-test")
	require.NoError(t, err)

	// Item without a videoId is skipped; both pages were fetched.
	require.Len(t, videos, 2)
	assert.Equal(t, []string{"", "page2"}, requests)
	assert.Equal(t, "Starters 120 solutions", videos[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", videos[0].URL)
	assert.Equal(t, "vid2", videos[1].VideoID)
}

func TestYouTubeClient_FetchAll_PageErrorAbortsPlaylist(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("pageToken") == "" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{
				"nextPageToken": "page2",
				"items": [{"snippet": {"title": "A", "resourceId": {"videoId": "vid1"}}}]
			}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error": {"message": "quotaExceeded"}}`)
	}))
	defer srv.Close()

	client := NewYouTubeClient(srv.Client(), YouTubeClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	_, err := client.FetchAll(context.Background(), "PL-test")
	require.Error(t, err, "a partial playlist would silently shrink the match set")
	assert.Equal(t, 2, calls)
}
