package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

func TestLeetCodeAdapter_FetchAndNormalize(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body["query"], "allContests")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"allContests": [
					{
						"title": "Weekly Contest 430",
						"titleSlug": "weekly-contest-430",
						"startTime": 1772373600,
						"duration": 5400
					},
					{
						"title": "Biweekly Contest 120",
						"titleSlug": "",
						"startTime": 1772373600,
						"duration": 5400
					}
				]
			}
		}`))
	}))
	defer srv.Close()

	adapter := NewLeetCodeAdapter(srv.Client(), srv.URL, nil)
	contests, err := adapter.FetchAndNormalize(context.Background(), now)
	require.NoError(t, err)

	// The entry without a slug is skipped.
	require.Len(t, contests, 1)
	c := contests[0]
	assert.Equal(t, types.PlatformLeetCode, c.Platform)
	assert.Equal(t, "https://leetcode.com/contest/weekly-contest-430", c.URL)
	assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC), c.StartTime)
	assert.Equal(t, time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC), c.EndTime)
	assert.Equal(t, 90, c.DurationMinutes)
	assert.Equal(t, types.StatusUpcoming, c.Status)
}

func TestLeetCodeAdapter_GraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errors": [{"message": "rate limited"}]}`))
	}))
	defer srv.Close()

	adapter := NewLeetCodeAdapter(srv.Client(), srv.URL, nil)
	_, err := adapter.FetchAndNormalize(context.Background(), time.Now())
	require.Error(t, err)
}
