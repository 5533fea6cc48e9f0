package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

func TestCodeChefAdapter_BucketLabelWins(t *testing.T) {
	// The present_contests entry carries timestamps entirely in the past.
	// The bucket still decides the status: the provider knows better than
	// our clock (extensions, delays).
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"future_contests": [
				{
					"contest_code": "START121",
					"contest_name": "Starters 121",
					"contest_start_date_iso": "2026-03-04T14:30:00+05:30",
					"contest_end_date_iso": "2026-03-04T16:30:00+05:30",
					"contest_duration": "120"
				}
			],
			"present_contests": [
				{
					"contest_code": "START120",
					"contest_name": "Starters 120",
					"contest_start_date_iso": "2026-02-25T14:30:00+05:30",
					"contest_end_date_iso": "2026-02-25T16:30:00+05:30",
					"contest_duration": "120"
				}
			],
			"past_contests": []
		}`))
	}))
	defer srv.Close()

	adapter := NewCodeChefAdapter(srv.Client(), srv.URL, nil)
	contests, err := adapter.FetchAndNormalize(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, contests, 2)

	upcoming := contests[0]
	assert.Equal(t, types.StatusUpcoming, upcoming.Status)
	assert.Equal(t, "https://www.codechef.com/START121", upcoming.URL)
	// +05:30 offset converted to UTC.
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), upcoming.StartTime)

	ongoing := contests[1]
	assert.Equal(t, "Starters 120", ongoing.Name)
	assert.Equal(t, types.StatusOngoing, ongoing.Status, "present_contests entries stay ongoing regardless of timestamps")
	assert.Equal(t, 120, ongoing.DurationMinutes)
}

func TestCodeChefAdapter_SkipsMalformedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"future_contests": [
				{
					"contest_code": "BAD1",
					"contest_name": "Broken Dates",
					"contest_start_date_iso": "not-a-date",
					"contest_end_date_iso": "2026-03-04T16:30:00+05:30",
					"contest_duration": "120"
				},
				{
					"contest_code": "COOK150",
					"contest_name": "Cook-Off 150",
					"contest_start_date_iso": "2026-03-05T14:30:00+05:30",
					"contest_end_date_iso": "2026-03-05T17:00:00+05:30",
					"contest_duration": "garbage"
				}
			],
			"present_contests": [],
			"past_contests": []
		}`))
	}))
	defer srv.Close()

	adapter := NewCodeChefAdapter(srv.Client(), srv.URL, nil)
	contests, err := adapter.FetchAndNormalize(context.Background(), time.Now().UTC())
	require.NoError(t, err)

	// Broken dates drop the entry; a broken duration falls back to the
	// timestamp delta.
	require.Len(t, contests, 1)
	assert.Equal(t, "Cook-Off 150", contests[0].Name)
	assert.Equal(t, 150, contests[0].DurationMinutes)
}
