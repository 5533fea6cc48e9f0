package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

type statusCall struct {
	filter types.ContestStatusFilter
	status types.ContestStatus
}

type fakeStatusStore struct {
	calls   []statusCall
	moved   map[types.ContestStatus]int64
	failOn  types.ContestStatus
	failErr error
}

func (s *fakeStatusStore) UpdateManyStatus(_ context.Context, filter types.ContestStatusFilter, status types.ContestStatus) (int64, error) {
	if s.failOn == status && s.failErr != nil {
		return 0, s.failErr
	}
	s.calls = append(s.calls, statusCall{filter: filter, status: status})
	return s.moved[status], nil
}

type fakeSweepCache struct {
	invalidations int
}

func (f *fakeSweepCache) InvalidateContestListings(context.Context) { f.invalidations++ }

func TestSweepService_Run_TransitionsInOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	store := &fakeStatusStore{moved: map[types.ContestStatus]int64{
		types.StatusPast:    3,
		types.StatusOngoing: 1,
	}}
	cache := &fakeSweepCache{}

	s := NewSweepService(SweepConfig{
		Store: store,
		Cache: cache,
		Now:   func() time.Time { return now },
	})

	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.ToPast)
	assert.Equal(t, int64(1), result.ToOngoing)
	assert.Equal(t, int64(0), result.ToUpcoming)
	assert.Equal(t, int64(4), result.Total())

	require.Len(t, store.calls, 3)

	// Past first: rows at their end boundary must not match the ongoing
	// filter afterwards.
	past := store.calls[0]
	assert.Equal(t, types.StatusPast, past.status)
	require.NotNil(t, past.filter.EndAtOrBefore)
	assert.Equal(t, now, *past.filter.EndAtOrBefore)
	assert.Equal(t, types.StatusPast, past.filter.NotStatus)

	ongoing := store.calls[1]
	assert.Equal(t, types.StatusOngoing, ongoing.status)
	require.NotNil(t, ongoing.filter.StartAtOrBefore)
	require.NotNil(t, ongoing.filter.EndAfter)

	upcoming := store.calls[2]
	assert.Equal(t, types.StatusUpcoming, upcoming.status)
	require.NotNil(t, upcoming.filter.StartAfter)

	assert.Equal(t, 1, cache.invalidations)
}

func TestSweepService_Run_NoChangesNoInvalidation(t *testing.T) {
	store := &fakeStatusStore{moved: map[types.ContestStatus]int64{}}
	cache := &fakeSweepCache{}

	s := NewSweepService(SweepConfig{Store: store, Cache: cache})
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total())
	assert.Equal(t, 0, cache.invalidations)
}

func TestSweepService_Run_StopsOnStoreError(t *testing.T) {
	store := &fakeStatusStore{
		moved:   map[types.ContestStatus]int64{},
		failOn:  types.StatusOngoing,
		failErr: errors.New("connection refused"),
	}
	s := NewSweepService(SweepConfig{Store: store})

	_, err := s.Run(context.Background())
	require.Error(t, err)
	// Only the past transition ran before the failure.
	require.Len(t, store.calls, 1)
	assert.Equal(t, types.StatusPast, store.calls[0].status)
}
