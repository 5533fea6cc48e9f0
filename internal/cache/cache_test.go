package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contesthub/internal/types"
)

// memBackend is an in-memory Backend for tests. Error fields let individual
// tests simulate an unhealthy Redis.
type memBackend struct {
	entries map[string][]byte
	ttls    map[string]time.Duration

	getErr  error
	setErr  error
	scanErr error
}

func newMemBackend() *memBackend {
	return &memBackend{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (b *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	raw, ok := b.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return raw, nil
}

func (b *memBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.entries[key] = value
	b.ttls[key] = ttl
	return nil
}

func (b *memBackend) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(b.entries, k)
	}
	return nil
}

func (b *memBackend) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	if b.scanErr != nil {
		return nil, b.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range b.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func TestStore_SetGet_Roundtrip(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend, nil)
	ctx := context.Background()

	page := types.ContestPage{
		Contests: []types.Contest{{
			ID:       "c_1",
			Platform: types.PlatformCodeforces,
			Name:     "Codeforces Round 900",
			Status:   types.StatusUpcoming,
		}},
		Pagination: types.Pagination{CurrentPage: 1, TotalPages: 1, TotalContests: 1, Limit: 10},
	}
	key := KeyUpcoming(1, 10)
	store.Set(ctx, key, page, ListingTTL)
	assert.Equal(t, ListingTTL, backend.ttls[key])

	var got types.ContestPage
	require.True(t, store.Get(ctx, key, &got))
	assert.Equal(t, page, got)
}

func TestStore_Get_MissingKey(t *testing.T) {
	store := NewStore(newMemBackend(), nil)

	var got types.ContestPage
	assert.False(t, store.Get(context.Background(), KeyUpcoming(1, 10), &got))
}

func TestStore_Get_BackendFailureDegradesToMiss(t *testing.T) {
	backend := newMemBackend()
	backend.getErr = errors.New("connection refused")
	store := NewStore(backend, nil)

	var got types.ContestPage
	assert.False(t, store.Get(context.Background(), KeyUpcoming(1, 10), &got))
}

func TestStore_Set_BackendFailureIsSwallowed(t *testing.T) {
	backend := newMemBackend()
	backend.setErr = errors.New("connection refused")
	store := NewStore(backend, nil)

	// Must not panic or surface the error.
	store.Set(context.Background(), KeyUpcoming(1, 10), "value", ListingTTL)
}

func TestStore_Get_CorruptEntryDegradesToMiss(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend, nil)
	ctx := context.Background()

	backend.entries["bad-scheme"] = []byte{'x', '{', '}'}
	backend.entries["bad-json"] = []byte{schemeRaw, 'n', 'o', 't'}

	var got map[string]any
	assert.False(t, store.Get(ctx, "bad-scheme", &got))
	assert.False(t, store.Get(ctx, "bad-json", &got))
}

func TestStore_LargePayloadIsCompressed(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend, nil)
	ctx := context.Background()

	// Well past the compression threshold once JSON-encoded.
	large := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	store.Set(ctx, "big", large, time.Minute)

	raw := backend.entries["big"]
	require.NotEmpty(t, raw)
	assert.Equal(t, schemeZstd, raw[0])
	assert.Less(t, len(raw), len(large), "stored entry is smaller than the payload")

	var got string
	require.True(t, store.Get(ctx, "big", &got))
	assert.Equal(t, large, got)
}

func TestStore_InvalidateContestListings(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend, nil)
	ctx := context.Background()

	store.Set(ctx, KeyUpcoming(1, 10), "a", time.Minute)
	store.Set(ctx, KeyUpcoming(2, 10), "b", time.Minute)
	store.Set(ctx, KeyPast(1, 10), "c", time.Minute)
	store.Set(ctx, KeyFilter([]types.Platform{types.PlatformLeetCode}), "d", time.Minute)
	store.Set(ctx, KeyBookmark("u_1"), "e", time.Minute)

	store.InvalidateContestListings(ctx)

	assert.Len(t, backend.entries, 1, "bookmark entries survive listing invalidation")
	_, ok := backend.entries[KeyBookmark("u_1")]
	assert.True(t, ok)
}

func TestStore_InvalidateContestListings_ScanFailureIsSwallowed(t *testing.T) {
	backend := newMemBackend()
	store := NewStore(backend, nil)
	ctx := context.Background()

	store.Set(ctx, KeyUpcoming(1, 10), "a", time.Minute)
	backend.scanErr = errors.New("connection refused")

	// Entries stay behind and expire via TTL; the call must not fail.
	store.InvalidateContestListings(ctx)
	assert.Len(t, backend.entries, 1)
}

func TestKeyFilter_OrderIndependent(t *testing.T) {
	a := KeyFilter([]types.Platform{types.PlatformLeetCode, types.PlatformCodeforces})
	b := KeyFilter([]types.Platform{types.PlatformCodeforces, types.PlatformLeetCode})
	assert.Equal(t, a, b)
	assert.Equal(t, "contests:filter:Codeforces,LeetCode", a)
}
