// Package cache implements the read-through cache in front of the contest
// listing queries. It is an optimization, never a correctness dependency:
// every Redis failure degrades to a cache miss (reads) or a no-op (writes and
// invalidations) with a warning log, so an unreachable Redis slows the API
// down but cannot break it.
//
// Values are JSON-encoded; payloads above a size threshold are additionally
// zstd-compressed with a one-byte scheme marker so entries written by older
// processes stay readable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

// compressThreshold is the encoded-payload size above which values are
// zstd-compressed before being stored.
const compressThreshold = 1 << 10 // 1 KiB

// Scheme markers prepended to every stored value.
const (
	schemeRaw  byte = 'r'
	schemeZstd byte = 'z'
)

// ErrMiss is returned by the backend when a key does not exist. The Store
// never surfaces it to callers; Get reports a plain boolean.
var ErrMiss = errors.New("cache: miss")

// Backend is the minimal key/value command set the Store needs. It is
// satisfied by redisBackend in production and by an in-memory fake in tests.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// ScanKeys returns all keys matching the glob pattern.
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// Store is the TTL key/value cache used by the contest query path and
// invalidated by the ingestion pipeline.
type Store struct {
	backend Backend
	logger  *slog.Logger
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewStore creates a Store on top of the given backend.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	// Errors are impossible with default options.
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &Store{
		backend: backend,
		logger:  logger,
		enc:     enc,
		dec:     dec,
	}
}

// Get loads the value stored under key into dest and reports whether the key
// was found. Any backend or decoding failure is logged and treated as a miss.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			s.logger.WarnContext(ctx, "cache read failed, treating as miss",
				"key", key,
				"error", err,
			)
		}
		return false
	}
	if len(raw) < 1 {
		return false
	}

	payload := raw[1:]
	switch raw[0] {
	case schemeZstd:
		payload, err = s.dec.DecodeAll(payload, nil)
		if err != nil {
			s.logger.WarnContext(ctx, "cache entry decompression failed, treating as miss",
				"key", key,
				"error", err,
			)
			return false
		}
	case schemeRaw:
		// Payload is plain JSON.
	default:
		s.logger.WarnContext(ctx, "cache entry has unknown scheme marker, treating as miss",
			"key", key,
		)
		return false
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		s.logger.WarnContext(ctx, "cache entry decode failed, treating as miss",
			"key", key,
			"error", err,
		)
		return false
	}
	return true
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed; the caller has already computed the value and can serve it.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.WarnContext(ctx, "cache value encode failed, skipping set",
			"key", key,
			"error", err,
		)
		return
	}

	scheme := schemeRaw
	if len(payload) > compressThreshold {
		payload = s.enc.EncodeAll(payload, nil)
		scheme = schemeZstd
	}

	buf := make([]byte, 0, len(payload)+1)
	buf = append(buf, scheme)
	buf = append(buf, payload...)

	if err := s.backend.Set(ctx, key, buf, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed, skipping set",
			"key", key,
			"error", err,
		)
	}
}

// Delete removes the given keys. Failures are logged and swallowed.
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.backend.Del(ctx, keys...); err != nil {
		s.logger.WarnContext(ctx, "cache delete failed",
			"keys", keys,
			"error", err,
		)
	}
}

// DeletePrefix removes every key starting with prefix. Invalidation must
// cover all page/limit variants of a listing, so prefixes are scanned rather
// than enumerating keys; a scan failure is logged and the affected entries
// simply expire via their TTL.
func (s *Store) DeletePrefix(ctx context.Context, prefix string) {
	keys, err := s.backend.ScanKeys(ctx, prefix+"*")
	if err != nil {
		s.logger.WarnContext(ctx, "cache prefix scan failed, entries will expire via TTL",
			"prefix", prefix,
			"error", err,
		)
		return
	}
	if len(keys) == 0 {
		return
	}
	s.Delete(ctx, keys...)
}

// InvalidateContestListings removes every contest-listing entry: upcoming and
// past pages plus all platform-filter variants. Called after any write that
// changes contest data. Over-invalidation is accepted; under-invalidation
// would serve stale data.
func (s *Store) InvalidateContestListings(ctx context.Context) {
	s.DeletePrefix(ctx, PrefixUpcoming)
	s.DeletePrefix(ctx, PrefixPast)
	s.DeletePrefix(ctx, PrefixFilter)
}

// redisBackend adapts a go-redis client to the Backend interface.
type redisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps a go-redis client for use with NewStore.
func NewRedisBackend(client *redis.Client) Backend {
	return &redisBackend{client: client}
}

func (b *redisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

func (b *redisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *redisBackend) Del(ctx context.Context, keys ...string) error {
	return b.client.Del(ctx, keys...).Err()
}

func (b *redisBackend) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
