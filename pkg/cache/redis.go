// Package cache is a small JSON-over-Redis cache. A nil *Store is valid and
// behaves as a cache that never hits, so callers need no feature checks.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/souq/pkg/metrics"
)

// Store reads and writes JSON values under a key prefix.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// Connect dials addr and verifies it with PING.
func Connect(ctx context.Context, addr, password, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", addr, err)
	}
	return New(rdb, prefix), nil
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(k string) string { return s.prefix + k }

// Get decodes the value at key into dest and reports a hit. keySpace labels
// the hit/miss metrics.
func (s *Store) Get(ctx context.Context, keySpace, key string, dest any) bool {
	if s == nil {
		return false
	}
	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil || json.Unmarshal(val, dest) != nil {
		metrics.CacheMisses.WithLabelValues(keySpace).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(keySpace).Inc()
	return true
}

// Set stores value for ttl.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(key), data, ttl).Err()
}

// Del removes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if s == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}

// Ping checks the connection; a nil Store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.rdb.Ping(ctx).Err()
}
