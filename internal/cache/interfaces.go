// Package cache provides the key/value backends behind the marketplace listing cache.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-key expiry.
// MemoryCache serves single-instance deployments and tests; RedisCache is
// shared between instances.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetMany retrieves several keys at once. Missing keys are absent from the result.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Purge removes expired entries the backend does not expire on its own
	// and returns how many were removed.
	Purge(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
