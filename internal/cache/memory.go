package cache

import (
	"context"
	"sync"
	"time"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryCache is an in-memory implementation of Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMemoryCache creates an in-memory cache. now may be nil (time.Now).
// A positive cleanupInterval starts a goroutine that purges expired
// entries until Close.
func NewMemoryCache(now func() time.Time, cleanupInterval time.Duration) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	c := &MemoryCache{
		entries:     make(map[string]*cacheEntry),
		now:         now,
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.cleanup(cleanupInterval)
	}

	return c
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || entry.isExpired(c.now()) {
		return nil, ErrCacheMiss
	}

	result := make([]byte, len(entry.value))
	copy(result, entry.value)
	return result, nil
}

func (c *MemoryCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	found := make(map[string][]byte, len(keys))
	for _, key := range keys {
		entry, exists := c.entries[key]
		if !exists || entry.isExpired(now) {
			continue
		}
		v := make([]byte, len(entry.value))
		copy(v, entry.value)
		found[key] = v
	}
	return found, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	c.entries[key] = &cacheEntry{
		value:     valueCopy,
		expiresAt: c.now().Add(ttl),
	}

	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Purge(ctx context.Context) (int64, error) {
	return c.removeExpired(), nil
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background cleanup goroutine.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var removed int64
	for key, entry := range c.entries {
		if entry.isExpired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
