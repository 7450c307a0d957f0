package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/cache"
	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

// kvEntry is the value stored per release id.
type kvEntry struct {
	CachedAt int64                      `json:"cached_at"`
	Listings []model.MarketplaceListing `json:"listings"`
}

// KVMarketplaceStore caches marketplace listings in a key/value backend,
// one value per release id. The backend expires values after the TTL; the
// store also checks the stamp against its own clock.
type KVMarketplaceStore struct {
	kv    cache.Cache
	ttl   time.Duration
	clock Clock
	locks *keyLocks
	log   *zap.Logger
}

func NewKVMarketplaceStore(kv cache.Cache, ttl time.Duration, clock Clock, log *zap.Logger) *KVMarketplaceStore {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &KVMarketplaceStore{
		kv:    kv,
		ttl:   ttl,
		clock: clock,
		locks: newKeyLocks(),
		log:   log.Named("marketplace_kv_store"),
	}
}

func (s *KVMarketplaceStore) IsValid(ctx context.Context, releaseID int64) (bool, error) {
	entry, err := s.get(ctx, releaseID)
	if err != nil {
		return false, err
	}
	return entry != nil && s.fresh(entry), nil
}

func (s *KVMarketplaceStore) MissingReleaseIDs(ctx context.Context, releaseIDs []int64) ([]int64, error) {
	entries, err := s.getMany(ctx, releaseIDs)
	if err != nil {
		return nil, err
	}

	missing := make([]int64, 0, len(releaseIDs))
	seen := make(map[int64]struct{}, len(releaseIDs))
	for _, id := range releaseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := entries[id]; !ok || !s.fresh(e) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *KVMarketplaceStore) ReadReleases(ctx context.Context, releaseIDs []int64) ([]model.MarketplaceListing, error) {
	entries, err := s.getMany(ctx, releaseIDs)
	if err != nil {
		return nil, err
	}

	listings := make([]model.MarketplaceListing, 0)
	seen := make(map[int64]struct{}, len(releaseIDs))
	for _, id := range releaseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if e, ok := entries[id]; ok {
			listings = append(listings, e.Listings...)
		}
	}
	return listings, nil
}

func (s *KVMarketplaceStore) Replace(ctx context.Context, releaseID int64, listings []model.MarketplaceListing) error {
	key := releaseKey(releaseID)
	unlock := s.locks.Lock(key)
	defer unlock()

	data, err := json.Marshal(kvEntry{
		CachedAt: s.clock().UnixMilli(),
		Listings: DedupeMarketplaceListings(releaseID, listings),
	})
	if err != nil {
		return apierror.CacheWriteFailure(fmt.Errorf("failed to encode listings for release %d: %w", releaseID, err))
	}

	if err := s.kv.Set(ctx, key, data, s.ttl); err != nil {
		return apierror.CacheWriteFailure(fmt.Errorf("failed to store listings for release %d: %w", releaseID, err))
	}
	return nil
}

func (s *KVMarketplaceStore) Clear(ctx context.Context, releaseID int64) error {
	key := releaseKey(releaseID)
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.kv.Delete(ctx, key); err != nil {
		return apierror.CacheWriteFailure(fmt.Errorf("failed to clear listings for release %d: %w", releaseID, err))
	}
	return nil
}

func (s *KVMarketplaceStore) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.kv.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge marketplace cache: %w", err)
	}
	if removed > 0 {
		s.log.Info("swept expired listings", zap.Int64("deleted", removed))
	}
	return removed, nil
}

func (s *KVMarketplaceStore) fresh(e *kvEntry) bool {
	return e.CachedAt > validSince(s.clock, s.ttl)
}

func (s *KVMarketplaceStore) get(ctx context.Context, releaseID int64) (*kvEntry, error) {
	data, err := s.kv.Get(ctx, releaseKey(releaseID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, apierror.CacheReadFailure(fmt.Errorf("failed to read listings for release %d: %w", releaseID, err))
	}

	var e kvEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, apierror.CacheReadFailure(fmt.Errorf("failed to decode listings for release %d: %w", releaseID, err))
	}
	return &e, nil
}

func (s *KVMarketplaceStore) getMany(ctx context.Context, releaseIDs []int64) (map[int64]*kvEntry, error) {
	keys := make([]string, len(releaseIDs))
	ids := make(map[string]int64, len(releaseIDs))
	for i, id := range releaseIDs {
		keys[i] = releaseKey(id)
		ids[keys[i]] = id
	}

	raw, err := s.kv.GetMany(ctx, keys)
	if err != nil {
		return nil, apierror.CacheReadFailure(fmt.Errorf("failed to read marketplace listings: %w", err))
	}

	entries := make(map[int64]*kvEntry, len(raw))
	for k, data := range raw {
		var e kvEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to decode listings for release %s: %w", k, err))
		}
		entries[ids[k]] = &e
	}
	return entries, nil
}
