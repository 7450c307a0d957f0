package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

// maxInParams bounds the ids bound into one IN clause.
const maxInParams = 500

var marketplaceTable = cacheTable{kind: kindMarketplace, name: "marketplace_listings", ownerColumn: "release_id"}

type marketplaceRow struct {
	ReleaseID        int64  `db:"release_id"`
	Seq              int    `db:"seq"`
	Title            string `db:"title"`
	ResourceURL      string `db:"resource_url"`
	MediaCondition   string `db:"media_condition"`
	SleeveCondition  string `db:"sleeve_condition"`
	Price            string `db:"price"`
	Seller           string `db:"seller"`
	ShippingLocation string `db:"shipping_location"`
	CachedAt         int64  `db:"cached_at"`
}

const insertMarketplaceRow = `INSERT INTO marketplace_listings (release_id, seq, title, resource_url, media_condition, sleeve_condition,
		price, seller, shipping_location, cached_at)
	VALUES (:release_id, :seq, :title, :resource_url, :media_condition, :sleeve_condition,
		:price, :seller, :shipping_location, :cached_at)`

// SQLMarketplaceStore caches scraped marketplace listings per release id in
// the relational cache. Entries are shared by every user.
type SQLMarketplaceStore struct {
	db    *DB
	ttl   time.Duration
	clock Clock
	locks *keyLocks
	log   *zap.Logger
}

func NewSQLMarketplaceStore(db *DB, ttl time.Duration, clock Clock, log *zap.Logger) *SQLMarketplaceStore {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLMarketplaceStore{
		db:    db,
		ttl:   ttl,
		clock: clock,
		locks: newKeyLocks(),
		log:   log.Named("marketplace_store"),
	}
}

func (s *SQLMarketplaceStore) IsValid(ctx context.Context, releaseID int64) (bool, error) {
	valid, err := s.db.isEntryValid(ctx, kindMarketplace, releaseKey(releaseID), validSince(s.clock, s.ttl))
	if err != nil {
		return false, apierror.CacheReadFailure(fmt.Errorf("failed to check marketplace cache for release %d: %w", releaseID, err))
	}
	return valid, nil
}

func (s *SQLMarketplaceStore) MissingReleaseIDs(ctx context.Context, releaseIDs []int64) ([]int64, error) {
	since := validSince(s.clock, s.ttl)
	valid := make(map[string]struct{}, len(releaseIDs))

	for _, chunk := range chunkIDs(releaseIDs) {
		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = releaseKey(id)
		}

		query, args, err := sqlx.In(`SELECT owner FROM cache_entries WHERE kind = ? AND cached_at > ? AND owner IN (?)`, kindMarketplace, since, keys)
		if err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to build query: %w", err))
		}

		var owners []string
		if err := s.db.SelectContext(ctx, &owners, s.db.Rebind(query), args...); err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to query marketplace entries: %w", err))
		}
		for _, o := range owners {
			valid[o] = struct{}{}
		}
	}

	missing := make([]int64, 0, len(releaseIDs))
	seen := make(map[int64]struct{}, len(releaseIDs))
	for _, id := range releaseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := valid[releaseKey(id)]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *SQLMarketplaceStore) ReadReleases(ctx context.Context, releaseIDs []int64) ([]model.MarketplaceListing, error) {
	byRelease := make(map[int64][]model.MarketplaceListing, len(releaseIDs))

	for _, chunk := range chunkIDs(releaseIDs) {
		query, args, err := sqlx.In(`SELECT * FROM marketplace_listings WHERE release_id IN (?) ORDER BY release_id, seq`, chunk)
		if err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to build query: %w", err))
		}

		var rows []marketplaceRow
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to read marketplace listings: %w", err))
		}
		for _, row := range rows {
			byRelease[row.ReleaseID] = append(byRelease[row.ReleaseID], row.listing())
		}
	}

	listings := make([]model.MarketplaceListing, 0)
	seen := make(map[int64]struct{}, len(releaseIDs))
	for _, id := range releaseIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		listings = append(listings, byRelease[id]...)
	}
	return listings, nil
}

func (s *SQLMarketplaceStore) Replace(ctx context.Context, releaseID int64, listings []model.MarketplaceListing) error {
	key := releaseKey(releaseID)
	unlock := s.locks.Lock(key)
	defer unlock()

	cachedAt := s.clock().UnixMilli()
	rows := make([]marketplaceRow, 0, len(listings))
	for _, l := range DedupeMarketplaceListings(releaseID, listings) {
		rows = append(rows, marketplaceRow{
			ReleaseID:        releaseID,
			Seq:              len(rows),
			Title:            l.Title,
			ResourceURL:      l.ResourceURL,
			MediaCondition:   l.MediaCondition,
			SleeveCondition:  l.SleeveCondition,
			Price:            l.Price,
			Seller:           l.Seller,
			ShippingLocation: l.ShippingLocation,
			CachedAt:         cachedAt,
		})
	}

	if err := replaceRows(ctx, s.db, marketplaceTable, releaseID, key, insertMarketplaceRow, rows, cachedAt); err != nil {
		return apierror.CacheWriteFailure(err)
	}

	s.log.Debug("cache replaced", zap.Int64("release_id", releaseID), zap.Int("listings", len(rows)))
	return nil
}

func (s *SQLMarketplaceStore) Clear(ctx context.Context, releaseID int64) error {
	key := releaseKey(releaseID)
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := clearRows(ctx, s.db, marketplaceTable, releaseID, key); err != nil {
		return apierror.CacheWriteFailure(err)
	}
	return nil
}

func (s *SQLMarketplaceStore) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := sweepRows(ctx, s.db, marketplaceTable, validSince(s.clock, s.ttl))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("swept expired listings", zap.Int64("deleted", deleted), zap.Duration("ttl", s.ttl))
	}
	return deleted, nil
}

func (r marketplaceRow) listing() model.MarketplaceListing {
	return model.MarketplaceListing{
		ReleaseID:        r.ReleaseID,
		Title:            r.Title,
		ResourceURL:      r.ResourceURL,
		MediaCondition:   r.MediaCondition,
		SleeveCondition:  r.SleeveCondition,
		Price:            r.Price,
		Seller:           r.Seller,
		ShippingLocation: r.ShippingLocation,
	}
}

// DedupeMarketplaceListings keeps the first listing per (release id, seller,
// price) and stamps every kept listing with releaseID. Two distinct offers of
// the same seller at the same price collapse into one.
func DedupeMarketplaceListings(releaseID int64, listings []model.MarketplaceListing) []model.MarketplaceListing {
	out := make([]model.MarketplaceListing, 0, len(listings))
	seen := make(map[[2]string]struct{}, len(listings))
	for _, l := range listings {
		k := [2]string{l.Seller, l.Price}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		l.ReleaseID = releaseID
		out = append(out, l)
	}
	return out
}

func releaseKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func chunkIDs(ids []int64) [][]int64 {
	var chunks [][]int64
	for start := 0; start < len(ids); start += maxInParams {
		end := start + maxInParams
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
