package service

import (
	"bytes"
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/batch"
	"github.com/ezienecker/discogs-ctl/internal/marketplace"
	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/repository"
)

const (
	DefaultBatchSize   = 20
	DefaultConcurrency = 5
	DefaultSellerLimit = 10
)

// MarketplaceFetcher returns the raw listing page of a release.
type MarketplaceFetcher interface {
	MarketplacePage(ctx context.Context, releaseID int64) ([]byte, error)
}

// EnricherConfig bounds the marketplace scrape.
type EnricherConfig struct {
	BatchSize   int
	Concurrency int
	SellerLimit int
}

// Enricher collects marketplace listings for a set of releases, serving
// fresh ones from the cache and scraping the rest in bounded parallel batches.
type Enricher struct {
	client MarketplaceFetcher
	store  repository.MarketplaceStore
	cfg    EnricherConfig
	log    *zap.Logger
}

func NewEnricher(client MarketplaceFetcher, store repository.MarketplaceStore, cfg EnricherConfig, log *zap.Logger) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.SellerLimit <= 0 {
		cfg.SellerLimit = DefaultSellerLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{client: client, store: store, cfg: cfg, log: log.Named("enricher")}
}

// Enrich returns the listings of every release, grouped per release in the
// order of releaseIDs. Releases that cannot be fetched contribute nothing.
func (e *Enricher) Enrich(ctx context.Context, releaseIDs []int64, force bool) []model.MarketplaceListing {
	ids := uniqueIDs(releaseIDs)
	if len(ids) == 0 {
		return []model.MarketplaceListing{}
	}

	toFetch := ids
	var cachedIDs []int64
	if !force {
		missing, err := e.store.MissingReleaseIDs(ctx, ids)
		if err != nil {
			e.log.Warn("marketplace cache check failed, fetching all releases", zap.Error(err))
		} else {
			toFetch = missing
			cachedIDs = subtract(ids, missing)
		}
	}

	byRelease := make(map[int64][]model.MarketplaceListing, len(ids))
	if len(cachedIDs) > 0 {
		cached, err := e.store.ReadReleases(ctx, cachedIDs)
		if err != nil {
			e.log.Warn("marketplace cache read failed, fetching cached releases", zap.Error(err))
			toFetch = append(toFetch, cachedIDs...)
		} else {
			for _, l := range cached {
				byRelease[l.ReleaseID] = append(byRelease[l.ReleaseID], l)
			}
		}
	}

	e.log.Info("enriching releases",
		zap.Int("releases", len(ids)),
		zap.Int("cached", len(ids)-len(toFetch)),
		zap.Int("fetching", len(toFetch)),
	)

	for _, l := range e.fetchAll(ctx, toFetch) {
		byRelease[l.ReleaseID] = append(byRelease[l.ReleaseID], l)
	}

	listings := make([]model.MarketplaceListing, 0)
	for _, id := range ids {
		listings = append(listings, byRelease[id]...)
	}
	return listings
}

// BySeller enriches releaseIDs and returns the top sellers by listing count.
func (e *Enricher) BySeller(ctx context.Context, releaseIDs []int64, limit int, force bool) []model.SellerListings {
	if limit <= 0 {
		limit = e.cfg.SellerLimit
	}
	return TopSellers(GroupBySeller(e.Enrich(ctx, releaseIDs, force)), limit)
}

func (e *Enricher) fetchAll(ctx context.Context, ids []int64) []model.MarketplaceListing {
	if len(ids) == 0 {
		return nil
	}

	results, err := batch.Process(ctx, ids, e.cfg.BatchSize, e.cfg.Concurrency, e.fetchBatch)
	if err != nil {
		e.log.Warn("marketplace scrape interrupted", zap.Error(err))
		return nil
	}
	return batch.Flatten(results)
}

// fetchBatch scrapes the releases of one batch one after another.
func (e *Enricher) fetchBatch(ctx context.Context, ids []int64) []model.MarketplaceListing {
	var listings []model.MarketplaceListing
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		found, err := e.fetchRelease(ctx, id)
		if err != nil {
			e.log.Warn("failed to fetch marketplace listings", zap.Int64("release_id", id), zap.Error(err))
			continue
		}

		found = repository.DedupeMarketplaceListings(id, found)
		if err := e.store.Replace(ctx, id, found); err != nil {
			e.log.Warn("failed to cache marketplace listings", zap.Int64("release_id", id), zap.Error(err))
		}
		listings = append(listings, found...)
	}
	return listings
}

func (e *Enricher) fetchRelease(ctx context.Context, releaseID int64) ([]model.MarketplaceListing, error) {
	body, err := e.client.MarketplacePage(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	return marketplace.Extract(releaseID, bytes.NewReader(body))
}

// GroupBySeller groups listings per seller. Groups keep the order in which
// sellers first appear and are then stably ordered by descending count.
func GroupBySeller(listings []model.MarketplaceListing) []model.SellerListings {
	index := make(map[string]int)
	groups := make([]model.SellerListings, 0)
	for _, l := range listings {
		i, ok := index[l.Seller]
		if !ok {
			i = len(groups)
			index[l.Seller] = i
			groups = append(groups, model.SellerListings{Seller: l.Seller})
		}
		groups[i].Listings = append(groups[i].Listings, l)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count() > groups[j].Count()
	})
	return groups
}

// TopSellers keeps the first limit groups; limit <= 0 means DefaultSellerLimit.
func TopSellers(groups []model.SellerListings, limit int) []model.SellerListings {
	if limit <= 0 {
		limit = DefaultSellerLimit
	}
	if len(groups) > limit {
		return groups[:limit]
	}
	return groups
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func subtract(ids, remove []int64) []int64 {
	drop := make(map[int64]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
