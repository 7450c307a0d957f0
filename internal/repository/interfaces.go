package repository

import (
	"context"
	"time"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

// Clock returns the current time. Stores read "now" only through it.
type Clock func() time.Time

// Store caches one owner's complete inventory of a single kind.
type Store[T any] interface {
	// IsValid reports whether key has an entry younger than the TTL.
	IsValid(ctx context.Context, key string) (bool, error)

	// Read returns every cached item for key in the order they were written.
	Read(ctx context.Context, key string) ([]T, error)

	// Replace drops everything cached for key and stores items, deduplicated
	// by natural key and stamped with the current time.
	Replace(ctx context.Context, key string, items []T) error

	// Clear drops everything cached for key.
	Clear(ctx context.Context, key string) error

	Sweeper
}

// MarketplaceStore caches scraped listings per release id.
type MarketplaceStore interface {
	IsValid(ctx context.Context, releaseID int64) (bool, error)

	// MissingReleaseIDs returns the ids of releaseIDs without a valid entry,
	// in input order.
	MissingReleaseIDs(ctx context.Context, releaseIDs []int64) ([]int64, error)

	// ReadReleases returns the cached listings of every given release.
	ReadReleases(ctx context.Context, releaseIDs []int64) ([]model.MarketplaceListing, error)

	// Replace drops the listings cached for releaseID and stores listings,
	// deduplicated by (release id, seller, price).
	Replace(ctx context.Context, releaseID int64, listings []model.MarketplaceListing) error

	Clear(ctx context.Context, releaseID int64) error

	Sweeper
}

// Sweeper deletes entries older than the TTL, returning how many were removed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Ensure the stores implement their contracts
var (
	_ Store[model.Release] = (*CollectionStore)(nil)
	_ Store[model.Listing] = (*ShopStore)(nil)
	_ Store[model.Want]    = (*WantlistStore)(nil)
	_ MarketplaceStore     = (*SQLMarketplaceStore)(nil)
	_ MarketplaceStore     = (*KVMarketplaceStore)(nil)
)
