// Package service implements the inventory operations on top of the remote
// client and the caches.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/repository"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

// Inventory kinds.
const (
	KindCollection = "collection"
	KindShop       = "shop"
	KindWantlist   = "wantlist"
)

// ParseKind validates an inventory kind name.
func ParseKind(s string) (string, error) {
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case KindCollection, KindShop, KindWantlist:
		return k, nil
	default:
		return "", apierror.BadRequest("unknown inventory kind " + s + ", expected collection, shop or wantlist")
	}
}

// FetchOptions controls ordering and cache use of a fetch.
type FetchOptions struct {
	SortBy    string
	SortOrder string
	Force     bool
}

// RemoteClient is the remote API as seen by the service.
type RemoteClient interface {
	CollectionPage(ctx context.Context, username string, page, perPage int) ([]model.Release, model.Pagination, error)
	ShopPage(ctx context.Context, username string, page, perPage int) ([]model.Listing, model.Pagination, error)
	WantlistPage(ctx context.Context, username string, page, perPage int) ([]model.Want, model.Pagination, error)
	MarketplaceFetcher
}

// Stores groups the per-kind caches.
type Stores struct {
	Collection  repository.Store[model.Release]
	Shop        repository.Store[model.Listing]
	Wantlist    repository.Store[model.Want]
	Marketplace repository.MarketplaceStore
}

// Config tunes the service.
type Config struct {
	PerPage     int
	Marketplace EnricherConfig
}

// Inventory serves collection, shop and wantlist inventories and the
// marketplace enrichment of wantlists.
type Inventory struct {
	collection *Synchronizer[model.Release]
	shop       *Synchronizer[model.Listing]
	wantlist   *Synchronizer[model.Want]
	enricher   *Enricher
	log        *zap.Logger
}

func NewInventory(client RemoteClient, stores Stores, cfg Config, log *zap.Logger) *Inventory {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("inventory")

	return &Inventory{
		collection: NewSynchronizer(Kind[model.Release]{Name: KindCollection, Fetch: client.CollectionPage, Store: stores.Collection}, cfg.PerPage, log),
		shop:       NewSynchronizer(Kind[model.Listing]{Name: KindShop, Fetch: client.ShopPage, Store: stores.Shop}, cfg.PerPage, log),
		wantlist:   NewSynchronizer(Kind[model.Want]{Name: KindWantlist, Fetch: client.WantlistPage, Store: stores.Wantlist}, cfg.PerPage, log),
		enricher:   NewEnricher(client, stores.Marketplace, cfg.Marketplace, log),
		log:        log,
	}
}

func (s *Inventory) Collection(ctx context.Context, owner string, opts FetchOptions) ([]model.Release, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	items, err := s.collection.Fetch(ctx, owner, opts.Force)
	if err != nil {
		return nil, err
	}
	return SortItems(items, opts.SortBy, opts.SortOrder, s.log), nil
}

func (s *Inventory) Shop(ctx context.Context, owner string, opts FetchOptions) ([]model.Listing, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	items, err := s.shop.Fetch(ctx, owner, opts.Force)
	if err != nil {
		return nil, err
	}
	return SortItems(items, opts.SortBy, opts.SortOrder, s.log), nil
}

func (s *Inventory) Wantlist(ctx context.Context, owner string, opts FetchOptions) ([]model.Want, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	items, err := s.wantlist.Fetch(ctx, owner, opts.Force)
	if err != nil {
		return nil, err
	}
	return SortItems(items, opts.SortBy, opts.SortOrder, s.log), nil
}

// FetchInventory returns the owner's inventory of kind as a []model.Release,
// []model.Listing or []model.Want.
func (s *Inventory) FetchInventory(ctx context.Context, kind, owner string, opts FetchOptions) (any, error) {
	kind, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindCollection:
		return s.Collection(ctx, owner, opts)
	case KindShop:
		return s.Shop(ctx, owner, opts)
	default:
		return s.Wantlist(ctx, owner, opts)
	}
}

// Refresh drops the owner's cached inventory of kind, fetches it again and
// returns the item count.
func (s *Inventory) Refresh(ctx context.Context, kind, owner string) (int, error) {
	kind, err := ParseKind(kind)
	if err != nil {
		return 0, err
	}
	if err := requireOwner(owner); err != nil {
		return 0, err
	}

	var n int
	switch kind {
	case KindCollection:
		items, err := s.collection.Refresh(ctx, owner)
		if err != nil {
			return 0, err
		}
		n = len(items)
	case KindShop:
		items, err := s.shop.Refresh(ctx, owner)
		if err != nil {
			return 0, err
		}
		n = len(items)
	default:
		items, err := s.wantlist.Refresh(ctx, owner)
		if err != nil {
			return 0, err
		}
		n = len(items)
	}
	return n, nil
}

// ReleaseIDs returns the set of release ids in the owner's inventory of kind.
// A blank owner or any failure yields an empty set.
func (s *Inventory) ReleaseIDs(ctx context.Context, kind, owner string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	if strings.TrimSpace(owner) == "" {
		return ids
	}

	items, err := s.FetchInventory(ctx, kind, owner, FetchOptions{})
	if err != nil {
		s.log.Warn("failed to load release ids", zap.String("kind", kind), zap.String("owner", owner), zap.Error(err))
		return ids
	}

	switch v := items.(type) {
	case []model.Release:
		addReleaseIDs(ids, v)
	case []model.Listing:
		addReleaseIDs(ids, v)
	case []model.Want:
		addReleaseIDs(ids, v)
	}
	return ids
}

// EnrichWantlistBySeller scrapes the marketplace for releaseIDs and returns
// the top sellers by number of listings.
func (s *Inventory) EnrichWantlistBySeller(ctx context.Context, releaseIDs []int64, limit int, force bool) []model.SellerListings {
	return s.enricher.BySeller(ctx, releaseIDs, limit, force)
}

// WantlistBySeller loads the owner's wantlist and groups its marketplace
// offers by seller.
func (s *Inventory) WantlistBySeller(ctx context.Context, owner string, limit int, force bool) ([]model.SellerListings, error) {
	wants, err := s.Wantlist(ctx, owner, FetchOptions{Force: force})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(wants))
	for _, w := range wants {
		ids = append(ids, w.ReleaseID())
	}
	return s.EnrichWantlistBySeller(ctx, ids, limit, force), nil
}

// FilterByReleaseIDs keeps the items whose release id is in ids. An empty
// set keeps everything.
func FilterByReleaseIDs[T interface{ ReleaseID() int64 }](items []T, ids map[int64]struct{}) []T {
	if len(ids) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := ids[item.ReleaseID()]; ok {
			out = append(out, item)
		}
	}
	return out
}

func addReleaseIDs[T interface{ ReleaseID() int64 }](ids map[int64]struct{}, items []T) {
	for _, item := range items {
		ids[item.ReleaseID()] = struct{}{}
	}
}

func requireOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return apierror.BadRequest("owner username is required")
	}
	return nil
}
