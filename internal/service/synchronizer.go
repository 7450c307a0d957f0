package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/fetch"
	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/repository"
)

// PageFetcher fetches one page of an owner's inventory of a single kind.
type PageFetcher[T any] func(ctx context.Context, owner string, page, perPage int) ([]T, model.Pagination, error)

// Kind binds an inventory kind to its remote source and its cache.
type Kind[T any] struct {
	Name  string
	Fetch PageFetcher[T]
	Store repository.Store[T]
}

// Synchronizer serves one inventory kind cache-aside: a valid cache entry is
// returned as is, anything else goes to the remote API and the result
// replaces the cache entry.
type Synchronizer[T any] struct {
	kind    Kind[T]
	perPage int
	log     *zap.Logger
}

func NewSynchronizer[T any](kind Kind[T], perPage int, log *zap.Logger) *Synchronizer[T] {
	if perPage <= 0 {
		perPage = fetch.DefaultPerPage
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer[T]{
		kind:    kind,
		perPage: perPage,
		log:     log.Named(kind.Name),
	}
}

// Fetch returns the owner's inventory. force skips the cache lookup.
// Cache failures are logged and never fail the call; remote failures do.
func (s *Synchronizer[T]) Fetch(ctx context.Context, owner string, force bool) ([]T, error) {
	if !force {
		if items, ok := s.cached(ctx, owner); ok {
			return items, nil
		}
	}
	return s.remote(ctx, owner)
}

// Refresh drops the owner's cache entry and fetches again.
func (s *Synchronizer[T]) Refresh(ctx context.Context, owner string) ([]T, error) {
	if err := s.kind.Store.Clear(ctx, owner); err != nil {
		s.log.Warn("failed to clear cache", zap.String("owner", owner), zap.Error(err))
	}
	return s.remote(ctx, owner)
}

func (s *Synchronizer[T]) cached(ctx context.Context, owner string) ([]T, bool) {
	valid, err := s.kind.Store.IsValid(ctx, owner)
	if err != nil {
		s.log.Warn("cache check failed, fetching remotely", zap.String("owner", owner), zap.Error(err))
		return nil, false
	}
	if !valid {
		s.log.Debug("cache miss", zap.String("owner", owner))
		return nil, false
	}

	items, err := s.kind.Store.Read(ctx, owner)
	if err != nil {
		s.log.Warn("cache read failed, fetching remotely", zap.String("owner", owner), zap.Error(err))
		return nil, false
	}

	s.log.Debug("cache hit", zap.String("owner", owner), zap.Int("items", len(items)))
	return items, true
}

func (s *Synchronizer[T]) remote(ctx context.Context, owner string) ([]T, error) {
	items, err := fetch.Accumulate(ctx, s.perPage, func(ctx context.Context, page, perPage int) ([]T, model.Pagination, error) {
		return s.kind.Fetch(ctx, owner, page, perPage)
	})
	if err != nil {
		s.log.Error("remote fetch failed", zap.String("owner", owner), zap.Error(err))
		return nil, err
	}

	if err := s.kind.Store.Replace(ctx, owner, items); err != nil {
		s.log.Warn("failed to cache inventory", zap.String("owner", owner), zap.Error(err))
	}

	s.log.Info("fetched inventory", zap.String("owner", owner), zap.Int("items", len(items)))
	return items, nil
}
