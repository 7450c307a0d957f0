// Package fetch drains page-cursor list endpoints into a single slice.
package fetch

import (
	"context"
	"fmt"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

// DefaultPerPage is the page size used when the caller passes none.
const DefaultPerPage = 100

// PageFunc fetches one page. Pages are numbered from 1.
type PageFunc[T any] func(ctx context.Context, page, perPage int) ([]T, model.Pagination, error)

// Accumulate requests pages 1, 2, ... in order and concatenates their items
// until a page carries no next link. The first failing page aborts the run and
// nothing fetched so far is returned.
func Accumulate[T any](ctx context.Context, perPage int, fn PageFunc[T]) ([]T, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	var items []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageItems, pagination, err := fn(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		items = append(items, pageItems...)

		if !pagination.HasNext() {
			break
		}
	}

	if items == nil {
		items = []T{}
	}
	return items, nil
}
