package service

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	SortByTitle  = "title"
	SortByArtist = "artist"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Sortable is implemented by every inventory item. Keys are already lowercased.
type Sortable interface {
	TitleKey() string
	ArtistKey() string
}

// SortItems orders items in place by title or artist and returns them. A
// blank sortBy leaves the order untouched; an unknown one is logged and
// ignored. Any order other than "desc" sorts ascending.
func SortItems[T Sortable](items []T, sortBy, order string, log *zap.Logger) []T {
	sortBy = strings.ToLower(strings.TrimSpace(sortBy))

	var key func(T) string
	switch sortBy {
	case "":
		return items
	case SortByTitle:
		key = func(v T) string { return v.TitleKey() }
	case SortByArtist:
		key = func(v T) string { return v.ArtistKey() }
	default:
		if log != nil {
			log.Warn("unknown sort field, leaving order unchanged", zap.String("sort_by", sortBy))
		}
		return items
	}

	desc := strings.EqualFold(strings.TrimSpace(order), SortDesc)
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return key(items[i]) > key(items[j])
		}
		return key(items[i]) < key(items[j])
	})
	return items
}
