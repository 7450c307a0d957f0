package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

func titles(items []model.Release) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.BasicInformation.Title
	}
	return out
}

func TestSortItems(t *testing.T) {
	base := func() []model.Release {
		return []model.Release{
			testRelease(1, "blue Train", "John Coltrane"),
			testRelease(2, "Abbey Road", "The Beatles"),
			testRelease(3, "Kind of Blue", "Miles Davis"),
		}
	}

	tests := []struct {
		name   string
		sortBy string
		order  string
		want   []string
	}{
		{"unsorted", "", "", []string{"blue Train", "Abbey Road", "Kind of Blue"}},
		{"title ascending ignores case", "title", "asc", []string{"Abbey Road", "blue Train", "Kind of Blue"}},
		{"title descending", "title", "desc", []string{"Kind of Blue", "blue Train", "Abbey Road"}},
		{"artist", "artist", "", []string{"blue Train", "Kind of Blue", "Abbey Road"}},
		{"unknown field", "year", "asc", []string{"blue Train", "Abbey Road", "Kind of Blue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortItems(base(), tt.sortBy, tt.order, zap.NewNop())
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestSortShopListingsByReleaseArtist(t *testing.T) {
	listings := []model.Listing{
		{ID: 1, Release: model.ListingRelease{Artist: "Neu!", Title: "Neu! 75"}},
		{ID: 2, Release: model.ListingRelease{Artist: "can", Title: "Tago Mago"}},
		{ID: 3, Release: model.ListingRelease{Artist: "Faust", Title: "IV"}},
	}

	got := SortItems(listings, "artist", "asc", nil)
	assert.Equal(t, []int64{2, 3, 1}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestSortItemsIsStable(t *testing.T) {
	items := []model.Want{
		{ID: 1, BasicInformation: model.BasicInformation{Title: "Same"}},
		{ID: 2, BasicInformation: model.BasicInformation{Title: "same"}},
		{ID: 3, BasicInformation: model.BasicInformation{Title: "Other"}},
	}

	got := SortItems(items, "title", "asc", nil)
	assert.Equal(t, []int64{3, 1, 2}, []int64{got[0].ID, got[1].ID, got[2].ID})
}
