package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/discogs"
	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/repository"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

func newTestInventory(t *testing.T) *Inventory {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/users/jane/collection/folders/0/releases", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pagination": {"page": 1, "urls": {}}, "releases": [
			{"id": 1, "instance_id": 11, "basic_information": {"title": "Zebra", "artists": [{"name": "Beta"}]}},
			{"id": 2, "instance_id": 22, "basic_information": {"title": "Apple", "artists": [{"name": "Alpha"}]}}
		]}`))
	})
	mux.HandleFunc("/users/bob/inventory", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pagination": {"page": 1, "urls": {}}, "listings": [
			{"id": 500, "status": "For Sale", "price": {"value": 10, "currency": "EUR"}, "release": {"id": 2, "artist": "Alpha", "title": "Apple"}}
		]}`))
	})
	mux.HandleFunc("/users/jane/wants", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pagination": {"page": 1, "urls": {}}, "wants": [
			{"id": 1, "basic_information": {"title": "Zebra"}},
			{"id": 3, "basic_information": {"title": "Mango"}}
		]}`))
	})
	mux.HandleFunc("/users/ghost/wants", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/sell/release/1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage(sellerRow{"A", "$5.00"}, sellerRow{"B", "$6.00"})))
	})
	mux.HandleFunc("/sell/release/3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingPage(sellerRow{"A", "$7.00"})))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := discogs.NewClient(discogs.Options{APIURL: srv.URL, WebURL: srv.URL})
	require.NoError(t, err)

	db := openTestDB(t)
	log := zap.NewNop()
	stores := Stores{
		Collection:  repository.NewCollectionStore(db, time.Hour, nil, log),
		Shop:        repository.NewShopStore(db, time.Hour, nil, log),
		Wantlist:    repository.NewWantlistStore(db, time.Hour, nil, log),
		Marketplace: repository.NewSQLMarketplaceStore(db, time.Hour, nil, log),
	}
	return NewInventory(client, stores, Config{PerPage: 50}, log)
}

func TestFetchInventoryDispatchesByKind(t *testing.T) {
	ctx := context.Background()
	svc := newTestInventory(t)

	got, err := svc.FetchInventory(ctx, "Collection", "jane", FetchOptions{SortBy: "title"})
	require.NoError(t, err)
	releases, ok := got.([]model.Release)
	require.True(t, ok)
	assert.Equal(t, "Apple", releases[0].BasicInformation.Title)

	got, err = svc.FetchInventory(ctx, "shop", "bob", FetchOptions{})
	require.NoError(t, err)
	assert.IsType(t, []model.Listing{}, got)
}

func TestFetchInventoryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestInventory(t)

	_, err := svc.FetchInventory(ctx, "records", "jane", FetchOptions{})
	assert.Equal(t, apierror.CodeBadRequest, apierror.CodeOf(err))

	_, err = svc.FetchInventory(ctx, "wantlist", " ", FetchOptions{})
	assert.Equal(t, apierror.CodeBadRequest, apierror.CodeOf(err))

	_, err = svc.FetchInventory(ctx, "wantlist", "ghost", FetchOptions{})
	assert.Equal(t, apierror.CodeNotFound, apierror.CodeOf(err))
}

func TestReleaseIDsAndFilter(t *testing.T) {
	ctx := context.Background()
	svc := newTestInventory(t)

	ids := svc.ReleaseIDs(ctx, KindShop, "bob")
	assert.Equal(t, map[int64]struct{}{2: {}}, ids)

	assert.Empty(t, svc.ReleaseIDs(ctx, KindShop, ""))
	assert.Empty(t, svc.ReleaseIDs(ctx, KindWantlist, "ghost"), "failures yield an empty set")

	releases, err := svc.Collection(ctx, "jane", FetchOptions{})
	require.NoError(t, err)

	filtered := FilterByReleaseIDs(releases, ids)
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].ID)

	assert.Len(t, FilterByReleaseIDs(releases, nil), 2)
}

func TestWantlistBySeller(t *testing.T) {
	ctx := context.Background()
	svc := newTestInventory(t)

	groups, err := svc.WantlistBySeller(ctx, "jane", 10, false)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].Seller)
	assert.Equal(t, 2, groups[0].Count())
	assert.Equal(t, "B", groups[1].Seller)

	_, err = svc.WantlistBySeller(ctx, "ghost", 10, false)
	assert.Error(t, err)
}

func TestRefreshReturnsCount(t *testing.T) {
	svc := newTestInventory(t)

	n, err := svc.Refresh(context.Background(), KindWantlist, "jane")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
