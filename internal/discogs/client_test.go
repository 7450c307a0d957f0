package discogs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezienecker/discogs-ctl/pkg/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{APIURL: srv.URL, WebURL: srv.URL, Token: token})
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status int
		want   apierror.Code
	}{
		{http.StatusOK, ""},
		{http.StatusForbidden, apierror.CodeAccessDenied},
		{http.StatusNotFound, apierror.CodeNotFound},
		{http.StatusBadGateway, apierror.CodeServerUnavailable},
		{http.StatusTooManyRequests, apierror.CodeUnknownStatus},
		{http.StatusUnauthorized, apierror.CodeUnknownStatus},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apierror.CodeOf(Classify(tt.status)), "status %d", tt.status)
	}
}

func TestClassifyMarketplace(t *testing.T) {
	assert.NoError(t, ClassifyMarketplace(http.StatusOK))
	assert.Equal(t, apierror.CodeClientError, apierror.CodeOf(ClassifyMarketplace(http.StatusNotFound)))
	assert.Equal(t, apierror.CodeClientError, apierror.CodeOf(ClassifyMarketplace(http.StatusTooManyRequests)))
	assert.Equal(t, apierror.CodeUnknownStatus, apierror.CodeOf(ClassifyMarketplace(http.StatusServiceUnavailable)))
}

func TestCollectionPageSendsTokenAndPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/jane/collection/folders/0/releases", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Discogs token=abc", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Write([]byte(`{
			"pagination": {"page": 2, "pages": 2, "per_page": 100, "items": 101, "urls": {}},
			"releases": [{"id": 7, "instance_id": 70, "basic_information": {"title": "Blue Train", "artists": [{"name": "John Coltrane"}]}}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "abc")
	releases, pagination, err := c.CollectionPage(context.Background(), "jane", 2, 100)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, int64(70), releases[0].InstanceID)
	assert.Equal(t, "John Coltrane", releases[0].BasicInformation.FirstArtist())
	assert.False(t, pagination.HasNext())
}

func TestShopPageOmitsAuthWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "listed", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))

		w.Write([]byte(`{
			"pagination": {"page": 1, "urls": {"next": "https://api.discogs.com/users/jane/inventory?page=2"}},
			"listings": [{"id": 1, "status": "For Sale", "price": {"value": 12.5, "currency": "EUR"}, "release": {"id": 9, "artist": "Can"}}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	listings, pagination, err := c.ShopPage(context.Background(), "jane", 1, 50)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 12.5, listings[0].Price.Value)
	assert.Equal(t, int64(9), listings[0].ReleaseID())
	assert.True(t, pagination.HasNext())
}

func TestWantlistPageClassifiesForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")
	_, _, err := c.WantlistPage(context.Background(), "private-user", 1, 100)
	assert.Equal(t, apierror.CodeAccessDenied, apierror.CodeOf(err))
}

func TestMarketplacePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sell/release/1":
			w.Write([]byte("<html></html>"))
		case "/sell/release/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	body, err := c.MarketplacePage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(body))

	_, err = c.MarketplacePage(context.Background(), 2)
	assert.Equal(t, apierror.CodeClientError, apierror.CodeOf(err))

	_, err = c.MarketplacePage(context.Background(), 3)
	assert.Equal(t, apierror.CodeUnknownStatus, apierror.CodeOf(err))
}

func TestMarketplaceURL(t *testing.T) {
	assert.Equal(t, "https://www.discogs.com/sell/release/42", MarketplaceURL("https://www.discogs.com/", 42))
}
