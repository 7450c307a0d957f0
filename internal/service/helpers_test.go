package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/cache"
	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/repository"
)

func openTestDB(t *testing.T) *repository.DB {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// mockStore is a Store[model.Release] with scripted answers.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) IsValid(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Read(ctx context.Context, key string) ([]model.Release, error) {
	args := m.Called(ctx, key)
	items, _ := args.Get(0).([]model.Release)
	return items, args.Error(1)
}

func (m *mockStore) Replace(ctx context.Context, key string, items []model.Release) error {
	return m.Called(ctx, key, items).Error(0)
}

func (m *mockStore) Clear(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) SweepExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func testRelease(id int64, title, artist string) model.Release {
	return model.Release{
		ID:         id,
		InstanceID: id * 10,
		BasicInformation: model.BasicInformation{
			ID:      id,
			Title:   title,
			Artists: []model.Artist{{Name: artist}},
		},
	}
}

// pagedReleases serves items in pages of perPage and counts calls.
type pagedReleases struct {
	items []model.Release
	calls int
	err   error
}

func (p *pagedReleases) fetch(ctx context.Context, owner string, page, perPage int) ([]model.Release, model.Pagination, error) {
	p.calls++
	if p.err != nil {
		return nil, model.Pagination{}, p.err
	}

	start := (page - 1) * perPage
	if start > len(p.items) {
		start = len(p.items)
	}
	end := start + perPage
	if end > len(p.items) {
		end = len(p.items)
	}

	pagination := model.Pagination{Page: page, PerPage: perPage, Items: len(p.items)}
	if end < len(p.items) {
		pagination.URLs.Next = fmt.Sprintf("https://api.discogs.com/users/%s/collection?page=%d", owner, page+1)
	}
	return p.items[start:end], pagination, nil
}

// sellerRow is one table row of a generated listing page.
type sellerRow struct {
	seller string
	price  string
}

func listingPage(rows ...sellerRow) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="pjax_container"><table><tbody>`)
	for _, r := range rows {
		fmt.Fprintf(&b, `<tr>
			<td class="item_description"><strong><a href="#">Some Artist - Some Title (LP)</a></strong></td>
			<td class="seller_info"><ul>
				<li><div class="seller_block"><strong><a href="#">%s</a></strong></div></li>
				<li><strong>100%%</strong></li>
				<li><span class="mplabel">Ships From:</span>Japan</li>
			</ul></td>
			<td class="item_price"><div><span class="price">%s</span></div></td>
		</tr>`, r.seller, r.price)
	}
	b.WriteString(`</tbody></table></div></body></html>`)
	return b.String()
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func newMemoryKV(t *testing.T) *cache.MemoryCache {
	t.Helper()
	kv := cache.NewMemoryCache(nil, 0)
	t.Cleanup(func() { kv.Close() })
	return kv
}
