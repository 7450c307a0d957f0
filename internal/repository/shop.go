package repository

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

type shopRow struct {
	Username        string  `db:"username"`
	Seq             int     `db:"seq"`
	ListingID       int64   `db:"listing_id"`
	ResourceURL     string  `db:"resource_url"`
	URI             string  `db:"uri"`
	Status          string  `db:"status"`
	MediaCondition  string  `db:"media_condition"`
	SleeveCondition string  `db:"sleeve_condition"`
	Comments        string  `db:"comments"`
	PriceValue      float64 `db:"price_value"`
	PriceCurrency   string  `db:"price_currency"`
	Seller          string  `db:"seller"`
	ReleaseSummary  string  `db:"release_summary"`
	CachedAt        int64   `db:"cached_at"`
}

// ShopStore caches a seller's for-sale listings per username, one row per listing id.
type ShopStore struct {
	*ownerStore[model.Listing, shopRow]
}

func NewShopStore(db *DB, ttl time.Duration, clock Clock, log *zap.Logger) *ShopStore {
	return &ShopStore{newOwnerStore(db, ownerTable[model.Listing, shopRow]{
		kind:  kindShop,
		table: "shop_listings",
		insert: `INSERT INTO shop_listings (username, seq, listing_id, resource_url, uri, status, media_condition, sleeve_condition,
				comments, price_value, price_currency, seller, release_summary, cached_at)
			VALUES (:username, :seq, :listing_id, :resource_url, :uri, :status, :media_condition, :sleeve_condition,
				:comments, :price_value, :price_currency, :seller, :release_summary, :cached_at)`,
		naturalKey: func(l model.Listing) string {
			return strconv.FormatInt(l.ID, 10)
		},
		toRow: func(owner string, seq int, l model.Listing, cachedAt int64) (shopRow, error) {
			seller, err := encodeJSON(l.Seller)
			if err != nil {
				return shopRow{}, err
			}
			release, err := encodeJSON(l.Release)
			if err != nil {
				return shopRow{}, err
			}
			return shopRow{
				Username:        owner,
				Seq:             seq,
				ListingID:       l.ID,
				ResourceURL:     l.ResourceURL,
				URI:             l.URI,
				Status:          l.Status,
				MediaCondition:  l.MediaCondition,
				SleeveCondition: l.SleeveCondition,
				Comments:        l.Comments,
				PriceValue:      l.Price.Value,
				PriceCurrency:   l.Price.Currency,
				Seller:          seller,
				ReleaseSummary:  release,
				CachedAt:        cachedAt,
			}, nil
		},
		fromRow: func(row shopRow) (model.Listing, error) {
			l := model.Listing{
				ID:              row.ListingID,
				ResourceURL:     row.ResourceURL,
				URI:             row.URI,
				Status:          row.Status,
				MediaCondition:  row.MediaCondition,
				SleeveCondition: row.SleeveCondition,
				Comments:        row.Comments,
				Price:           model.Price{Value: row.PriceValue, Currency: row.PriceCurrency},
			}
			if err := decodeJSON(row.Seller, &l.Seller); err != nil {
				return l, err
			}
			err := decodeJSON(row.ReleaseSummary, &l.Release)
			return l, err
		},
	}, ttl, clock, log)}
}
