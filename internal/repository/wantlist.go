package repository

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

type wantRow struct {
	Username         string `db:"username"`
	Seq              int    `db:"seq"`
	WantID           int64  `db:"want_id"`
	Rating           int    `db:"rating"`
	ResourceURL      string `db:"resource_url"`
	BasicInformation string `db:"basic_information"`
	CachedAt         int64  `db:"cached_at"`
}

// WantlistStore caches wantlist entries per username, one row per want id.
type WantlistStore struct {
	*ownerStore[model.Want, wantRow]
}

func NewWantlistStore(db *DB, ttl time.Duration, clock Clock, log *zap.Logger) *WantlistStore {
	return &WantlistStore{newOwnerStore(db, ownerTable[model.Want, wantRow]{
		kind:  kindWantlist,
		table: "wantlist_wants",
		insert: `INSERT INTO wantlist_wants (username, seq, want_id, rating, resource_url, basic_information, cached_at)
			VALUES (:username, :seq, :want_id, :rating, :resource_url, :basic_information, :cached_at)`,
		naturalKey: func(w model.Want) string {
			return strconv.FormatInt(w.ID, 10)
		},
		toRow: func(owner string, seq int, w model.Want, cachedAt int64) (wantRow, error) {
			info, err := encodeJSON(w.BasicInformation)
			if err != nil {
				return wantRow{}, err
			}
			return wantRow{
				Username:         owner,
				Seq:              seq,
				WantID:           w.ID,
				Rating:           w.Rating,
				ResourceURL:      w.ResourceURL,
				BasicInformation: info,
				CachedAt:         cachedAt,
			}, nil
		},
		fromRow: func(row wantRow) (model.Want, error) {
			w := model.Want{
				ID:          row.WantID,
				Rating:      row.Rating,
				ResourceURL: row.ResourceURL,
			}
			err := decodeJSON(row.BasicInformation, &w.BasicInformation)
			return w, err
		},
	}, ttl, clock, log)}
}
