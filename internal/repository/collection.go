package repository

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/internal/model"
)

type collectionRow struct {
	Username         string `db:"username"`
	Seq              int    `db:"seq"`
	ReleaseID        int64  `db:"release_id"`
	InstanceID       int64  `db:"instance_id"`
	DateAdded        string `db:"date_added"`
	Rating           int    `db:"rating"`
	BasicInformation string `db:"basic_information"`
	CachedAt         int64  `db:"cached_at"`
}

// CollectionStore caches collection releases per username, one row per
// (release id, instance id).
type CollectionStore struct {
	*ownerStore[model.Release, collectionRow]
}

func NewCollectionStore(db *DB, ttl time.Duration, clock Clock, log *zap.Logger) *CollectionStore {
	return &CollectionStore{newOwnerStore(db, ownerTable[model.Release, collectionRow]{
		kind:  kindCollection,
		table: "collection_releases",
		insert: `INSERT INTO collection_releases (username, seq, release_id, instance_id, date_added, rating, basic_information, cached_at)
			VALUES (:username, :seq, :release_id, :instance_id, :date_added, :rating, :basic_information, :cached_at)`,
		naturalKey: func(r model.Release) string {
			return strconv.FormatInt(r.ID, 10) + "/" + strconv.FormatInt(r.InstanceID, 10)
		},
		toRow: func(owner string, seq int, r model.Release, cachedAt int64) (collectionRow, error) {
			info, err := encodeJSON(r.BasicInformation)
			if err != nil {
				return collectionRow{}, err
			}
			return collectionRow{
				Username:         owner,
				Seq:              seq,
				ReleaseID:        r.ID,
				InstanceID:       r.InstanceID,
				DateAdded:        r.DateAdded,
				Rating:           r.Rating,
				BasicInformation: info,
				CachedAt:         cachedAt,
			}, nil
		},
		fromRow: func(row collectionRow) (model.Release, error) {
			r := model.Release{
				ID:         row.ReleaseID,
				InstanceID: row.InstanceID,
				DateAdded:  row.DateAdded,
				Rating:     row.Rating,
			}
			err := decodeJSON(row.BasicInformation, &r.BasicInformation)
			return r, err
		},
	}, ttl, clock, log)}
}
