package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

// ownerTable describes how one inventory kind maps onto its table. R is the
// row struct scanned by sqlx; it must carry a db tag for every column.
type ownerTable[T any, R any] struct {
	kind       string
	table      string
	insert     string // named INSERT with one :param per column
	naturalKey func(T) string
	toRow      func(owner string, seq int, item T, cachedAt int64) (R, error)
	fromRow    func(R) (T, error)
}

// ownerStore is the SQL Store shared by the per-owner inventory kinds.
type ownerStore[T any, R any] struct {
	db    *DB
	def   ownerTable[T, R]
	ttl   time.Duration
	clock Clock
	locks *keyLocks
	log   *zap.Logger
}

func newOwnerStore[T any, R any](db *DB, def ownerTable[T, R], ttl time.Duration, clock Clock, log *zap.Logger) *ownerStore[T, R] {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ownerStore[T, R]{
		db:    db,
		def:   def,
		ttl:   ttl,
		clock: clock,
		locks: newKeyLocks(),
		log:   log.Named(def.kind + "_store"),
	}
}

// TTL returns how long entries stay valid.
func (s *ownerStore[T, R]) TTL() time.Duration {
	return s.ttl
}

func (s *ownerStore[T, R]) IsValid(ctx context.Context, key string) (bool, error) {
	valid, err := s.db.isEntryValid(ctx, s.def.kind, key, validSince(s.clock, s.ttl))
	if err != nil {
		return false, apierror.CacheReadFailure(fmt.Errorf("failed to check %s cache for %s: %w", s.def.kind, key, err))
	}
	return valid, nil
}

func (s *ownerStore[T, R]) Read(ctx context.Context, key string) ([]T, error) {
	var rows []R
	query := s.db.Rebind(`SELECT * FROM ` + s.def.table + ` WHERE username = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &rows, query, key); err != nil {
		return nil, apierror.CacheReadFailure(fmt.Errorf("failed to read %s cache for %s: %w", s.def.kind, key, err))
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := s.def.fromRow(row)
		if err != nil {
			return nil, apierror.CacheReadFailure(fmt.Errorf("failed to decode %s cache for %s: %w", s.def.kind, key, err))
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *ownerStore[T, R]) Replace(ctx context.Context, key string, items []T) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	cachedAt := s.clock().UnixMilli()
	rows := make([]R, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		k := s.def.naturalKey(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		row, err := s.def.toRow(key, len(rows), item, cachedAt)
		if err != nil {
			return apierror.CacheWriteFailure(fmt.Errorf("failed to encode %s item %s: %w", s.def.kind, k, err))
		}
		rows = append(rows, row)
	}

	if err := replaceRows(ctx, s.db, s.table(), key, key, s.def.insert, rows, cachedAt); err != nil {
		return apierror.CacheWriteFailure(err)
	}

	s.log.Debug("cache replaced", zap.String("owner", key), zap.Int("items", len(rows)))
	return nil
}

func (s *ownerStore[T, R]) Clear(ctx context.Context, key string) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := clearRows(ctx, s.db, s.table(), key, key); err != nil {
		return apierror.CacheWriteFailure(err)
	}
	return nil
}

// SweepExpired deletes rows of every owner cached before now - TTL.
func (s *ownerStore[T, R]) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := sweepRows(ctx, s.db, s.table(), validSince(s.clock, s.ttl))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("swept expired rows", zap.Int64("deleted", deleted), zap.Duration("ttl", s.ttl))
	}
	return deleted, nil
}

func (s *ownerStore[T, R]) table() cacheTable {
	return cacheTable{kind: s.def.kind, name: s.def.table, ownerColumn: "username"}
}

func encodeJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, v interface{}) error {
	return json.Unmarshal([]byte(s), v)
}
