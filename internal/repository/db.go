package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // PostgreSQL driver registered as "postgres"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

// Entry kinds recorded in cache_entries.
const (
	kindCollection  = "collection"
	kindShop        = "shop"
	kindWantlist    = "wantlist"
	kindMarketplace = "marketplace"
)

// schema is portable across SQLite, PostgreSQL and MySQL: no autoincrement,
// VARCHAR keys, timestamps as unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cache_entries (
		kind VARCHAR(32) NOT NULL,
		owner VARCHAR(255) NOT NULL,
		cached_at BIGINT NOT NULL,
		PRIMARY KEY (kind, owner)
	)`,
	`CREATE TABLE IF NOT EXISTS collection_releases (
		username VARCHAR(255) NOT NULL,
		seq INTEGER NOT NULL,
		release_id BIGINT NOT NULL,
		instance_id BIGINT NOT NULL,
		date_added VARCHAR(64) NOT NULL,
		rating INTEGER NOT NULL,
		basic_information TEXT NOT NULL,
		cached_at BIGINT NOT NULL,
		PRIMARY KEY (username, release_id, instance_id)
	)`,
	`CREATE TABLE IF NOT EXISTS shop_listings (
		username VARCHAR(255) NOT NULL,
		seq INTEGER NOT NULL,
		listing_id BIGINT NOT NULL,
		resource_url TEXT NOT NULL,
		uri TEXT NOT NULL,
		status VARCHAR(32) NOT NULL,
		media_condition VARCHAR(64) NOT NULL,
		sleeve_condition VARCHAR(64) NOT NULL,
		comments TEXT NOT NULL,
		price_value DOUBLE PRECISION NOT NULL,
		price_currency VARCHAR(8) NOT NULL,
		seller TEXT NOT NULL,
		release_summary TEXT NOT NULL,
		cached_at BIGINT NOT NULL,
		PRIMARY KEY (username, listing_id)
	)`,
	`CREATE TABLE IF NOT EXISTS wantlist_wants (
		username VARCHAR(255) NOT NULL,
		seq INTEGER NOT NULL,
		want_id BIGINT NOT NULL,
		rating INTEGER NOT NULL,
		resource_url TEXT NOT NULL,
		basic_information TEXT NOT NULL,
		cached_at BIGINT NOT NULL,
		PRIMARY KEY (username, want_id)
	)`,
	`CREATE TABLE IF NOT EXISTS marketplace_listings (
		release_id BIGINT NOT NULL,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		resource_url TEXT NOT NULL,
		media_condition VARCHAR(64) NOT NULL,
		sleeve_condition VARCHAR(64) NOT NULL,
		price VARCHAR(64) NOT NULL,
		seller VARCHAR(255) NOT NULL,
		shipping_location VARCHAR(255) NOT NULL,
		cached_at BIGINT NOT NULL,
		PRIMARY KEY (release_id, seller, price)
	)`,
}

// DB is the relational cache shared by every store.
type DB struct {
	*sqlx.DB
	driver string
	log    *zap.Logger
}

// Open connects to the cache database and creates missing tables.
// For SQLite dsn is a file path or ":memory:".
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("store")

	switch driver {
	case DriverSQLite, DriverPostgres, DriverPgx, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	if driver == DriverSQLite {
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite only supports 1 writer; also keeps :memory: alive
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	d := &DB{DB: db, driver: driver, log: log}
	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info("cache database initialized", zap.String("driver", driver))
	return d, nil
}

func sqliteDSN(path string) (string, error) {
	if path == ":memory:" || strings.Contains(path, "?") {
		return path, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", nil
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Driver returns the name of the SQL driver in use.
func (db *DB) Driver() string {
	return db.driver
}

// GetStats returns row counts per cache table.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["driver"] = db.driver

	for _, table := range []string{"cache_entries", "collection_releases", "shop_listings", "wantlist_wants", "marketplace_listings"} {
		var count int64
		if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = count
	}

	var lastCached sql.NullInt64
	if err := db.GetContext(ctx, &lastCached, "SELECT MAX(cached_at) FROM cache_entries"); err == nil && lastCached.Valid {
		stats["last_cached_at"] = time.UnixMilli(lastCached.Int64).UTC()
	}

	return stats, nil
}

func validSince(clock Clock, ttl time.Duration) int64 {
	return clock().Add(-ttl).UnixMilli()
}

func (db *DB) isEntryValid(ctx context.Context, kind, owner string, since int64) (bool, error) {
	var count int
	query := db.Rebind(`SELECT COUNT(*) FROM cache_entries WHERE kind = ? AND owner = ? AND cached_at > ?`)
	if err := db.GetContext(ctx, &count, query, kind, owner, since); err != nil {
		return false, err
	}
	return count > 0, nil
}

// cacheTable names a table of cached rows and the column holding its owner key.
type cacheTable struct {
	kind        string
	name        string
	ownerColumn string
}

// replaceRows deletes every row of owner and inserts rows in one transaction,
// then stamps the owner's cache entry with cachedAt.
func replaceRows[R any](ctx context.Context, db *DB, t cacheTable, owner interface{}, entryOwner, insert string, rows []R, cachedAt int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+t.name+` WHERE `+t.ownerColumn+` = ?`), owner); err != nil {
		return fmt.Errorf("failed to clear %s rows for %s: %w", t.kind, entryOwner, err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareNamedContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row); err != nil {
				return fmt.Errorf("failed to insert %s row for %s: %w", t.kind, entryOwner, err)
			}
		}
	}

	if err := putEntry(ctx, tx, t.kind, entryOwner, cachedAt); err != nil {
		return fmt.Errorf("failed to stamp %s entry for %s: %w", t.kind, entryOwner, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// clearRows deletes every row and the cache entry of owner.
func clearRows(ctx context.Context, db *DB, t cacheTable, owner interface{}, entryOwner string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+t.name+` WHERE `+t.ownerColumn+` = ?`), owner); err != nil {
		return fmt.Errorf("failed to clear %s rows for %s: %w", t.kind, entryOwner, err)
	}
	if err := deleteEntry(ctx, tx, t.kind, entryOwner); err != nil {
		return fmt.Errorf("failed to clear %s entry for %s: %w", t.kind, entryOwner, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sweepRows deletes rows and entries of every owner cached before the cutoff.
func sweepRows(ctx context.Context, db *DB, t cacheTable, before int64) (int64, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM `+t.name+` WHERE cached_at < ?`), before)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep %s rows: %w", t.kind, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cache_entries WHERE kind = ? AND cached_at < ?`), t.kind, before); err != nil {
		return 0, fmt.Errorf("failed to sweep %s entries: %w", t.kind, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result.RowsAffected()
}

func putEntry(ctx context.Context, tx *sqlx.Tx, kind, owner string, cachedAt int64) error {
	if err := deleteEntry(ctx, tx, kind, owner); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO cache_entries (kind, owner, cached_at) VALUES (?, ?, ?)`), kind, owner, cachedAt)
	return err
}

func deleteEntry(ctx context.Context, tx *sqlx.Tx, kind, owner string) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM cache_entries WHERE kind = ? AND owner = ?`), kind, owner)
	return err
}
