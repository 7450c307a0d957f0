package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.TTL.Collection)
	assert.Equal(t, 24*time.Hour, cfg.TTL.Marketplace)
	assert.Equal(t, 100, cfg.Discogs.PerPage)
	assert.Equal(t, 20, cfg.Marketplace.BatchSize)
	assert.Equal(t, 5, cfg.Marketplace.Concurrency)
	assert.Equal(t, 10, cfg.Marketplace.SellerLimit)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WANTLIST_CACHE_DURATION", "168h")
	t.Setenv("DISCOGS_TOKEN", "secret")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.TTL.Wantlist)
	assert.Equal(t, "secret", cfg.Discogs.Token)
	assert.Equal(t, "localhost:6380", cfg.Redis.Address())
}

func TestLoadRejectsInvalidPageSize(t *testing.T) {
	t.Setenv("DISCOGS_PER_PAGE", "0")

	_, err := Load()
	assert.Error(t, err)
}
