package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	App         AppConfig
	Discogs     DiscogsConfig
	TTL         TTLConfig
	Store       StoreConfig
	Marketplace MarketplaceConfig
	Redis       RedisConfig
	Sweep       SweepConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"discogs-ctl"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// DiscogsConfig holds the remote catalog settings. Username is the default
// owner when a request does not name one; Token is optional.
type DiscogsConfig struct {
	Username  string        `envconfig:"DISCOGS_USERNAME" default:""`
	Token     string        `envconfig:"DISCOGS_TOKEN" default:""`
	APIURL    string        `envconfig:"DISCOGS_API_URL" default:"https://api.discogs.com"`
	WebURL    string        `envconfig:"DISCOGS_WEB_URL" default:"https://www.discogs.com"`
	UserAgent string        `envconfig:"DISCOGS_USER_AGENT" default:"discogs-ctl/1.0"`
	Timeout   time.Duration `envconfig:"DISCOGS_TIMEOUT" default:"30s"`
	PerPage   int           `envconfig:"DISCOGS_PER_PAGE" default:"100"`
}

// TTLConfig holds the cache lifetime per entity kind.
type TTLConfig struct {
	Collection  time.Duration `envconfig:"COLLECTION_CACHE_DURATION" default:"24h"`
	Shop        time.Duration `envconfig:"SHOP_CACHE_DURATION" default:"24h"`
	Wantlist    time.Duration `envconfig:"WANTLIST_CACHE_DURATION" default:"24h"`
	Marketplace time.Duration `envconfig:"MARKETPLACE_LISTINGS_CACHE_DURATION" default:"24h"`
}

// StoreConfig selects the relational cache engine.
type StoreConfig struct {
	Driver string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite, postgres, pgx or mysql
	DSN    string `envconfig:"STORE_DSN" default:"./data/discogs.db"`
}

// MarketplaceConfig holds enrichment settings.
type MarketplaceConfig struct {
	CacheType   string `envconfig:"MARKETPLACE_CACHE_TYPE" default:"sql"` // sql, redis or memory
	BatchSize   int    `envconfig:"MARKETPLACE_BATCH_SIZE" default:"20"`
	Concurrency int    `envconfig:"MARKETPLACE_CONCURRENCY" default:"5"`
	SellerLimit int    `envconfig:"MARKETPLACE_SELLER_LIMIT" default:"10"`
}

// RedisConfig holds Redis connection settings for the marketplace cache.
type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"discogs:marketplace"`
}

// SweepConfig controls the background expiry sweep.
type SweepConfig struct {
	Interval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	InitialDelay time.Duration `envconfig:"SWEEP_INITIAL_DELAY" default:"10s"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Discogs.PerPage <= 0 {
		return nil, fmt.Errorf("failed to load config: DISCOGS_PER_PAGE must be positive, got %d", cfg.Discogs.PerPage)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
