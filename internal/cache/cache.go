package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"MarketScanner/internal/model"
)

// Cache stores encoded series under a key with a time-to-live. Get reports
// false for missing and expired entries alike.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Purge removes expired entries and returns how many were dropped.
	Purge(ctx context.Context) (int, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend    string        `yaml:"backend" envconfig:"SCREENER_CACHE_BACKEND"` // none, memory, redis, sqlite
	TTL        time.Duration `yaml:"ttl" envconfig:"SCREENER_CACHE_TTL"`
	SQLitePath string        `yaml:"sqlite_path" envconfig:"SCREENER_CACHE_SQLITE_PATH"`
	Redis      RedisConfig   `yaml:"redis" ignored:"true"`
}

// RedisConfig points at a Redis server.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"SCREENER_REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"SCREENER_REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"SCREENER_REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"SCREENER_REDIS_PREFIX"`
}

// Key is the cache key of one fetch: symbol, date range and resolution.
func Key(symbol string, start, end time.Time, res model.Resolution) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		strings.ToUpper(symbol), start.Format("2006-01-02"), end.Format("2006-01-02"), res)
}

// New opens the configured backend.
func New(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", "none":
		return NewNoopCache(), nil
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		return NewRedisCache(cfg.Redis)
	case "sqlite":
		return NewSQLiteCache(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
