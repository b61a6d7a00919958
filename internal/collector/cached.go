package collector

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"MarketScanner/internal/cache"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
)

// CachedFetcher serves repeat requests for the same (symbol, range,
// resolution) from a cache. Every call decodes a fresh slice, so callers
// never share cached bars. Cache failures fall through to the provider.
type CachedFetcher struct {
	next    Fetcher
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedFetcher wraps next. m may be nil.
func NewCachedFetcher(next Fetcher, c cache.Cache, ttl time.Duration, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{next: next, cache: c, ttl: ttl, metrics: m}
}

func (c *CachedFetcher) Name() string { return c.next.Name() }

func (c *CachedFetcher) FetchBars(ctx context.Context, symbol string, start, end time.Time, res model.Resolution) ([]model.Bar, error) {
	key := cache.Key(symbol, start, end, res)

	payload, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	if ok {
		var bars []model.Bar
		if err := json.Unmarshal(payload, &bars); err == nil && len(bars) > 0 {
			c.metrics.CacheHit()
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}
	c.metrics.CacheMiss()

	bars, err := c.next.FetchBars(ctx, symbol, start, end, res)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(bars); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return model.CloneBars(bars), nil
}
