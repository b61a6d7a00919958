package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"MarketScanner/internal/cache"
	"MarketScanner/internal/collector"
	"MarketScanner/internal/config"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/universe"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	cache    cache.Cache
	scanner  *scanner.Scanner
	universe func(ctx context.Context) ([]string, error)
}

func newApp(cfg *config.Config) (*app, error) {
	m := metrics.New()

	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("init cache failed, caching disabled")
		c = cache.NewNoopCache()
	}

	fetcher, err := newFetcher(cfg.DataSource)
	if err != nil {
		c.Close()
		return nil, err
	}
	log.Info().Str("source", fetcher.Name()).Str("cache", cfg.Cache.Backend).Msg("data source ready")

	guarded := collector.NewGuardedFetcher(fetcher, collector.GuardConfig{
		RequestsPerSecond: cfg.DataSource.RequestsPerSecond,
		Burst:             cfg.DataSource.Burst,
		FailureThreshold:  cfg.DataSource.FailureThreshold,
		OpenTimeout:       cfg.DataSource.OpenTimeout,
	}, m)
	cached := collector.NewCachedFetcher(guarded, c, cfg.Cache.TTL, m)
	col := collector.NewCollector(cached, cfg.DataSource.LookbackDays, model.Resolution(cfg.DataSource.Resolution))

	opts := scanner.Options{
		Workers:       cfg.Scan.Workers,
		SymbolTimeout: cfg.Scan.SymbolTimeout,
		MinScore:      cfg.Scan.MinScore,
	}
	var lister universe.Lister
	if cfg.Universe.Listing == "vndirect" {
		vn := universe.NewVNDirectLister(cfg.Universe.ListingURL, cfg.DataSource.Timeout)
		lister = vn
		opts.Exchange = vn.Exchange
	}
	sc := scanner.New(col, cfg.Scan.Config, opts, m)

	return &app{
		cfg:     cfg,
		metrics: m,
		cache:   c,
		scanner: sc,
		universe: func(ctx context.Context) ([]string, error) {
			return universe.Resolve(ctx, cfg.Universe, lister)
		},
	}, nil
}

func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		log.Warn().Err(err).Msg("close cache")
	}
}

func newFetcher(ds config.DataSourceConfig) (collector.Fetcher, error) {
	switch ds.Provider {
	case "vndirect":
		return collector.NewVNDirectFetcher(ds.BaseURL, ds.Proxy, ds.Timeout), nil
	case "yahoo":
		return collector.NewYahooFetcher(ds.BaseURL, ds.Suffix, ds.Proxy, ds.Timeout), nil
	case "mock":
		return &collector.MockFetcher{Price: 25_000, Count: 250}, nil
	default:
		return nil, fmt.Errorf("unknown data source %q", ds.Provider)
	}
}
