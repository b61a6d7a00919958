package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
)

// Loader returns a symbol's series. collector.Collector implements it.
type Loader interface {
	Load(ctx context.Context, symbol string) (model.Series, error)
}

// Options control the batch loop.
type Options struct {
	Workers       int
	SymbolTimeout time.Duration
	MinScore      float64
	// Exchange names the listing venue of a symbol, "" when unknown.
	Exchange func(symbol string) string
}

// Scanner evaluates a universe of symbols and aggregates a Report.
type Scanner struct {
	loader  Loader
	cfg     strategy.Config
	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Scanner. m may be nil.
func New(loader Loader, cfg strategy.Config, opts Options, m *metrics.Metrics) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.SymbolTimeout <= 0 {
		opts.SymbolTimeout = 30 * time.Second
	}
	return &Scanner{loader: loader, cfg: cfg, opts: opts, metrics: m, now: time.Now}
}

// ScanSymbol loads and evaluates one symbol. It never returns an error:
// every failure becomes a Skip.
func (s *Scanner) ScanSymbol(ctx context.Context, symbol string) (out model.Outcome) {
	out.Symbol = symbol
	if err := ctx.Err(); err != nil {
		out.Skip = &model.Skip{Symbol: symbol, Reason: model.SkipCancelled}
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("symbol", symbol).Interface("panic", r).Msg("evaluation panicked")
			out.Result = nil
			out.Skip = &model.Skip{Symbol: symbol, Reason: model.SkipMalformedData, Detail: fmt.Sprint(r)}
		}
	}()

	symCtx, cancel := context.WithTimeout(ctx, s.opts.SymbolTimeout)
	defer cancel()

	series, err := s.loader.Load(symCtx, symbol)
	if err != nil {
		out.Skip = &model.Skip{Symbol: symbol, Reason: classify(ctx, err), Detail: err.Error()}
		return out
	}
	out.Result, out.Skip = strategy.Evaluate(symbol, series.Bars, s.cfg)
	if out.Result != nil && s.opts.Exchange != nil {
		out.Result.Exchange = s.opts.Exchange(symbol)
	}
	return out
}

func classify(parent context.Context, err error) model.SkipReason {
	switch {
	case parent.Err() != nil:
		return model.SkipCancelled
	case errors.Is(err, collector.ErrNoData):
		return model.SkipDataUnavailable
	case errors.Is(err, model.ErrMalformed):
		return model.SkipMalformedData
	default:
		return model.SkipExternalFetchFailure
	}
}

// Run scans symbols with a bounded worker pool. When ctx is cancelled the
// symbols not yet evaluated are recorded as Cancelled and the partial
// report is returned together with ctx.Err().
func (s *Scanner) Run(ctx context.Context, symbols []string) (*model.Report, error) {
	report := &model.Report{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Universe:  len(symbols),
	}
	log.Info().Str("scan_id", report.ID).Int("symbols", len(symbols)).Int("workers", s.opts.Workers).Msg("scan started")

	outcomes := make([]model.Outcome, len(symbols))
	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, sym := range symbols {
		if ctx.Err() != nil {
			outcomes[i] = model.Outcome{Symbol: sym, Skip: &model.Skip{Symbol: sym, Reason: model.SkipCancelled}}
			continue
		}
		i, sym := i, sym
		g.Go(func() error {
			outcomes[i] = s.ScanSymbol(ctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	s.aggregate(report, outcomes)
	report.Cancelled = ctx.Err() != nil
	report.FinishedAt = s.now()
	s.metrics.ObserveReport(report)

	log.Info().
		Str("scan_id", report.ID).
		Int("scanned", report.Scanned).
		Int("matched", report.Matched).
		Int("skipped", len(report.Skips)).
		Bool("cancelled", report.Cancelled).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan finished")
	return report, ctx.Err()
}

func (s *Scanner) aggregate(report *model.Report, outcomes []model.Outcome) {
	report.Distribution = make(map[string]int)
	report.Exchanges = make(map[string]int)
	for _, o := range outcomes {
		switch {
		case o.Skip != nil:
			report.Skips = append(report.Skips, *o.Skip)
			if o.Skip.Reason != model.SkipCancelled {
				log.Warn().Str("symbol", o.Symbol).Str("reason", string(o.Skip.Reason)).Str("detail", o.Skip.Detail).Msg("symbol skipped")
			}
		case o.Result != nil:
			report.Scanned++
			if o.Result.Score < s.opts.MinScore {
				continue
			}
			report.Results = append(report.Results, *o.Result)
			for _, label := range o.Result.Matched {
				report.Distribution[label]++
			}
			if ex := o.Result.Exchange; ex != "" {
				report.Exchanges[ex]++
			}
		default:
			report.Scanned++
		}
	}
	SortResults(report.Results)
	report.Matched = len(report.Results)
}

// SortResults orders by score, then volume, both descending, then symbol.
func SortResults(results []model.ScanResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Volume != b.Volume {
			return a.Volume > b.Volume
		}
		return a.Symbol < b.Symbol
	})
}
