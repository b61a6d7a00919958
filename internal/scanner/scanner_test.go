package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/collector"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
)

func barsOf(closes, volumes []float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: volumes[i]}
	}
	return bars
}

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// crossing: MA20 crosses MA50 three sessions before the end.
func crossing(lastVolume float64) []model.Bar {
	closes := append(repeat(56, 100), 101, 101, 101, 1.04*1903/(20-1.04))
	volumes := repeat(60, 1_000_000)
	volumes[59] = lastVolume
	return barsOf(closes, volumes)
}

func flat(volume float64) []model.Bar {
	return barsOf(repeat(60, 100), repeat(60, volume))
}

func newScanner(mock *collector.MockFetcher, opts Options) *Scanner {
	cfg := strategy.DefaultConfig()
	cfg.ApplyDefaults()
	loader := collector.NewCollector(mock, 150, model.ResolutionDaily)
	return New(loader, cfg, opts, metrics.New())
}

func TestRun_MixedUniverse(t *testing.T) {
	malformed := flat(1_000_000)
	malformed[30].High = 50

	mock := &collector.MockFetcher{
		Series: map[string][]model.Bar{
			"CROSS": crossing(1_600_000),
			"FLAT":  flat(1_000_000),
			"FLAT2": flat(2_000_000),
			"EMPTY": {},
			"SHORT": flat(1_000_000)[:20],
			"BAD":   malformed,
		},
		Errors: map[string]error{"DOWN": errors.New("connection refused")},
	}
	s := newScanner(mock, Options{Workers: 3})

	report, err := s.Run(context.Background(), []string{"FLAT", "EMPTY", "CROSS", "DOWN", "SHORT", "BAD", "FLAT2"})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 7, report.Universe)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 3, report.Matched)
	assert.False(t, report.Cancelled)

	var order []string
	for _, r := range report.Results {
		order = append(order, r.Symbol)
	}
	assert.Equal(t, []string{"CROSS", "FLAT2", "FLAT"}, order)

	_, ok := report.Result("EMPTY")
	assert.False(t, ok)

	reasons := map[string]model.SkipReason{}
	for _, sk := range report.Skips {
		reasons[sk.Symbol] = sk.Reason
	}
	assert.Equal(t, map[string]model.SkipReason{
		"EMPTY": model.SkipDataUnavailable,
		"SHORT": model.SkipDataUnavailable,
		"BAD":   model.SkipMalformedData,
		"DOWN":  model.SkipExternalFetchFailure,
	}, reasons)

	assert.Equal(t, 1, report.Distribution["MA20 Cross"])
	assert.Equal(t, 3, report.Distribution["Flat Base"])
	assert.Equal(t, 2, report.SkipsByReason()[model.SkipDataUnavailable])
}

func TestRun_MinScoreFilter(t *testing.T) {
	mock := &collector.MockFetcher{Series: map[string][]model.Bar{
		"CROSS": crossing(1_600_000),
		"FLAT":  flat(1_000_000),
	}}
	s := newScanner(mock, Options{MinScore: 50})

	report, err := s.Run(context.Background(), []string{"FLAT", "CROSS"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "CROSS", report.Results[0].Symbol)
}

func TestRun_TagsExchange(t *testing.T) {
	mock := &collector.MockFetcher{Series: map[string][]model.Bar{
		"VNM": flat(1_000_000),
		"SHB": flat(1_000_000),
		"NEW": flat(1_000_000),
	}}
	floors := map[string]string{"VNM": "HOSE", "SHB": "HNX"}
	s := newScanner(mock, Options{Exchange: func(sym string) string { return floors[sym] }})

	report, err := s.Run(context.Background(), []string{"VNM", "SHB", "NEW"})
	require.NoError(t, err)

	vnm, ok := report.Result("VNM")
	require.True(t, ok)
	assert.Equal(t, "HOSE", vnm.Exchange)
	unknown, ok := report.Result("NEW")
	require.True(t, ok)
	assert.Empty(t, unknown.Exchange)
	assert.Equal(t, map[string]int{"HOSE": 1, "HNX": 1}, report.Exchanges)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	mock := &collector.MockFetcher{Price: 100}
	s := newScanner(mock, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := s.Run(ctx, []string{"A", "B", "C"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.True(t, report.Cancelled)
	assert.Empty(t, report.Results)
	require.Len(t, report.Skips, 3)
	for _, sk := range report.Skips {
		assert.Equal(t, model.SkipCancelled, sk.Reason)
	}
	assert.Zero(t, mock.Calls("A"))
}

func TestRun_CancelMidway(t *testing.T) {
	mock := &collector.MockFetcher{Price: 100, Delay: 50 * time.Millisecond}
	s := newScanner(mock, Options{Workers: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	report, err := s.Run(ctx, []string{"A", "B", "C", "D", "E", "F"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, report.Cancelled)
	assert.Len(t, report.Skips, 6-report.Scanned)
	assert.Greater(t, report.SkipsByReason()[model.SkipCancelled], 0)
}

func TestScanSymbol_Timeout(t *testing.T) {
	mock := &collector.MockFetcher{Price: 100, Delay: time.Second}
	s := newScanner(mock, Options{SymbolTimeout: 20 * time.Millisecond})

	out := s.ScanSymbol(context.Background(), "SLOW")
	require.NotNil(t, out.Skip)
	assert.Equal(t, model.SkipExternalFetchFailure, out.Skip.Reason)
}

func TestSortResults(t *testing.T) {
	rs := []model.ScanResult{
		{Symbol: "B", Score: 50, Volume: 10},
		{Symbol: "A", Score: 50, Volume: 10},
		{Symbol: "C", Score: 50, Volume: 20},
		{Symbol: "D", Score: 90, Volume: 1},
	}
	SortResults(rs)
	got := []string{rs[0].Symbol, rs[1].Symbol, rs[2].Symbol, rs[3].Symbol}
	assert.Equal(t, []string{"D", "C", "A", "B"}, got)
}
