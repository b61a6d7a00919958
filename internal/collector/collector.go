package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketScanner/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Symbols listed in Errors fail, symbols in Series get those bars, anything
// else gets a generated series around Price, or ErrNoData if Price is 0.
type MockFetcher struct {
	Price  float64
	Count  int
	Series map[string][]model.Bar
	Errors map[string]error
	Delay  time.Duration

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(ctx context.Context, symbol string, _, end time.Time, _ model.Resolution) ([]model.Bar, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Series[symbol]; ok {
		if len(bars) == 0 {
			return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
		}
		return model.CloneBars(bars), nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	count := m.Count
	if count <= 0 {
		count = 120
	}
	return generateMockBars(m.Price, count, end), nil
}

// Calls reports how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

func generateMockBars(basePrice float64, count int, end time.Time) []model.Bar {
	if end.IsZero() {
		end = time.Now()
	}
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   last.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector loads a symbol's series over the configured lookback window.
type Collector struct {
	Fetcher      Fetcher
	LookbackDays int
	Resolution   model.Resolution

	now func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, lookbackDays int, res model.Resolution) *Collector {
	if res == "" {
		res = model.ResolutionDaily
	}
	return &Collector{Fetcher: fetcher, LookbackDays: lookbackDays, Resolution: res, now: time.Now}
}

// Window returns the date range of the next Load, truncated to whole days so
// repeated loads on one day share a cache key.
func (c *Collector) Window() (start, end time.Time) {
	now := c.now()
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start = end.AddDate(0, 0, -c.LookbackDays)
	return start, end
}

// Load fetches the symbol's bars. An empty result is ErrNoData.
func (c *Collector) Load(ctx context.Context, symbol string) (model.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	start, end := c.Window()
	bars, err := c.Fetcher.FetchBars(ctx, symbol, start, end, c.Resolution)
	if err != nil {
		return model.Series{}, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return model.Series{}, fmt.Errorf("fetch %s: %w", symbol, ErrNoData)
	}
	return model.Series{
		Symbol:     symbol,
		Resolution: c.Resolution,
		Bars:       bars,
		FetchedAt:  c.now(),
	}, nil
}
