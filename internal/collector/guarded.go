package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
)

// GuardConfig paces provider calls and controls the circuit breaker.
type GuardConfig struct {
	RequestsPerSecond float64
	Burst             int
	FailureThreshold  uint32
	OpenTimeout       time.Duration
}

// GuardedFetcher waits on a shared rate limiter and runs every call through
// a circuit breaker. Missing data is not a provider failure.
type GuardedFetcher struct {
	next    Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewGuardedFetcher wraps next. m may be nil.
func NewGuardedFetcher(next Fetcher, cfg GuardConfig, m *metrics.Metrics) *GuardedFetcher {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	name := next.Name()
	st := gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			m.SetBreakerState(name, int(to))
		},
	}
	return &GuardedFetcher{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: m,
	}
}

func (g *GuardedFetcher) Name() string { return g.next.Name() }

// State exposes the breaker state.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }

func (g *GuardedFetcher) FetchBars(ctx context.Context, symbol string, start, end time.Time, res model.Resolution) ([]model.Bar, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	began := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.FetchBars(ctx, symbol, start, end, res)
	})
	g.metrics.ObserveFetch(g.next.Name(), time.Since(began), err)
	if err != nil {
		return nil, err
	}
	return out.([]model.Bar), nil
}
