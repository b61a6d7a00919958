package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MarketScanner/internal/model"
)

// Metrics holds the screener's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ScansTotal     *prometheus.CounterVec // labels: status=completed|cancelled
	ScanDuration   prometheus.Histogram
	SymbolsScanned prometheus.Gauge
	SymbolsMatched prometheus.Gauge
	SkipsTotal     *prometheus.CounterVec // labels: reason

	FetchDuration *prometheus.HistogramVec // labels: source
	FetchErrors   *prometheus.CounterVec   // labels: source
	BreakerState  *prometheus.GaugeVec     // labels: source; 0=closed, 1=half-open, 2=open

	CacheRequests *prometheus.CounterVec // labels: result=hit|miss
	CachePurged   prometheus.Counter
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_scans_total",
			Help: "Scan passes run, by final status",
		}, []string{"status"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_scan_duration_seconds",
			Help:    "Wall time of a full scan pass",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		SymbolsScanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_symbols",
			Help: "Symbols evaluated by the last scan",
		}),
		SymbolsMatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "screener_last_scan_matches",
			Help: "Symbols that matched at least one condition in the last scan",
		}),
		SkipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_skips_total",
			Help: "Symbols skipped, by reason",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_fetch_duration_seconds",
			Help:    "Latency of price provider calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_fetch_errors_total",
			Help: "Failed price provider calls",
		}, []string{"source"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "screener_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		}, []string{"source"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_cache_requests_total",
			Help: "Series cache lookups, by result",
		}, []string{"result"}),
		CachePurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_cache_purged_total",
			Help: "Expired cache entries removed",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ScansTotal,
		m.ScanDuration,
		m.SymbolsScanned,
		m.SymbolsMatched,
		m.SkipsTotal,
		m.FetchDuration,
		m.FetchErrors,
		m.BreakerState,
		m.CacheRequests,
		m.CachePurged,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveFetch records one provider call.
func (m *Metrics) ObserveFetch(source string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(took.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

// SetBreakerState publishes a breaker transition.
func (m *Metrics) SetBreakerState(source string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(source).Set(float64(state))
}

// CacheHit counts a cache lookup that found a live entry.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("hit").Inc()
}

// CacheMiss counts a cache lookup that fell through to the provider.
func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues("miss").Inc()
}

// ObservePurge counts entries dropped by a purge run.
func (m *Metrics) ObservePurge(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CachePurged.Add(float64(n))
}

// ObserveReport records a finished scan.
func (m *Metrics) ObserveReport(r *model.Report) {
	if m == nil || r == nil {
		return
	}
	status := "completed"
	if r.Cancelled {
		status = "cancelled"
	}
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	m.SymbolsScanned.Set(float64(r.Scanned))
	m.SymbolsMatched.Set(float64(r.Matched))
	for _, s := range r.Skips {
		m.SkipsTotal.WithLabelValues(string(s.Reason)).Inc()
	}
}
