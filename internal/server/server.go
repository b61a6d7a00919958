package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
	"MarketScanner/internal/report"
	"MarketScanner/internal/scheduler"
)

// Source exposes the latest scan and lets clients start a new one.
// scheduler.Scheduler implements it.
type Source interface {
	Latest() (*model.Report, bool)
	Running() bool
	TriggerScan() error
}

// Server serves the latest scan results over HTTP.
type Server struct {
	source  Source
	metrics *metrics.Metrics
	engine  *gin.Engine
	http    *http.Server
}

// New builds the router. m may be nil, in which case /metrics is not mounted.
func New(addr string, source Source, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{source: source, metrics: m, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.engine.Group("/api/v1")
	v1.GET("/results", s.results)
	v1.GET("/results.csv", s.resultsCSV)
	v1.GET("/results/:symbol", s.result)
	v1.GET("/skips", s.skips)
	v1.POST("/scan", s.scan)
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// GET /healthz
func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok", "scan_running": s.source.Running()}
	if rep, ok := s.source.Latest(); ok {
		body["last_scan"] = rep.FinishedAt
	}
	c.JSON(http.StatusOK, body)
}

// GET /api/v1/results?limit=N&min_score=S
func (s *Server) results(c *gin.Context) {
	rep, ok := s.latest(c)
	if !ok {
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	minScore := 0.0
	if v := c.Query("min_score"); v != "" {
		if minScore, err = strconv.ParseFloat(v, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_score must be a number"})
			return
		}
	}

	out := make([]model.ScanResult, 0, len(rep.Results))
	for _, r := range rep.Results {
		if r.Score < minScore {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           rep.ID,
		"finished_at":  rep.FinishedAt,
		"scanned":      rep.Scanned,
		"matched":      rep.Matched,
		"cancelled":    rep.Cancelled,
		"distribution": rep.Distribution,
		"data":         out,
		"total":        len(out),
	})
}

// GET /api/v1/results/:symbol
func (s *Server) result(c *gin.Context) {
	rep, ok := s.latest(c)
	if !ok {
		return
	}
	sym := strings.ToUpper(c.Param("symbol"))
	r, found := rep.Result(sym)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": sym + " did not match in the last scan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": r})
}

// GET /api/v1/results.csv
func (s *Server) resultsCSV(c *gin.Context) {
	rep, ok := s.latest(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename(rep.FinishedAt)+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, rep.Results); err != nil {
		log.Error().Err(err).Msg("write csv response")
	}
}

// GET /api/v1/skips
func (s *Server) skips(c *gin.Context) {
	rep, ok := s.latest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      rep.Skips,
		"by_reason": rep.SkipsByReason(),
		"total":     len(rep.Skips),
	})
}

// POST /api/v1/scan
func (s *Server) scan(c *gin.Context) {
	if err := s.source.TriggerScan(); err != nil {
		if errors.Is(err, scheduler.ErrScanRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (s *Server) latest(c *gin.Context) (*model.Report, bool) {
	rep, ok := s.source.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no scan has finished yet"})
	}
	return rep, ok
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid")
	}
	return n, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	}
}
