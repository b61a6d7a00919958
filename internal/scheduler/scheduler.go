package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"MarketScanner/internal/cache"
	"MarketScanner/internal/metrics"
	"MarketScanner/internal/model"
	"MarketScanner/internal/notifier"
	"MarketScanner/internal/report"
)

// ErrScanRunning is returned when a scan is requested while one is active.
var ErrScanRunning = errors.New("a scan is already running")

// Runner performs one scan pass. scanner.Scanner implements it.
type Runner interface {
	Run(ctx context.Context, symbols []string) (*model.Report, error)
}

// UniverseFunc resolves the symbols of the next scan.
type UniverseFunc func(ctx context.Context) ([]string, error)

// Scheduler manages all cron tasks and keeps the latest report.
type Scheduler struct {
	Cron      *cron.Cron
	Scanner   Runner
	Universe  UniverseFunc
	Cache     cache.Cache
	Notifier  notifier.Notifier
	Metrics   *metrics.Metrics
	OutputDir string
	TopN      int
	Ctx       context.Context

	mu      sync.RWMutex
	latest  *model.Report
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a new Scheduler. c and m may be nil.
func NewScheduler(ctx context.Context, run Runner, universe UniverseFunc, c cache.Cache, n notifier.Notifier, m *metrics.Metrics) *Scheduler {
	if c == nil {
		c = cache.NewNoopCache()
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Scanner:  run,
		Universe: universe,
		Cache:    c,
		Notifier: n,
		Metrics:  m,
		TopN:     10,
		Ctx:      ctx,
	}
}

// RegisterAll registers the scan and cache purge tasks. An empty spec
// disables the task.
func (s *Scheduler) RegisterAll(scanCron, purgeCron string) error {
	if scanCron != "" {
		if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
			return fmt.Errorf("register scan task: %w", err)
		}
	}
	if purgeCron != "" {
		if _, err := s.Cron.AddFunc(purgeCron, s.purgeTask); err != nil {
			return fmt.Errorf("register cache purge task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
}

// Latest returns the most recent report, if any scan has finished.
func (s *Scheduler) Latest() (*model.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Running reports whether a scan is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

// TriggerScan starts a scan in the background.
func (s *Scheduler) TriggerScan() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrScanRunning
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.scan()
	}()
	return nil
}

// RunScanNow runs a scan synchronously (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() (*model.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanRunning
	}
	defer s.running.Store(false)
	return s.scan()
}

func (s *Scheduler) scanTask() {
	if _, err := s.RunScanNow(); errors.Is(err, ErrScanRunning) {
		log.Warn().Msg("scheduled scan skipped, previous scan still running")
	}
}

func (s *Scheduler) scan() (*model.Report, error) {
	log.Info().Msg("running scan task")
	symbols, err := s.Universe(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("resolve universe")
		s.trySend(fmt.Sprintf("❌ Could not load the symbol list: %v", err))
		return nil, err
	}

	rep, err := s.Scanner.Run(s.Ctx, symbols)
	if rep == nil {
		return nil, err
	}
	s.mu.Lock()
	s.latest = rep
	s.mu.Unlock()

	if s.OutputDir != "" && len(rep.Results) > 0 {
		if path, err := report.SaveCSV(s.OutputDir, rep); err != nil {
			log.Error().Err(err).Msg("export csv")
		} else {
			log.Info().Str("path", path).Msg("results exported")
		}
	}
	if err == nil {
		s.trySend(notifier.FormatScanReport(rep, s.TopN))
	}
	return rep, err
}

func (s *Scheduler) purgeTask() {
	n, err := s.Cache.Purge(s.Ctx)
	if err != nil {
		log.Error().Err(err).Msg("purge cache")
		return
	}
	s.Metrics.ObservePurge(n)
	if n > 0 {
		log.Info().Int("entries", n).Msg("expired cache entries purged")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/top@screener_bot 5" -> "/top"
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/scan":
		if err := s.TriggerScan(); err != nil {
			return "⏳ A scan is already running."
		}
		return "🚀 Scan started, the summary follows when it finishes."
	case "/top":
		rep, ok := s.Latest()
		if !ok {
			return "No scan has finished yet."
		}
		if len(args) == 0 {
			return notifier.FormatScanReport(rep, s.TopN)
		}
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return notifier.FormatScanReport(rep, n)
		}
		sym := strings.ToUpper(args[0])
		if r, ok := rep.Result(sym); ok {
			return notifier.FormatResult(r)
		}
		return fmt.Sprintf("%s did not match in the last scan.", sym)
	case "/skips":
		rep, ok := s.Latest()
		if !ok {
			return "No scan has finished yet."
		}
		return notifier.FormatSkips(rep)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
