package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MarketScanner/internal/cache"
	"MarketScanner/internal/model"
	"MarketScanner/internal/strategy"
	"MarketScanner/internal/universe"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level" envconfig:"SCREENER_LOG_LEVEL"`
	DataSource DataSourceConfig `yaml:"data_source" ignored:"true"`
	Universe   universe.Config  `yaml:"universe" ignored:"true"`
	Cache      cache.Config     `yaml:"cache" ignored:"true"`
	Scan       ScanConfig       `yaml:"scan" ignored:"true"`
	Output     OutputConfig     `yaml:"output" ignored:"true"`
	HTTP       HTTPConfig       `yaml:"http" ignored:"true"`
	Telegram   TelegramConfig   `yaml:"telegram" ignored:"true"`
	Schedule   ScheduleConfig   `yaml:"schedule" ignored:"true"`
}

// DataSourceConfig selects the price provider and guards calls to it.
type DataSourceConfig struct {
	Provider          string        `yaml:"provider" envconfig:"SCREENER_SOURCE_PROVIDER"` // vndirect, yahoo, mock
	BaseURL           string        `yaml:"base_url" envconfig:"SCREENER_SOURCE_BASE_URL"`
	Suffix            string        `yaml:"suffix" envconfig:"SCREENER_SOURCE_SUFFIX"`
	Proxy             string        `yaml:"proxy" envconfig:"SCREENER_SOURCE_PROXY"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"SCREENER_SOURCE_TIMEOUT"`
	LookbackDays      int           `yaml:"lookback_days" envconfig:"SCREENER_SOURCE_LOOKBACK_DAYS"`
	Resolution        string        `yaml:"resolution" envconfig:"SCREENER_SOURCE_RESOLUTION"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"SCREENER_SOURCE_RPS"`
	Burst             int           `yaml:"burst" envconfig:"SCREENER_SOURCE_BURST"`
	FailureThreshold  uint32        `yaml:"failure_threshold" envconfig:"SCREENER_SOURCE_FAILURE_THRESHOLD"`
	OpenTimeout       time.Duration `yaml:"open_timeout" envconfig:"SCREENER_SOURCE_OPEN_TIMEOUT"`
}

// ScanConfig is the strategy profile plus scan-level knobs.
type ScanConfig struct {
	strategy.Config `yaml:",inline" ignored:"true"`

	Workers       int           `yaml:"workers" envconfig:"SCREENER_SCAN_WORKERS"`
	SymbolTimeout time.Duration `yaml:"symbol_timeout" envconfig:"SCREENER_SCAN_SYMBOL_TIMEOUT"`
	MinScore      float64       `yaml:"min_score" envconfig:"SCREENER_SCAN_MIN_SCORE"`
	TopN          int           `yaml:"top_n" envconfig:"SCREENER_SCAN_TOP_N"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"SCREENER_OUTPUT_DIR"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"SCREENER_HTTP_ADDR"` // empty disables the API
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
}

type ScheduleConfig struct {
	ScanCron       string `yaml:"scan_cron" envconfig:"SCREENER_SCAN_CRON"`
	CachePurgeCron string `yaml:"cache_purge_cron" envconfig:"SCREENER_CACHE_PURGE_CRON"`
	RunOnStart     bool   `yaml:"run_on_start" envconfig:"SCREENER_RUN_ON_START"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DataSource: DataSourceConfig{
			Provider:          "vndirect",
			Suffix:            ".VN",
			Timeout:           15 * time.Second,
			LookbackDays:      150,
			Resolution:        string(model.ResolutionDaily),
			RequestsPerSecond: 5,
			Burst:             5,
			FailureThreshold:  5,
			OpenTimeout:       time.Minute,
		},
		Cache: cache.Config{
			Backend:    "memory",
			TTL:        30 * time.Minute,
			SQLitePath: "data/screener_cache.db",
		},
		Scan: ScanConfig{
			Config:        strategy.DefaultConfig(),
			Workers:       4,
			SymbolTimeout: 30 * time.Second,
			TopN:          10,
		},
		Output: OutputConfig{Dir: "output"},
		Schedule: ScheduleConfig{
			ScanCron:       "0 30 15 * * 1-5",
			CachePurgeCron: "0 0 * * * *",
		},
	}
}

// Load reads config from a YAML file on top of the defaults, then applies
// environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Scan.ApplyDefaults()

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}

// applyEnv reads overrides from the full variable names in the envconfig
// tags. With an empty prefix envconfig has no bare-name fallback, so ambient
// variables such as PASSWORD or DB are never read.
func (c *Config) applyEnv() error {
	sections := []any{
		c,
		&c.DataSource,
		&c.Universe,
		&c.Cache,
		&c.Cache.Redis,
		&c.Scan,
		&c.Output,
		&c.HTTP,
		&c.Schedule,
		&c.Telegram,
	}
	for _, spec := range sections {
		if err := envconfig.Process("", spec); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "vndirect", "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch model.Resolution(c.DataSource.Resolution) {
	case model.ResolutionDaily, model.ResolutionWeekly:
	default:
		return fmt.Errorf("data_source.resolution %q is not supported", c.DataSource.Resolution)
	}
	if c.DataSource.LookbackDays <= 0 {
		return errors.New("data_source.lookback_days must be positive")
	}
	if c.DataSource.Timeout <= 0 {
		return errors.New("data_source.timeout must be positive")
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return errors.New("data_source.requests_per_second must not be negative")
	}
	if c.Scan.Workers <= 0 {
		return errors.New("scan.workers must be positive")
	}
	if c.Scan.SymbolTimeout <= 0 {
		return errors.New("scan.symbol_timeout must be positive")
	}
	if c.Scan.MinScore < 0 || c.Scan.MinScore > 100 {
		return errors.New("scan.min_score must be within [0, 100]")
	}
	if err := c.Scan.Config.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when bot_token is set")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.scan_cron":        c.Schedule.ScanCron,
		"schedule.cache_purge_cron": c.Schedule.CachePurgeCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
