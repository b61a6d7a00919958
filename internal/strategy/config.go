package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Config bundles every threshold used by the condition evaluator and the
// trade plan builder. Percentages are expressed in percent (5 means 5%).
type Config struct {
	MinBars          int                `yaml:"min_bars" json:"min_bars"`
	LookbackSessions int                `yaml:"lookback_sessions" json:"lookback_sessions"`
	VolumeMultiplier float64            `yaml:"volume_multiplier" json:"volume_multiplier"`
	MaxDistancePct   float64            `yaml:"max_distance_pct" json:"max_distance_pct"`
	RSILow           float64            `yaml:"rsi_low" json:"rsi_low"`
	RSIHigh          float64            `yaml:"rsi_high" json:"rsi_high"`
	ADXFloor         float64            `yaml:"adx_floor" json:"adx_floor"`
	ATRMultiplier    float64            `yaml:"atr_multiplier" json:"atr_multiplier"`
	MinAvgVolume     float64            `yaml:"min_avg_volume" json:"min_avg_volume"`
	FlatBaseWindow   int                `yaml:"flat_base_window" json:"flat_base_window"`
	MaxAmplitudePct  float64            `yaml:"max_amplitude_pct" json:"max_amplitude_pct"`
	ImminentGapPct   float64            `yaml:"imminent_gap_pct" json:"imminent_gap_pct"`
	AllowZeroVolume  bool               `yaml:"allow_zero_volume" json:"allow_zero_volume"`
	Weights          map[string]float64 `yaml:"weights" json:"weights"`
	Bands            []Band             `yaml:"bands" json:"bands"`
	TradePlan        TradePlanConfig    `yaml:"trade_plan" json:"trade_plan"`
}

// Band maps a minimum score to a rating label.
type Band struct {
	MinScore float64 `yaml:"min_score" json:"min_score"`
	Label    string  `yaml:"label" json:"label"`
}

// TradePlanConfig holds the entry/exit heuristics.
type TradePlanConfig struct {
	MaxGapPct       float64   `yaml:"max_gap_pct" json:"max_gap_pct"`
	FallbackPct     float64   `yaml:"fallback_pct" json:"fallback_pct"`
	TargetRatios    []float64 `yaml:"target_ratios" json:"target_ratios"`
	FallbackTargets []float64 `yaml:"fallback_targets" json:"fallback_targets"`
	TickSize        float64   `yaml:"tick_size" json:"tick_size"`
}

// DefaultWeights is the standard scan profile. Points sum to 100.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		CondTrendAlignment: 10,
		CondRecentCross:    20,
		CondCrossImminent:  0,
		CondPriceProximity: 15,
		CondVolumeSurge:    15,
		CondRSIBand:        10,
		CondMomentum:       10,
		CondLiquidity:      5,
		CondFlatBase:       15,
	}
}

// DefaultBands are the rating cutoffs, highest first.
func DefaultBands() []Band {
	return []Band{
		{MinScore: 85, Label: "Priority watch/buy"},
		{MinScore: 70, Label: "Watch"},
		{MinScore: 50, Label: "Observe"},
		{MinScore: 0, Label: "Low priority"},
	}
}

// DefaultConfig returns the stock scan profile. Weights are left nil so a
// config file can replace the whole map; call ApplyDefaults after decoding.
func DefaultConfig() Config {
	return Config{
		MinBars:          50,
		LookbackSessions: 5,
		VolumeMultiplier: 1.5,
		MaxDistancePct:   8,
		RSILow:           45,
		RSIHigh:          70,
		ADXFloor:         20,
		ATRMultiplier:    1.5,
		MinAvgVolume:     100_000,
		FlatBaseWindow:   40,
		MaxAmplitudePct:  12,
		ImminentGapPct:   2,
		Bands:            DefaultBands(),
		TradePlan: TradePlanConfig{
			MaxGapPct:       3,
			FallbackPct:     5,
			TargetRatios:    []float64{1.0, 1.618, 2.618},
			FallbackTargets: []float64{1.05, 1.10, 1.20},
		},
	}
}

// ApplyDefaults fills collections that were left empty.
func (c *Config) ApplyDefaults() {
	if len(c.Weights) == 0 {
		c.Weights = DefaultWeights()
	}
	if len(c.Bands) == 0 {
		c.Bands = DefaultBands()
	}
	if len(c.TradePlan.TargetRatios) == 0 {
		c.TradePlan.TargetRatios = []float64{1.0, 1.618, 2.618}
	}
	if len(c.TradePlan.FallbackTargets) == 0 {
		c.TradePlan.FallbackTargets = []float64{1.05, 1.10, 1.20}
	}
}

// Validate checks ranges, the weight total and band ordering.
func (c *Config) Validate() error {
	if c.MinBars < 2 {
		return errors.New("scan.min_bars must be at least 2")
	}
	if c.LookbackSessions <= 0 {
		return errors.New("scan.lookback_sessions must be positive")
	}
	if c.VolumeMultiplier <= 0 {
		return errors.New("scan.volume_multiplier must be positive")
	}
	if c.MaxDistancePct < 0 {
		return errors.New("scan.max_distance_pct must not be negative")
	}
	if c.RSILow < 0 || c.RSIHigh > 100 || c.RSILow >= c.RSIHigh {
		return fmt.Errorf("scan.rsi_low/rsi_high must satisfy 0 <= low < high <= 100, got %.1f/%.1f", c.RSILow, c.RSIHigh)
	}
	if c.ATRMultiplier <= 0 {
		return errors.New("scan.atr_multiplier must be positive")
	}
	if c.FlatBaseWindow <= 1 {
		return errors.New("scan.flat_base_window must be greater than 1")
	}
	if c.MaxAmplitudePct <= 0 {
		return errors.New("scan.max_amplitude_pct must be positive")
	}

	total := 0.0
	active := 0
	for name, w := range c.Weights {
		if _, ok := conditions[name]; !ok {
			return fmt.Errorf("scan.weights: unknown condition %q", name)
		}
		if w < 0 {
			return fmt.Errorf("scan.weights: %s has negative weight", name)
		}
		if w > 0 {
			active++
		}
		total += w
	}
	if active == 0 {
		return errors.New("scan.weights: no active condition")
	}
	if math.Abs(total-100) > 1e-6 {
		return fmt.Errorf("scan.weights must sum to 100, got %.2f", total)
	}

	if len(c.Bands) == 0 {
		return errors.New("scan.bands must not be empty")
	}
	if !sort.SliceIsSorted(c.Bands, func(i, j int) bool { return c.Bands[i].MinScore > c.Bands[j].MinScore }) {
		return errors.New("scan.bands must be ordered by min_score, highest first")
	}
	for i := 1; i < len(c.Bands); i++ {
		if c.Bands[i].MinScore == c.Bands[i-1].MinScore {
			return fmt.Errorf("scan.bands: duplicate min_score %.1f", c.Bands[i].MinScore)
		}
	}
	if c.Bands[len(c.Bands)-1].MinScore > 0 {
		return errors.New("scan.bands: lowest band must start at or below 0")
	}

	tp := c.TradePlan
	if tp.MaxGapPct < 0 {
		return errors.New("scan.trade_plan.max_gap_pct must not be negative")
	}
	if tp.FallbackPct <= 0 || tp.FallbackPct >= 100 {
		return errors.New("scan.trade_plan.fallback_pct must be in (0, 100)")
	}
	if tp.TickSize < 0 {
		return errors.New("scan.trade_plan.tick_size must not be negative")
	}
	if !ascendingPositive(tp.TargetRatios) {
		return errors.New("scan.trade_plan.target_ratios must be positive and ascending")
	}
	if !ascendingPositive(tp.FallbackTargets) {
		return errors.New("scan.trade_plan.fallback_targets must be positive and ascending")
	}
	return nil
}

func ascendingPositive(xs []float64) bool {
	if len(xs) == 0 {
		return false
	}
	for i, x := range xs {
		if x <= 0 || (i > 0 && x <= xs[i-1]) {
			return false
		}
	}
	return true
}
