package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	total := 0.0
	for _, w := range cfg.Weights {
		total += w
	}
	assert.Equal(t, 100.0, total)
}

func TestValidate_Rejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"weights not summing to 100": func(c *Config) { c.Weights[CondFlatBase] = 5 },
		"unknown condition":          func(c *Config) { c.Weights["golden_cross"] = 0 },
		"negative weight": func(c *Config) {
			c.Weights[CondFlatBase] = -5
			c.Weights[CondRecentCross] = 40
		},
		"no active condition": func(c *Config) {
			c.Weights = map[string]float64{CondFlatBase: 0}
		},
		"inverted rsi band":    func(c *Config) { c.RSILow, c.RSIHigh = 70, 45 },
		"unordered bands":      func(c *Config) { c.Bands[0], c.Bands[1] = c.Bands[1], c.Bands[0] },
		"bands not reaching 0": func(c *Config) { c.Bands = c.Bands[:3] },
		"zero lookback":        func(c *Config) { c.LookbackSessions = 0 },
		"fallback pct 0":       func(c *Config) { c.TradePlan.FallbackPct = 0 },
		"descending targets":   func(c *Config) { c.TradePlan.TargetRatios = []float64{2, 1} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyDefaults_KeepsExplicitWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights = map[string]float64{CondRecentCross: 100}
	cfg.ApplyDefaults()
	assert.Len(t, cfg.Weights, 1)
	require.NoError(t, cfg.Validate())
}
