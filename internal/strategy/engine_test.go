package strategy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ApplyDefaults()
	return cfg
}

func makeBars(closes []float64, volumes []float64) []model.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volumes[i],
		}
	}
	return bars
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// crossSeries is flat at 100 for 56 sessions, then rises for four. MA20
// crosses above MA50 on the first rising session, three sessions before the
// last, and the last close sits 4% above MA20 on 1.6x the average volume.
func crossSeries(lastVolume float64) []model.Bar {
	closes := fill(56, 100)
	last := 1.04 * 1903 / (20 - 1.04)
	closes = append(closes, 101, 101, 101, last)
	volumes := fill(60, 1_000_000)
	volumes[59] = lastVolume
	return makeBars(closes, volumes)
}

func condResult(t *testing.T, res *model.ScanResult, name string) model.ConditionResult {
	t.Helper()
	for _, c := range res.Conditions {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("condition %s not reported", name)
	return model.ConditionResult{}
}

func TestEvaluate_FlatSeries(t *testing.T) {
	bars := makeBars(fill(60, 100), fill(60, 1_000_000))
	res, skip := Evaluate("FLAT", bars, testConfig())
	require.Nil(t, skip)
	require.NotNil(t, res)

	assert.Equal(t, 100.0, res.MA20.Or(0))
	assert.Equal(t, 100.0, res.MA50.Or(0))
	assert.Equal(t, 50.0, res.RSI.Or(0))
	assert.Nil(t, res.Cross)
	assert.Nil(t, res.Plan)

	assert.False(t, condResult(t, res, CondTrendAlignment).Satisfied)
	assert.False(t, condResult(t, res, CondRecentCross).Satisfied)
	assert.False(t, condResult(t, res, CondVolumeSurge).Satisfied)
	assert.False(t, condResult(t, res, CondMomentum).Satisfied)
	assert.True(t, condResult(t, res, CondPriceProximity).Satisfied)
	assert.True(t, condResult(t, res, CondRSIBand).Satisfied)
	assert.True(t, condResult(t, res, CondLiquidity).Satisfied)
	assert.True(t, condResult(t, res, CondFlatBase).Satisfied)

	assert.Equal(t, 45.0, res.Score)
	assert.Equal(t, "Low priority", res.Rating)
}

func TestEvaluate_RecentCrossWithVolume(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = map[string]float64{
		CondRecentCross:    40,
		CondPriceProximity: 30,
		CondVolumeSurge:    30,
	}
	res, skip := Evaluate("CROSS", crossSeries(1_600_000), cfg)
	require.Nil(t, skip)
	require.NotNil(t, res)

	require.NotNil(t, res.Cross)
	assert.Equal(t, 3, res.Cross.DaysSince)
	assert.Equal(t, 101.0, res.Cross.Price)
	assert.InDelta(t, 1.6, res.VolumeRatio.Or(0), 1e-9)

	assert.ElementsMatch(t, []string{"MA20 Cross", "Near MA20", "Volume Surge"}, res.Matched)
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, "Priority watch/buy", res.Rating)
	assert.Contains(t, res.Notes, "MA20 crossed above MA50 3 sessions ago")
	assert.Contains(t, res.Notes, "Price +4.0% vs MA20")

	require.NotNil(t, res.Plan)
	assert.Equal(t, 101.0, res.Plan.BasisPrice)
	assert.Less(t, res.Plan.StopLoss, 101.0)
	assert.Len(t, res.Plan.Targets, 3)
	assert.True(t, res.Plan.GoodPullback)
}

func TestEvaluate_DefaultProfileScoreIsSumOfSatisfied(t *testing.T) {
	res, skip := Evaluate("CROSS", crossSeries(1_600_000), testConfig())
	require.Nil(t, skip)
	require.NotNil(t, res)

	sum := 0.0
	for _, c := range res.Conditions {
		if c.Satisfied {
			sum += c.Weight
		}
	}
	assert.Equal(t, sum, res.Score)
	assert.False(t, condResult(t, res, CondRSIBand).Satisfied, "RSI is 100 after only gains")
	assert.Equal(t, 90.0, res.Score)
}

func TestEvaluate_ExtraSatisfiedConditionNeverLowersScore(t *testing.T) {
	cfg := testConfig()
	quiet, _ := Evaluate("X", crossSeries(1_000_000), cfg)
	loud, _ := Evaluate("X", crossSeries(1_600_000), cfg)
	require.NotNil(t, quiet)
	require.NotNil(t, loud)

	assert.False(t, condResult(t, quiet, CondVolumeSurge).Satisfied)
	assert.True(t, condResult(t, loud, CondVolumeSurge).Satisfied)
	assert.GreaterOrEqual(t, loud.Score, quiet.Score)
}

func TestEvaluate_LiquidityFloorIsExclusive(t *testing.T) {
	cfg := testConfig()
	cfg.MinAvgVolume = 1_000_000

	res, _ := Evaluate("FLAT", makeBars(fill(60, 100), fill(60, 1_000_000)), cfg)
	require.NotNil(t, res)
	assert.False(t, condResult(t, res, CondLiquidity).Satisfied, "average equal to the floor is not above it")

	res, _ = Evaluate("FLAT", makeBars(fill(60, 100), fill(60, 1_000_001)), cfg)
	require.NotNil(t, res)
	assert.True(t, condResult(t, res, CondLiquidity).Satisfied)
}

func TestEvaluate_NoMatchReturnsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = map[string]float64{CondVolumeSurge: 100}
	res, skip := Evaluate("FLAT", makeBars(fill(60, 100), fill(60, 1_000_000)), cfg)
	assert.Nil(t, res)
	assert.Nil(t, skip)
}

func TestEvaluate_InsufficientBars(t *testing.T) {
	res, skip := Evaluate("NEW", makeBars(fill(30, 10), fill(30, 500)), testConfig())
	assert.Nil(t, res)
	require.NotNil(t, skip)
	assert.Equal(t, model.SkipDataUnavailable, skip.Reason)

	_, skip = Evaluate("EMPTY", nil, testConfig())
	require.NotNil(t, skip)
	assert.Equal(t, model.SkipDataUnavailable, skip.Reason)
}

func TestEvaluate_UndefinedIndicatorsAreFalse(t *testing.T) {
	cfg := testConfig()
	cfg.MinBars = 2
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	res, skip := Evaluate("YOUNG", makeBars(closes, fill(30, 500_000)), cfg)
	require.Nil(t, skip)
	require.NotNil(t, res)

	for _, name := range []string{CondTrendAlignment, CondRecentCross} {
		c := condResult(t, res, name)
		assert.False(t, c.Satisfied, name)
		assert.False(t, c.Evaluable, name)
	}
	assert.False(t, res.MA50.Valid())
	assert.Nil(t, res.Plan)
}

func TestEvaluate_MalformedSeries(t *testing.T) {
	bars := makeBars(fill(60, 100), fill(60, 1_000_000))
	bars[10].Close = -1
	_, skip := Evaluate("BAD", bars, testConfig())
	require.NotNil(t, skip)
	assert.Equal(t, model.SkipMalformedData, skip.Reason)

	bars = makeBars(fill(60, 100), fill(60, 1_000_000))
	bars[20].Time = bars[19].Time
	_, skip = Evaluate("DUP", bars, testConfig())
	require.NotNil(t, skip)
	assert.Equal(t, model.SkipMalformedData, skip.Reason)
}

func TestEvaluate_ZeroVolume(t *testing.T) {
	bars := makeBars(fill(60, 100), fill(60, 1_000_000))
	bars[5].Volume = 0

	cfg := testConfig()
	_, skip := Evaluate("HALT", bars, cfg)
	require.NotNil(t, skip)
	assert.Equal(t, model.SkipMalformedData, skip.Reason)

	cfg.AllowZeroVolume = true
	_, skip = Evaluate("HALT", bars, cfg)
	assert.Nil(t, skip)
}

func TestEvaluate_Deterministic(t *testing.T) {
	cfg := testConfig()
	bars := crossSeries(1_600_000)
	a, _ := Evaluate("SAME", bars, cfg)
	b, _ := Evaluate("SAME", bars, cfg)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestRating(t *testing.T) {
	bands := DefaultBands()
	assert.Equal(t, "Priority watch/buy", Rating(85, bands))
	assert.Equal(t, "Watch", Rating(84.9, bands))
	assert.Equal(t, "Observe", Rating(50, bands))
	assert.Equal(t, "Low priority", Rating(0, bands))
	assert.Equal(t, "Low priority", Rating(-5, bands))
}
