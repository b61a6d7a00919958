package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

func planRow(close, ma20 float64, atr model.Value, volume float64) model.IndicatorRow {
	return model.IndicatorRow{
		Bar:   model.Bar{Close: close, Volume: volume},
		MA20:  model.Some(ma20),
		ATR14: atr,
	}
}

func TestBuildTradePlan_GapTargets(t *testing.T) {
	cfg := testConfig().TradePlan
	plan, err := BuildTradePlan(planRow(110, 105, model.Some(2), 2000), 100, model.Some(1000), 1.5, cfg)
	require.NoError(t, err)

	assert.Equal(t, 100.0, plan.BuyZoneLow)
	assert.Equal(t, 103.0, plan.BuyZoneHigh)
	assert.Equal(t, 97.0, plan.StopLoss)
	assert.Equal(t, []float64{110, 116.18, 126.18}, plan.Targets)
	assert.False(t, plan.GoodPullback, "110 is above the zone tolerance")
}

func TestBuildTradePlan_NoGapUsesFixedTargets(t *testing.T) {
	cfg := testConfig().TradePlan
	plan, err := BuildTradePlan(planRow(99, 98, model.Some(1), 2000), 100, model.Some(1000), 1.5, cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{105, 110, 120}, plan.Targets)
	assert.True(t, plan.GoodPullback)
}

func TestBuildTradePlan_FallbackStop(t *testing.T) {
	cfg := testConfig().TradePlan

	// no ATR
	plan, err := BuildTradePlan(planRow(102, 100, model.None(), 1000), 100, model.Some(1000), 1.5, cfg)
	require.NoError(t, err)
	assert.Equal(t, 96.9, plan.StopLoss)

	// ATR so large the stop would go negative
	plan, err = BuildTradePlan(planRow(102, 100, model.Some(80), 1000), 100, model.Some(1000), 1.5, cfg)
	require.NoError(t, err)
	assert.Equal(t, 96.9, plan.StopLoss)
}

func TestBuildTradePlan_TickRounding(t *testing.T) {
	cfg := testConfig().TradePlan
	cfg.TickSize = 50
	plan, err := BuildTradePlan(planRow(25_300, 25_000, model.Some(310), 1000), 25_120, model.Some(900), 1.5, cfg)
	require.NoError(t, err)

	assert.Equal(t, 25_100.0, plan.BasisPrice)
	assert.Equal(t, 24_650.0, plan.StopLoss) // 24655 rounded down
	for _, v := range append([]float64{plan.BuyZoneLow, plan.BuyZoneHigh, plan.StopLoss}, plan.Targets...) {
		assert.Zero(t, int64(v)%50, "%v not on tick", v)
	}
}

func TestBuildTradePlan_StopCappedByRoundedBasis(t *testing.T) {
	cases := []struct {
		basis, tick float64
		wantBasis   float64
		wantStop    float64
	}{
		{basis: 10.0149, tick: 0, wantBasis: 10.01, wantStop: 9.9},
		{basis: 1001.49, tick: 1, wantBasis: 1001, wantStop: 990},
	}
	for _, tc := range cases {
		cfg := testConfig().TradePlan
		cfg.TickSize = tc.tick
		// a tiny ATR puts the raw stop above the cap
		row := planRow(tc.basis*1.02, tc.basis, model.Some(0.001), 1000)
		plan, err := BuildTradePlan(row, tc.basis, model.Some(1000), 1.5, cfg)
		require.NoError(t, err)

		assert.Equal(t, tc.wantBasis, plan.BasisPrice)
		assert.Equal(t, tc.wantStop, plan.StopLoss)
		assert.LessOrEqual(t, plan.StopLoss, plan.BasisPrice*stopCap)
	}
}

func TestBuildTradePlan_RejectsNonPositiveBasis(t *testing.T) {
	_, err := BuildTradePlan(planRow(10, 10, model.Some(1), 1), 0, model.Some(1), 1.5, testConfig().TradePlan)
	assert.Error(t, err)
}

func TestBuildTradePlan_StopAlwaysBelowBasisAndPrice(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := testConfig().TradePlan
	for i := 0; i < 2000; i++ {
		if i%2 == 1 {
			cfg.TickSize = 1
		} else {
			cfg.TickSize = 0
		}
		basis := 1 + rng.Float64()*200
		current := basis * (0.8 + rng.Float64()*0.4)
		atr := model.None()
		if rng.Intn(4) > 0 {
			atr = model.Some(rng.Float64() * basis * 0.2)
		}
		mult := 0.5 + rng.Float64()*3

		plan, err := BuildTradePlan(planRow(current, basis, atr, 1), basis, model.Some(1), mult, cfg)
		require.NoError(t, err)
		assert.Less(t, plan.StopLoss, basis, "case %d", i)
		assert.Less(t, plan.StopLoss, current, "case %d", i)
		assert.LessOrEqual(t, plan.StopLoss, plan.BasisPrice*stopCap+1e-9, "case %d", i)
		assert.LessOrEqual(t, plan.BuyZoneLow, plan.BuyZoneHigh, "case %d", i)
		for j := 1; j < len(plan.Targets); j++ {
			assert.LessOrEqual(t, plan.Targets[j-1], plan.Targets[j], "case %d", i)
		}
	}
}
