package strategy

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"MarketScanner/internal/model"
)

// stopCap keeps the stop at least 1% under the basis price.
const stopCap = 0.99

var errNoBasis = errors.New("trade plan needs a positive basis price")

// BuildTradePlan derives entry, exit and stop levels from the crossover
// basis price. The stop is always strictly below both the basis and the
// current close; targets are ascending.
func BuildTradePlan(latest model.IndicatorRow, basis float64, volumeBase model.Value, atrMultiplier float64, cfg TradePlanConfig) (*model.TradePlan, error) {
	if basis <= 0 {
		return nil, errNoBasis
	}
	current := latest.Close

	zoneLow := basis
	zoneHigh := basis * (1 + cfg.MaxGapPct/100)

	stop := -1.0
	if atr, ok := latest.ATR14.Get(); ok {
		stop = basis - atr*atrMultiplier
	}
	if stop <= 0 || stop >= current {
		stop = current * (1 - cfg.FallbackPct/100)
	}
	basisRounded := roundNearest(basis, cfg.TickSize)
	stop = min(stop, basis*stopCap, basisRounded*stopCap)

	var targets []float64
	if gap := current - basis; gap > 0 {
		for _, r := range cfg.TargetRatios {
			targets = append(targets, basis+gap*r)
		}
	} else {
		for _, r := range cfg.FallbackTargets {
			targets = append(targets, basis*r)
		}
	}

	plan := &model.TradePlan{
		BasisPrice:  basisRounded,
		BuyZoneLow:  roundNearest(zoneLow, cfg.TickSize),
		BuyZoneHigh: roundNearest(zoneHigh, cfg.TickSize),
		StopLoss:    roundDown(stop, cfg.TickSize),
	}
	for _, t := range targets {
		plan.Targets = append(plan.Targets, roundNearest(t, cfg.TickSize))
	}
	sort.Float64s(plan.Targets)

	// The reported stop must respect the cap against the reported basis.
	capped := decimal.NewFromFloat(plan.BasisPrice).Mul(decimal.NewFromFloat(stopCap))
	if decimal.NewFromFloat(plan.StopLoss).GreaterThan(capped) {
		plan.StopLoss = floorTo(capped, cfg.TickSize)
	}

	inZone := current >= plan.BuyZoneLow*0.95 && current <= plan.BuyZoneHigh*1.03
	base, ok := volumeBase.Get()
	plan.GoodPullback = inZone &&
		model.Above(model.Some(current), latest.MA20) &&
		ok && latest.Volume >= base
	return plan, nil
}

// roundNearest rounds to the tick size, or to two decimals when tick is 0.
func roundNearest(v, tick float64) float64 {
	d := decimal.NewFromFloat(v)
	if tick <= 0 {
		return d.Round(2).InexactFloat64()
	}
	t := decimal.NewFromFloat(tick)
	return d.Div(t).Round(0).Mul(t).InexactFloat64()
}

// roundDown is roundNearest toward zero, so a rounded stop never rises.
// Binary noise below 1e-8 is dropped first.
func roundDown(v, tick float64) float64 {
	return floorTo(decimal.NewFromFloat(v).Round(8), tick)
}

func floorTo(d decimal.Decimal, tick float64) float64 {
	if tick <= 0 {
		return d.RoundFloor(2).InexactFloat64()
	}
	t := decimal.NewFromFloat(tick)
	return d.Div(t).Floor().Mul(t).InexactFloat64()
}
