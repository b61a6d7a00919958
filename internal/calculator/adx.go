package calculator

import (
	"math"

	"MarketScanner/internal/model"
)

// ADX computes the average directional index. Directional movement keeps
// only the larger positive move per bar, sums are rolling over period, and
// ADX is the rolling mean of DX, so the first defined row is 2*period-1.
// Windows with no range or no directional movement leave DX undefined.
func ADX(bars []model.Bar, period int) []model.Value {
	n := len(bars)
	out := make([]model.Value, n)
	if period <= 0 || n < 2*period {
		return out
	}

	tr := TrueRange(bars)
	trV := make([]model.Value, n)
	plusDM := make([]model.Value, n)
	minusDM := make([]model.Value, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		var p, m float64
		if up > down && up > 0 {
			p = up
		}
		if down > up && down > 0 {
			m = down
		}
		plusDM[i] = model.Some(p)
		minusDM[i] = model.Some(m)
		trV[i] = model.Some(tr[i])
	}

	sumTR := windowSum(trV, period)
	sumPlus := windowSum(plusDM, period)
	sumMinus := windowSum(minusDM, period)

	dx := make([]model.Value, n)
	for i := 0; i < n; i++ {
		st, ok := sumTR[i].Get()
		if !ok || st == 0 {
			continue
		}
		sp, _ := sumPlus[i].Get()
		sm, _ := sumMinus[i].Get()
		plusDI := 100 * sp / st
		minusDI := 100 * sm / st
		if plusDI+minusDI == 0 {
			continue
		}
		dx[i] = model.Some(100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI))
	}
	return windowMean(dx, period)
}
