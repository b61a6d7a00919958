package calculator

import (
	"MarketScanner/internal/model"
)

// RSI computes the relative strength index from rolling means of gains and
// losses over period. The first defined row is index period, since row 0 has
// no price change.
//
// An all-loss-free window is 100; a window with neither gains nor losses is
// 50.
func RSI(closes []float64, period int) []model.Value {
	n := len(closes)
	gains := make([]model.Value, n)
	losses := make([]model.Value, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		gains[i] = model.Some(max(change, 0))
		losses[i] = model.Some(max(-change, 0))
	}

	avgGain := windowMean(gains, period)
	avgLoss := windowMean(losses, period)

	out := make([]model.Value, n)
	for i := range out {
		g, okG := avgGain[i].Get()
		l, okL := avgLoss[i].Get()
		if !okG || !okL {
			continue
		}
		out[i] = model.Some(rsiFromAverages(g, l))
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
