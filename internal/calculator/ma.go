package calculator

import (
	"github.com/markcheno/go-talib"

	"MarketScanner/internal/model"
)

// SMA computes the simple moving average over window observations ending at
// each index. Rows before the window fills are undefined.
func SMA(values []float64, window int) []model.Value {
	out := make([]model.Value, len(values))
	if window <= 0 || len(values) < window {
		return out
	}
	sma := talib.Sma(values, window)
	for i := window - 1; i < len(values); i++ {
		out[i] = model.Some(sma[i])
	}
	return out
}

// VolumeMA is SMA applied to session volume.
func VolumeMA(bars []model.Bar, window int) []model.Value {
	return SMA(model.Volumes(bars), window)
}

// EMA runs the recurrence ema[0] = v[0], ema[i] = a*v[i] + (1-a)*ema[i-1]
// with a = 2/(span+1), written in increment form so a constant input stays
// exactly constant.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// windowSum sums the trailing window ending at each index. A window holding
// any undefined input is undefined. Sums are taken directly rather than
// incrementally so a window of zeros is exactly zero.
func windowSum(values []model.Value, window int) []model.Value {
	out := make([]model.Value, len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			v, valid := values[j].Get()
			if !valid {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = model.Some(sum)
		}
	}
	return out
}

func windowMean(values []model.Value, window int) []model.Value {
	sums := windowSum(values, window)
	for i, s := range sums {
		if v, ok := s.Get(); ok {
			sums[i] = model.Some(v / float64(window))
		}
	}
	return sums
}
