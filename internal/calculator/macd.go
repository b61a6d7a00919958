package calculator

import "MarketScanner/internal/model"

// MACD is EMA(fast) - EMA(slow) of closes. The recurrence starts at row 0 but
// rows before the slow span has elapsed are reported undefined.
func MACD(closes []float64, fast, slow int) []model.Value {
	out := make([]model.Value, len(closes))
	if fast <= 0 || slow <= 0 || len(closes) < slow {
		return out
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := slow - 1; i < len(closes); i++ {
		out[i] = model.Some(emaFast[i] - emaSlow[i])
	}
	return out
}
