package pattern

import (
	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
)

// DetectFlatBase measures the consolidation over the last window bars:
// amplitude = (max(high) - min(low)) / mean(close) * 100. The pattern holds
// when amplitude <= maxAmplitudePct and the latest close is at or above the
// midpoint of the range. The second return is false when the window cannot
// be evaluated.
func DetectFlatBase(bars []model.Bar, window int, maxAmplitudePct float64) (model.FlatBase, bool) {
	stats, err := calculator.TrailingWindow(bars, window)
	if err != nil || stats.MeanClose <= 0 {
		return model.FlatBase{}, false
	}
	price := bars[len(bars)-1].Close
	pos, err := calculator.RangePosition(price, stats.High, stats.Low)
	if err != nil {
		return model.FlatBase{}, false
	}

	fb := model.FlatBase{
		Window:       window,
		High:         stats.High,
		Low:          stats.Low,
		Midpoint:     (stats.High + stats.Low) / 2,
		AmplitudePct: (stats.High - stats.Low) / stats.MeanClose * 100,
		PositionPct:  pos,
	}
	fb.Holds = fb.AmplitudePct <= maxAmplitudePct && price >= fb.Midpoint
	return fb, true
}
