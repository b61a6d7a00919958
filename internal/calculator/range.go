package calculator

import (
	"errors"
	"math"

	"MarketScanner/internal/model"
)

// WindowStats summarizes the trailing window of a series.
type WindowStats struct {
	High      float64
	Low       float64
	MeanClose float64
}

// TrailingWindow scans the most recent window bars and returns the highest
// high, lowest low and mean close.
func TrailingWindow(bars []model.Bar, window int) (WindowStats, error) {
	if window <= 0 {
		return WindowStats{}, errors.New("window must be positive")
	}
	if len(bars) < window {
		return WindowStats{}, errors.New("not enough bars for window")
	}
	stats := WindowStats{High: math.Inf(-1), Low: math.Inf(1)}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		if bars[i].High > stats.High {
			stats.High = bars[i].High
		}
		if bars[i].Low < stats.Low {
			stats.Low = bars[i].Low
		}
		sum += bars[i].Close
	}
	stats.MeanClose = sum / float64(window)
	return stats, nil
}

// RangePosition returns where price sits within [low, high] as a percentage.
// A degenerate range reports 50.
func RangePosition(price, high, low float64) (float64, error) {
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	if high == low {
		return 50, nil
	}
	return (price - low) / (high - low) * 100, nil
}
