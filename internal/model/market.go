package model

import "time"

// Bar is one trading session for one symbol.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Resolution is the bar interval requested from a data provider.
type Resolution string

const (
	ResolutionDaily  Resolution = "1D"
	ResolutionWeekly Resolution = "1W"
)

// Series holds the bars of one symbol in ascending date order.
type Series struct {
	Symbol     string
	Resolution Resolution
	Bars       []Bar
	FetchedAt  time.Time
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes extracts closing prices.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts session volumes.
func Volumes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// CloneBars returns a copy so callers never share a backing array with a cache.
func CloneBars(bars []Bar) []Bar {
	if bars == nil {
		return nil
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out
}
