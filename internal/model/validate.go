package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformed marks a series that violates the Bar invariants.
var ErrMalformed = errors.New("malformed series")

// ValidateBars rejects non-positive or non-finite prices, inconsistent
// high/low, non-positive volume (zero is tolerated when allowZeroVolume is
// set) and dates that are not strictly increasing. Nothing is repaired.
func ValidateBars(bars []Bar, allowZeroVolume bool) error {
	for i, b := range bars {
		for _, p := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return fmt.Errorf("%w: bar %d (%s) has non-positive price", ErrMalformed, i, b.Time.Format("2006-01-02"))
			}
		}
		if b.Low > b.High || b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("%w: bar %d (%s) outside its high/low range", ErrMalformed, i, b.Time.Format("2006-01-02"))
		}
		if math.IsNaN(b.Volume) || b.Volume < 0 || (b.Volume == 0 && !allowZeroVolume) {
			return fmt.Errorf("%w: bar %d (%s) has non-positive volume", ErrMalformed, i, b.Time.Format("2006-01-02"))
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) not after previous bar", ErrMalformed, i, b.Time.Format("2006-01-02"))
		}
	}
	return nil
}
