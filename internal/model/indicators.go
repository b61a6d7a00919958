package model

import (
	"math"
	"strconv"
)

// Value is an indicator reading that may not exist yet, e.g. during a
// rolling window's warm-up. The zero Value is undefined.
type Value struct {
	v     float64
	valid bool
}

// Some wraps a defined reading. NaN and infinities become undefined.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, valid: true}
}

// None is the undefined reading.
func None() Value { return Value{} }

// Get returns the reading and whether it is defined.
func (v Value) Get() (float64, bool) { return v.v, v.valid }

// Valid reports whether the reading is defined.
func (v Value) Valid() bool { return v.valid }

// Or returns the reading, or def when undefined.
func (v Value) Or(def float64) float64 {
	if !v.valid {
		return def
	}
	return v.v
}

// Above reports a > b. False when either side is undefined.
func Above(a, b Value) bool { return a.valid && b.valid && a.v > b.v }

// AtOrBelow reports a <= b. False when either side is undefined.
func AtOrBelow(a, b Value) bool { return a.valid && b.valid && a.v <= b.v }

// MarshalJSON encodes undefined readings as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v.v, 'f', -1, 64)), nil
}

// IndicatorRow is a Bar extended with derived fields. A derived field is
// undefined until its window has enough history.
type IndicatorRow struct {
	Bar
	ChangePct   Value `json:"change_pct"`
	MA20        Value `json:"ma20"`
	MA50        Value `json:"ma50"`
	MA200       Value `json:"ma200"`
	RSI14       Value `json:"rsi14"`
	MACD        Value `json:"macd"`
	ATR14       Value `json:"atr14"`
	ADX14       Value `json:"adx14"`
	VolumeMA20  Value `json:"volume_ma20"`
	DistMA20Pct Value `json:"dist_ma20_pct"`
}

// MAField selects a moving average column of an IndicatorRow.
type MAField func(IndicatorRow) Value

// MAFields maps column keys to selectors.
var MAFields = map[string]MAField{
	"ma20":  func(r IndicatorRow) Value { return r.MA20 },
	"ma50":  func(r IndicatorRow) Value { return r.MA50 },
	"ma200": func(r IndicatorRow) Value { return r.MA200 },
}
