package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
)

func row(ma20, ma50 model.Value, close float64) model.IndicatorRow {
	return model.IndicatorRow{Bar: model.Bar{Close: close}, MA20: ma20, MA50: ma50}
}

func TestDetectCross_Latest(t *testing.T) {
	rows := []model.IndicatorRow{
		row(model.Some(9), model.Some(10), 9),
		row(model.Some(11), model.Some(10), 11), // cross at 1
		row(model.Some(9), model.Some(10), 9),
		row(model.Some(12), model.Some(10), 12), // cross at 3
		row(model.Some(13), model.Some(10), 13),
	}
	ev, err := DetectCross(rows, "ma20", "ma50", 5)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 3, ev.Index)
	assert.Equal(t, 1, ev.DaysSince)
	assert.Equal(t, 12.0, ev.Price)
}

func TestDetectCross_OutsideLookback(t *testing.T) {
	rows := []model.IndicatorRow{
		row(model.Some(9), model.Some(10), 9),
		row(model.Some(11), model.Some(10), 11),
		row(model.Some(12), model.Some(10), 12),
		row(model.Some(13), model.Some(10), 13),
	}
	ev, err := DetectCross(rows, "ma20", "ma50", 2)
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = DetectCross(rows, "ma20", "ma50", 3)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 2, ev.DaysSince)
}

func TestDetectCross_TouchFromEqual(t *testing.T) {
	rows := []model.IndicatorRow{
		row(model.Some(10), model.Some(10), 10),
		row(model.Some(10.5), model.Some(10), 10.5),
	}
	ev, err := DetectCross(rows, "ma20", "ma50", 5)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 0, ev.DaysSince)
}

func TestDetectCross_UndefinedNeverCrosses(t *testing.T) {
	rows := []model.IndicatorRow{
		row(model.Some(9), model.None(), 9),
		row(model.Some(11), model.Some(10), 11),
	}
	ev, err := DetectCross(rows, "ma20", "ma50", 5)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestDetectCross_UnknownKey(t *testing.T) {
	_, err := DetectCross(nil, "ma7", "ma50", 5)
	assert.Error(t, err)
}

func TestCrossImminent(t *testing.T) {
	rows := []model.IndicatorRow{
		row(model.Some(97), model.Some(100), 97),
		row(model.Some(99), model.Some(100), 99),
	}
	assert.True(t, CrossImminent(rows, 2))
	assert.False(t, CrossImminent(rows, 0.5))

	falling := []model.IndicatorRow{
		row(model.Some(99.5), model.Some(100), 99.5),
		row(model.Some(99), model.Some(100), 99),
	}
	assert.False(t, CrossImminent(falling, 2))
}

func flatBars(closes ...float64) []model.Bar {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return bars
}

func TestDetectFlatBase_Holds(t *testing.T) {
	bars := flatBars(100, 102, 101, 103, 102, 103)
	fb, ok := DetectFlatBase(bars, 5, 5)
	require.True(t, ok)
	assert.Equal(t, 103.0, fb.High)
	assert.Equal(t, 101.0, fb.Low)
	assert.Equal(t, 102.0, fb.Midpoint)
	assert.InDelta(t, 2/102.2*100, fb.AmplitudePct, 1e-9)
	assert.Equal(t, 100.0, fb.PositionPct)
	assert.True(t, fb.Holds)
}

func TestDetectFlatBase_TooWide(t *testing.T) {
	bars := flatBars(100, 130, 110, 125)
	fb, ok := DetectFlatBase(bars, 4, 12)
	require.True(t, ok)
	assert.False(t, fb.Holds)
}

func TestDetectFlatBase_BelowMidpoint(t *testing.T) {
	bars := flatBars(100, 104, 103, 100.5)
	fb, ok := DetectFlatBase(bars, 4, 12)
	require.True(t, ok)
	assert.False(t, fb.Holds)
}

func TestDetectFlatBase_ShortSeries(t *testing.T) {
	_, ok := DetectFlatBase(flatBars(100, 101), 40, 12)
	assert.False(t, ok)
}

func TestDetectFlatBase_ScaleInvariant(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 102, 101.5, 102.5}
	base, ok := DetectFlatBase(flatBars(closes...), 6, 5)
	require.True(t, ok)

	for _, k := range []float64{0.001, 0.5, 7, 1000} {
		scaled := make([]float64, len(closes))
		for i, c := range closes {
			scaled[i] = c * k
		}
		fb, ok := DetectFlatBase(flatBars(scaled...), 6, 5)
		require.True(t, ok, "k=%v", k)
		assert.InDelta(t, base.AmplitudePct, fb.AmplitudePct, 1e-9, "k=%v", k)
		assert.InDelta(t, base.PositionPct, fb.PositionPct, 1e-9, "k=%v", k)
		assert.Equal(t, base.Holds, fb.Holds, "k=%v", k)
	}
}
