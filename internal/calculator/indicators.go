package calculator

import "MarketScanner/internal/model"

// Windows used for the IndicatorRow columns.
const (
	FastMAPeriod   = 20
	SlowMAPeriod   = 50
	LongMAPeriod   = 200
	RSIPeriod      = 14
	MACDFastSpan   = 12
	MACDSlowSpan   = 26
	ATRPeriod      = 14
	ADXPeriod      = 14
	VolumeMAPeriod = 20
)

// Compute builds the indicator table for an ascending series of bars.
func Compute(bars []model.Bar) []model.IndicatorRow {
	closes := model.Closes(bars)

	ma20 := SMA(closes, FastMAPeriod)
	ma50 := SMA(closes, SlowMAPeriod)
	ma200 := SMA(closes, LongMAPeriod)
	rsi := RSI(closes, RSIPeriod)
	macd := MACD(closes, MACDFastSpan, MACDSlowSpan)
	atr := ATR(bars, ATRPeriod)
	adx := ADX(bars, ADXPeriod)
	volMA := VolumeMA(bars, VolumeMAPeriod)

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		row := model.IndicatorRow{
			Bar:        b,
			MA20:       ma20[i],
			MA50:       ma50[i],
			MA200:      ma200[i],
			RSI14:      rsi[i],
			MACD:       macd[i],
			ATR14:      atr[i],
			ADX14:      adx[i],
			VolumeMA20: volMA[i],
		}
		if i > 0 && bars[i-1].Close != 0 {
			row.ChangePct = model.Some((b.Close - bars[i-1].Close) / bars[i-1].Close * 100)
		}
		if ma, ok := ma20[i].Get(); ok && ma != 0 {
			row.DistMA20Pct = model.Some((b.Close - ma) / ma * 100)
		}
		rows[i] = row
	}
	return rows
}
