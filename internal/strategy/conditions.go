package strategy

import (
	"fmt"

	"MarketScanner/internal/model"
	"MarketScanner/internal/pattern"
)

// Condition names, as used in scan.weights.
const (
	CondTrendAlignment = "trend_alignment"
	CondRecentCross    = "recent_cross"
	CondCrossImminent  = "cross_imminent"
	CondPriceProximity = "price_proximity"
	CondVolumeSurge    = "volume_surge"
	CondRSIBand        = "rsi_band"
	CondMomentum       = "momentum"
	CondLiquidity      = "liquidity"
	CondFlatBase       = "flat_base"
)

// ConditionOrder fixes the order conditions are evaluated and reported in.
var ConditionOrder = []string{
	CondTrendAlignment,
	CondRecentCross,
	CondCrossImminent,
	CondPriceProximity,
	CondVolumeSurge,
	CondRSIBand,
	CondMomentum,
	CondLiquidity,
	CondFlatBase,
}

// snapshot is everything a condition may look at for one symbol.
type snapshot struct {
	rows       []model.IndicatorRow
	latest     model.IndicatorRow
	volumeBase model.Value // VolumeMA20 of the previous session
	cross      *model.CrossEvent
	flat       model.FlatBase
	flatOK     bool
}

type condition struct {
	label string
	eval  func(s *snapshot, cfg Config) (satisfied, evaluable bool, note string)
}

var conditions = map[string]condition{
	CondTrendAlignment: {"Uptrend", evalTrend},
	CondRecentCross:    {"MA20 Cross", evalRecentCross},
	CondCrossImminent:  {"Cross Imminent", evalCrossImminent},
	CondPriceProximity: {"Near MA20", evalProximity},
	CondVolumeSurge:    {"Volume Surge", evalVolumeSurge},
	CondRSIBand:        {"RSI Healthy", evalRSIBand},
	CondMomentum:       {"Momentum", evalMomentum},
	CondLiquidity:      {"Liquid", evalLiquidity},
	CondFlatBase:       {"Flat Base", evalFlatBase},
}

// Label returns the display label of a condition name.
func Label(name string) string {
	if c, ok := conditions[name]; ok {
		return c.label
	}
	return name
}

func evalTrend(s *snapshot, _ Config) (bool, bool, string) {
	if !s.latest.MA20.Valid() || !s.latest.MA50.Valid() {
		return false, false, ""
	}
	ok := model.Above(s.latest.MA20, s.latest.MA50)
	if !ok {
		return false, true, "MA20 at or below MA50"
	}
	return true, true, "MA20 above MA50"
}

func evalRecentCross(s *snapshot, cfg Config) (bool, bool, string) {
	if !s.latest.MA20.Valid() || !s.latest.MA50.Valid() {
		return false, false, ""
	}
	if s.cross == nil {
		return false, true, fmt.Sprintf("No MA20/MA50 cross in %d sessions", cfg.LookbackSessions)
	}
	if s.cross.DaysSince == 0 {
		return true, true, "MA20 crossed above MA50 today"
	}
	return true, true, fmt.Sprintf("MA20 crossed above MA50 %d sessions ago", s.cross.DaysSince)
}

func evalCrossImminent(s *snapshot, cfg Config) (bool, bool, string) {
	if !s.latest.MA20.Valid() || !s.latest.MA50.Valid() {
		return false, false, ""
	}
	if pattern.CrossImminent(s.rows, cfg.ImminentGapPct) {
		return true, true, fmt.Sprintf("MA20 within %.1f%% of MA50 and rising", cfg.ImminentGapPct)
	}
	return false, true, ""
}

func evalProximity(s *snapshot, cfg Config) (bool, bool, string) {
	d, ok := s.latest.DistMA20Pct.Get()
	if !ok {
		return false, false, ""
	}
	note := fmt.Sprintf("Price %+.1f%% vs MA20", d)
	return d >= 0 && d <= cfg.MaxDistancePct, true, note
}

func evalVolumeSurge(s *snapshot, cfg Config) (bool, bool, string) {
	base, ok := s.volumeBase.Get()
	if !ok || base <= 0 {
		return false, false, ""
	}
	ratio := s.latest.Volume / base
	note := fmt.Sprintf("Volume %+.0f%% vs 20-session average", (ratio-1)*100)
	return ratio > cfg.VolumeMultiplier, true, note
}

func evalRSIBand(s *snapshot, cfg Config) (bool, bool, string) {
	rsi, ok := s.latest.RSI14.Get()
	if !ok {
		return false, false, ""
	}
	return rsi >= cfg.RSILow && rsi <= cfg.RSIHigh, true, fmt.Sprintf("RSI %.1f", rsi)
}

func evalMomentum(s *snapshot, cfg Config) (bool, bool, string) {
	macd, okM := s.latest.MACD.Get()
	adx, okA := s.latest.ADX14.Get()
	if !okM && !okA {
		return false, false, ""
	}
	switch {
	case okM && macd > 0:
		return true, true, fmt.Sprintf("MACD %.2f", macd)
	case okA && adx > cfg.ADXFloor:
		return true, true, fmt.Sprintf("ADX %.1f", adx)
	}
	return false, true, ""
}

func evalLiquidity(s *snapshot, cfg Config) (bool, bool, string) {
	avg, ok := s.latest.VolumeMA20.Get()
	if !ok {
		return false, false, ""
	}
	return avg > cfg.MinAvgVolume, true, fmt.Sprintf("Average volume %.0f", avg)
}

func evalFlatBase(s *snapshot, _ Config) (bool, bool, string) {
	if !s.flatOK {
		return false, false, ""
	}
	note := fmt.Sprintf("Base amplitude %.1f%%, position %.0f%%", s.flat.AmplitudePct, s.flat.PositionPct)
	return s.flat.Holds, true, note
}
