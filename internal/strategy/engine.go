package strategy

import (
	"errors"
	"fmt"

	"MarketScanner/internal/calculator"
	"MarketScanner/internal/model"
	"MarketScanner/internal/pattern"
)

// Rating maps a score to the first band whose MinScore it reaches.
func Rating(score float64, bands []Band) string {
	for _, b := range bands {
		if score >= b.MinScore {
			return b.Label
		}
	}
	if len(bands) > 0 {
		return bands[len(bands)-1].Label
	}
	return ""
}

// Evaluate runs the indicator engine, the pattern detectors and every
// weighted condition over one symbol's bars. It returns a Skip when the
// series is unusable, and (nil, nil) when nothing active was satisfied.
// Evaluate is pure: identical input yields identical output.
func Evaluate(symbol string, bars []model.Bar, cfg Config) (*model.ScanResult, *model.Skip) {
	if len(bars) == 0 {
		return nil, &model.Skip{Symbol: symbol, Reason: model.SkipDataUnavailable, Detail: "no bars"}
	}
	if err := model.ValidateBars(bars, cfg.AllowZeroVolume); err != nil {
		reason := model.SkipMalformedData
		if !errors.Is(err, model.ErrMalformed) {
			reason = model.SkipDataUnavailable
		}
		return nil, &model.Skip{Symbol: symbol, Reason: reason, Detail: err.Error()}
	}
	if len(bars) < cfg.MinBars {
		return nil, &model.Skip{
			Symbol: symbol,
			Reason: model.SkipDataUnavailable,
			Detail: fmt.Sprintf("%d bars, need %d", len(bars), cfg.MinBars),
		}
	}

	rows := calculator.Compute(bars)
	snap := newSnapshot(rows, bars, cfg)

	res := &model.ScanResult{
		Symbol:    symbol,
		Price:     snap.latest.Close,
		ChangePct: snap.latest.ChangePct,
		Volume:    snap.latest.Volume,
		MA20:      snap.latest.MA20,
		MA50:      snap.latest.MA50,
		MA200:     snap.latest.MA200,
		RSI:       snap.latest.RSI14,
		Cross:     snap.cross,
	}
	if base, ok := snap.volumeBase.Get(); ok && base > 0 {
		res.VolumeRatio = model.Some(snap.latest.Volume / base)
	}
	if snap.flatOK {
		fb := snap.flat
		res.FlatBase = &fb
	}

	score := 0.0
	for _, name := range ConditionOrder {
		w := cfg.Weights[name]
		if w <= 0 {
			continue
		}
		c := conditions[name]
		ok, evaluable, note := c.eval(snap, cfg)
		res.Conditions = append(res.Conditions, model.ConditionResult{
			Name:      name,
			Label:     c.label,
			Weight:    w,
			Satisfied: ok,
			Evaluable: evaluable,
			Note:      note,
		})
		if ok {
			score += w
			res.Matched = append(res.Matched, c.label)
			if note != "" {
				res.Notes = append(res.Notes, note)
			}
		}
	}
	if len(res.Matched) == 0 {
		return nil, nil
	}

	res.Score = min(max(score, 0), 100)
	res.Rating = Rating(res.Score, cfg.Bands)

	if snap.cross != nil {
		plan, err := BuildTradePlan(snap.latest, snap.cross.Price, snap.volumeBase, cfg.ATRMultiplier, cfg.TradePlan)
		if err == nil {
			res.Plan = plan
		}
	}
	return res, nil
}

func newSnapshot(rows []model.IndicatorRow, bars []model.Bar, cfg Config) *snapshot {
	n := len(rows)
	s := &snapshot{rows: rows, latest: rows[n-1]}
	if n >= 2 {
		s.volumeBase = rows[n-2].VolumeMA20
	}
	// keys are known constants, so the error is always nil
	s.cross, _ = pattern.DetectCross(rows, "ma20", "ma50", cfg.LookbackSessions)
	s.flat, s.flatOK = pattern.DetectFlatBase(bars, cfg.FlatBaseWindow, cfg.MaxAmplitudePct)
	return s
}
