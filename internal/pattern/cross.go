package pattern

import (
	"fmt"

	"MarketScanner/internal/model"
)

// DetectCross looks for the most recent row i within the last lookback rows
// where fast[i] > slow[i] and fast[i-1] <= slow[i-1]. Rows whose averages are
// undefined never form a crossover. Returns nil when there is none.
func DetectCross(rows []model.IndicatorRow, fastKey, slowKey string, lookback int) (*model.CrossEvent, error) {
	fast, ok := model.MAFields[fastKey]
	if !ok {
		return nil, fmt.Errorf("unknown moving average %q", fastKey)
	}
	slow, ok := model.MAFields[slowKey]
	if !ok {
		return nil, fmt.Errorf("unknown moving average %q", slowKey)
	}
	if lookback <= 0 {
		return nil, nil
	}

	n := len(rows)
	stop := max(n-lookback, 1)
	for i := n - 1; i >= stop; i-- {
		cur, prev := rows[i], rows[i-1]
		if model.Above(fast(cur), slow(cur)) && model.AtOrBelow(fast(prev), slow(prev)) {
			return &model.CrossEvent{
				Index:     i,
				DaysSince: DaysSinceCross(rows, i),
				Price:     cur.Close,
				FastKey:   fastKey,
				SlowKey:   slowKey,
			}, nil
		}
	}
	return nil, nil
}

// DaysSinceCross is 0 when the crossover happened on the latest row.
func DaysSinceCross(rows []model.IndicatorRow, crossIndex int) int {
	return len(rows) - crossIndex - 1
}

// CrossImminent reports whether MA20 is still below MA50 but rising and
// within gapPct percent of it on the latest row.
func CrossImminent(rows []model.IndicatorRow, gapPct float64) bool {
	n := len(rows)
	if n < 2 {
		return false
	}
	fast, okF := rows[n-1].MA20.Get()
	slow, okS := rows[n-1].MA50.Get()
	prevFast, okP := rows[n-2].MA20.Get()
	if !okF || !okS || !okP {
		return false
	}
	return fast < slow && fast > prevFast && slow-fast < slow*gapPct/100
}
