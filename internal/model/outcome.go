package model

import "time"

// SkipReason classifies why a symbol produced no evaluation.
type SkipReason string

const (
	SkipDataUnavailable      SkipReason = "DATA_UNAVAILABLE"
	SkipMalformedData        SkipReason = "MALFORMED_DATA"
	SkipExternalFetchFailure SkipReason = "EXTERNAL_FETCH_FAILURE"
	SkipCancelled            SkipReason = "CANCELLED"
)

// Skip records a symbol that was left out of the result set.
type Skip struct {
	Symbol string     `json:"symbol"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Outcome is the per-symbol result of a scan: either a Skip, a ScanResult,
// or neither when the symbol was evaluated but matched no condition.
type Outcome struct {
	Symbol string
	Result *ScanResult
	Skip   *Skip
}

// Report aggregates one scan run.
type Report struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Universe     int            `json:"universe"`
	Scanned      int            `json:"scanned"`
	Matched      int            `json:"matched"`
	Cancelled    bool           `json:"cancelled"`
	Results      []ScanResult   `json:"results"`
	Skips        []Skip         `json:"skips"`
	Distribution map[string]int `json:"distribution"`
	Exchanges    map[string]int `json:"exchanges,omitempty"`
}

// Result looks up a symbol's result.
func (r *Report) Result(symbol string) (*ScanResult, bool) {
	for i := range r.Results {
		if r.Results[i].Symbol == symbol {
			return &r.Results[i], true
		}
	}
	return nil, false
}

// SkipsByReason counts skips per reason.
func (r *Report) SkipsByReason() map[SkipReason]int {
	out := make(map[SkipReason]int)
	for _, s := range r.Skips {
		out[s.Reason]++
	}
	return out
}
