package model

// CrossEvent is the most recent fast-over-slow moving average crossover
// found within a bounded lookback.
type CrossEvent struct {
	Index     int     `json:"index"`
	DaysSince int     `json:"days_since"`
	Price     float64 `json:"price"`
	FastKey   string  `json:"fast_key"`
	SlowKey   string  `json:"slow_key"`
}

// FlatBase describes the consolidation check over the trailing window.
type FlatBase struct {
	Window       int     `json:"window"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Midpoint     float64 `json:"midpoint"`
	AmplitudePct float64 `json:"amplitude_pct"`
	PositionPct  float64 `json:"position_pct"`
	Holds        bool    `json:"holds"`
}

// ConditionResult is one evaluated rule.
type ConditionResult struct {
	Name      string  `json:"name"`
	Label     string  `json:"label"`
	Weight    float64 `json:"weight"`
	Satisfied bool    `json:"satisfied"`
	Evaluable bool    `json:"evaluable"`
	Note      string  `json:"note,omitempty"`
}

// TradePlan is derived from the crossover basis price and ATR. Targets are
// ascending.
type TradePlan struct {
	BasisPrice   float64   `json:"basis_price"`
	BuyZoneLow   float64   `json:"buy_zone_low"`
	BuyZoneHigh  float64   `json:"buy_zone_high"`
	StopLoss     float64   `json:"stop_loss"`
	Targets      []float64 `json:"targets"`
	GoodPullback bool      `json:"good_pullback"`
}

// ScanResult is the per-symbol output of a scan pass.
type ScanResult struct {
	Symbol      string            `json:"symbol"`
	Exchange    string            `json:"exchange,omitempty"`
	Price       float64           `json:"price"`
	ChangePct   Value             `json:"change_pct"`
	Volume      float64           `json:"volume"`
	VolumeRatio Value             `json:"volume_ratio"`
	MA20        Value             `json:"ma20"`
	MA50        Value             `json:"ma50"`
	MA200       Value             `json:"ma200"`
	RSI         Value             `json:"rsi"`
	Score       float64           `json:"score"`
	Rating      string            `json:"rating"`
	Matched     []string          `json:"matched"`
	Notes       []string          `json:"notes"`
	Conditions  []ConditionResult `json:"conditions"`
	Cross       *CrossEvent       `json:"cross,omitempty"`
	FlatBase    *FlatBase         `json:"flat_base,omitempty"`
	Plan        *TradePlan        `json:"trade_plan,omitempty"`
}
