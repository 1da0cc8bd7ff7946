package shared

// MessageKind discriminates outbound display messages.
type MessageKind int

const (
	TickUpdateKind MessageKind = iota
	HistoryUpdateKind
	AnalyticsUpdateKind
)

// String stringifies the provided message kind.
func (k MessageKind) String() string {
	switch k {
	case TickUpdateKind:
		return "tick"
	case HistoryUpdateKind:
		return "history"
	case AnalyticsUpdateKind:
		return "analytics"
	default:
		return "unknown"
	}
}

// Message is an outbound payload bound for display clients. Each message kind
// is a distinct struct so producers and consumers match exhaustively on the
// discriminant instead of switching on untyped payload fields.
type Message interface {
	Kind() MessageKind
}

// TickUpdate is broadcast on every processed tick.
type TickUpdate struct {
	Market string `json:"market"`
	Tick   Tick   `json:"tick"`
	// ClosedCandles holds candlesticks finalized by this tick, keyed by
	// timeframe label. Buckets that received no ticks are never present.
	ClosedCandles map[string]Candlestick `json:"closedCandles"`
	// Countdowns holds the per-timeframe time remaining in the active bucket.
	Countdowns map[string]Countdown `json:"countdowns"`
}

// Kind returns the tick update discriminant.
func (TickUpdate) Kind() MessageKind { return TickUpdateKind }

// HistoryUpdate is broadcast once after a historical prefill completes.
type HistoryUpdate struct {
	Market string `json:"market"`
	// Candles holds the replayed candlestick history keyed by timeframe label.
	Candles map[string][]Candlestick `json:"candles"`
}

// Kind returns the history update discriminant.
func (HistoryUpdate) Kind() MessageKind { return HistoryUpdateKind }

// AnalyticsUpdate is broadcast on a fixed periodic cadence, independent of
// tick arrival.
type AnalyticsUpdate struct {
	Market    string  `json:"market"`
	Price     float64 `json:"price"`
	TickCount int     `json:"tickCount"`
	// WarmupPct is the warm-up progress fraction, clamped at one.
	WarmupPct     float64             `json:"warmupPct"`
	Volatility    VolatilitySnapshot  `json:"volatility"`
	Estimate      ProbabilityEstimate `json:"estimate"`
	Edge          EdgeSummary         `json:"edge"`
	Barrier       float64             `json:"barrier"`
	PayoutPercent float64             `json:"payoutPercent"`
	Direction     Direction           `json:"direction"`
}

// Kind returns the analytics update discriminant.
func (AnalyticsUpdate) Kind() MessageKind { return AnalyticsUpdateKind }
