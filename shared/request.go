package shared

// MarketSnapshot bundles the current state of a tracked market for downstream
// analytics consumers.
type MarketSnapshot struct {
	Market string
	// LastTick is the most recently buffered tick.
	LastTick Tick
	// HasTick reports whether any tick has been buffered yet.
	HasTick bool
	// TickCount is the number of currently buffered ticks.
	TickCount int
	// Volatility is the current volatility engine state.
	Volatility VolatilitySnapshot
}

// SnapshotRequest represents a request to fetch the current state of a market.
type SnapshotRequest struct {
	Market   string
	Response chan MarketSnapshot
}

// NewSnapshotRequest initializes a new market snapshot request.
func NewSnapshotRequest(market string) *SnapshotRequest {
	return &SnapshotRequest{
		Market:   market,
		Response: make(chan MarketSnapshot, 1),
	}
}
