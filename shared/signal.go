package shared

// StatusCode represents a request or signal status code.
type StatusCode int

const (
	Processing StatusCode = iota
	Processed
)

// TickSignal relays a tick for a market.
type TickSignal struct {
	Market string
	Tick   Tick
	Status chan StatusCode
}

// NewTickSignal initializes a new tick signal.
func NewTickSignal(market string, tick Tick) TickSignal {
	return TickSignal{
		Market: market,
		Tick:   tick,
		Status: make(chan StatusCode, 1),
	}
}

// StreamResetSignal signals an upstream stream discontinuity. Buffered state
// for the market must be purged so pre-gap and post-gap ticks are never fused
// into misleading candles.
type StreamResetSignal struct {
	Market string
	Status chan StatusCode
}

// NewStreamResetSignal initializes a new stream reset signal.
func NewStreamResetSignal(market string) StreamResetSignal {
	return StreamResetSignal{
		Market: market,
		Status: make(chan StatusCode, 1),
	}
}

// CatchUpSignal relays a batch of historical ticks used to prefill a market
// before live processing.
type CatchUpSignal struct {
	Market string
	Ticks  []Tick
	Status chan StatusCode
}

// NewCatchUpSignal initializes a new catch up signal.
func NewCatchUpSignal(market string, ticks []Tick) CatchUpSignal {
	return CatchUpSignal{
		Market: market,
		Ticks:  ticks,
		Status: make(chan StatusCode, 1),
	}
}

// ControlUpdate carries operator parameter changes for subsequent analytics
// computations. Absent fields leave the current parameter unchanged; an invalid
// field must not block other valid fields in the same update from applying.
type ControlUpdate struct {
	Barrier       float64
	HasBarrier    bool
	PayoutPercent float64
	HasPayout     bool
	Direction     Direction
	HasDirection  bool
}
