package shared

// Tick represents a unit price observation for a market.
type Tick struct {
	// Epoch is the observation time in unix seconds.
	Epoch int64 `json:"epoch"`
	// Price is the quoted price at the epoch.
	Price float64 `json:"price"`
}

// Countdown describes the time remaining before a timeframe's active candle closes.
type Countdown struct {
	// Remaining is the number of seconds left in the active bucket, clamped at zero.
	Remaining int64 `json:"remaining"`
	// Total is the bucket duration in seconds.
	Total int64 `json:"total"`
	// Pct is the remaining fraction of the bucket, clamped at zero.
	Pct float64 `json:"pct"`
}
