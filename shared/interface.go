package shared

import (
	"context"
)

// SampleStore defines read-only access to the historical sample database.
type SampleStore interface {
	// TouchStats returns the number of stored sample windows for the market
	// and how many of them reached the provided barrier distance in the
	// given direction within the store's labeled horizon.
	TouchStats(ctx context.Context, market string, direction Direction, distance float64) (total int64, touched int64, err error)
}

// TickStreamer defines the requirements for streaming live market ticks.
type TickStreamer interface {
	// Subscribe opens a live tick subscription for the provided market.
	Subscribe(ctx context.Context, market string) error
	// Next blocks until the next tick arrives on the subscription.
	Next(ctx context.Context) (Tick, error)
	// FetchTickHistory fetches the most recent count ticks for the market.
	FetchTickHistory(ctx context.Context, market string, count int) ([]Tick, error)
	// Close tears the streaming connection down.
	Close() error
}
