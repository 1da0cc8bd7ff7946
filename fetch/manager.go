package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/dnldd/pulse/shared"
	"github.com/rs/zerolog"
)

const (
	// DefaultHistoryCount is the default number of historical ticks fetched
	// to prefill a market.
	DefaultHistoryCount = 300
	// initialBackoff is the starting reconnect backoff.
	initialBackoff = time.Second
	// maxBackoff caps the reconnect backoff.
	maxBackoff = time.Second * 32
)

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// Market is the name of the streamed market.
	Market string
	// Streamer is the upstream tick feed client.
	Streamer shared.TickStreamer
	// HistoryCount is the number of historical ticks fetched for prefill.
	HistoryCount int
	// SendTickSignal relays the provided tick signal for processing.
	SendTickSignal func(signal shared.TickSignal)
	// SendCatchUpSignal relays the provided historical prefill for processing.
	SendCatchUpSignal func(signal shared.CatchUpSignal)
	// SignalStreamReset signals a stream discontinuity so downstream state
	// can be purged.
	SignalStreamReset func(signal shared.StreamResetSignal)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ManagerConfig) Validate() error {
	if cfg.Market == "" {
		return fmt.Errorf("market cannot be an empty string")
	}
	if cfg.Streamer == nil {
		return fmt.Errorf("tick streamer cannot be nil")
	}

	return nil
}

// Manager owns the upstream feed connection lifecycle: initial history
// catch-up, live subscription, and reconnection with backoff. A reconnect
// signals a stream reset downstream before refilling, so pre-gap and post-gap
// ticks are never fused.
type Manager struct {
	cfg      *ManagerConfig
	attempts int
}

// NewManager initializes the fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating fetch manager config: %w", err)
	}

	if cfg.HistoryCount == 0 {
		cfg.HistoryCount = DefaultHistoryCount
	}

	return &Manager{cfg: cfg}, nil
}

// backoff returns the current reconnect backoff duration.
func (m *Manager) backoff() time.Duration {
	backoff := initialBackoff << m.attempts
	if backoff > maxBackoff || backoff <= 0 {
		backoff = maxBackoff
	}

	return backoff
}

// stream runs one feed connection to failure: prefill, subscribe, then
// relay live ticks.
func (m *Manager) stream(ctx context.Context) error {
	defer func() {
		_ = m.cfg.Streamer.Close()
	}()

	if m.attempts > 0 {
		// Purge stale downstream state before refilling after a reconnect.
		m.cfg.SignalStreamReset(shared.NewStreamResetSignal(m.cfg.Market))
	}

	history, err := m.cfg.Streamer.FetchTickHistory(ctx, m.cfg.Market, m.cfg.HistoryCount)
	if err != nil {
		return fmt.Errorf("fetching tick history: %w", err)
	}

	m.cfg.SendCatchUpSignal(shared.NewCatchUpSignal(m.cfg.Market, history))

	err = m.cfg.Streamer.Subscribe(ctx, m.cfg.Market)
	if err != nil {
		return fmt.Errorf("subscribing to ticks: %w", err)
	}

	m.attempts = 0

	for {
		tick, err := m.cfg.Streamer.Next(ctx)
		if err != nil {
			return fmt.Errorf("streaming ticks: %w", err)
		}

		m.cfg.SendTickSignal(shared.NewTickSignal(m.cfg.Market, tick))
	}
}

// Run manages the lifecycle processes of the fetch manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		err := m.stream(ctx)
		if ctx.Err() != nil {
			return
		}

		backoff := m.backoff()
		m.attempts++
		m.cfg.Logger.Error().Msgf("feed stream for %s interrupted, reconnecting in %s: %v",
			m.cfg.Market, backoff, err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			// retry.
		}
	}
}
