package market

import (
	"context"
	"fmt"

	"github.com/dnldd/pulse/metrics"
	"github.com/dnldd/pulse/shared"
	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
)

// ManagerConfig represents the market manager configuration.
type ManagerConfig struct {
	// MarketIDs represents the collection of ids of the markets to manage.
	MarketIDs []string
	// TickBufferSize is the per-market tick buffer capacity.
	TickBufferSize int
	// Timeframes is the set of aggregated timeframes.
	Timeframes []shared.Timeframe
	// Broadcast relays the provided message to display clients.
	Broadcast func(msg shared.Message)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Manager manages the lifecycle processes of all tracked markets. All state
// mutation happens on the manager's run loop, so the per-market structures
// need no locking.
type Manager struct {
	cfg              *ManagerConfig
	markets          map[string]*Market
	tickSignals      chan shared.TickSignal
	catchUpSignals   chan shared.CatchUpSignal
	resetSignals     chan shared.StreamResetSignal
	snapshotRequests chan *shared.SnapshotRequest
}

// NewManager initializes a new market manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	markets := make(map[string]*Market, len(cfg.MarketIDs))
	for idx := range cfg.MarketIDs {
		mkt, err := NewMarket(&MarketConfig{
			Market:     cfg.MarketIDs[idx],
			BufferSize: cfg.TickBufferSize,
			Timeframes: cfg.Timeframes,
		})
		if err != nil {
			return nil, fmt.Errorf("creating market %s: %w", cfg.MarketIDs[idx], err)
		}

		markets[cfg.MarketIDs[idx]] = mkt
	}

	return &Manager{
		cfg:              cfg,
		markets:          markets,
		tickSignals:      make(chan shared.TickSignal, bufferSize),
		catchUpSignals:   make(chan shared.CatchUpSignal, bufferSize),
		resetSignals:     make(chan shared.StreamResetSignal, bufferSize),
		snapshotRequests: make(chan *shared.SnapshotRequest, bufferSize),
	}, nil
}

// SendTickSignal relays the provided tick signal for processing.
func (m *Manager) SendTickSignal(signal shared.TickSignal) {
	select {
	case m.tickSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("tick signal channel at capacity: %d/%d",
			len(m.tickSignals), bufferSize)
	}
}

// SendCatchUpSignal relays the provided catch up signal for processing.
func (m *Manager) SendCatchUpSignal(signal shared.CatchUpSignal) {
	select {
	case m.catchUpSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("catch up signal channel at capacity: %d/%d",
			len(m.catchUpSignals), bufferSize)
	}
}

// SendStreamResetSignal relays the provided stream reset signal for processing.
func (m *Manager) SendStreamResetSignal(signal shared.StreamResetSignal) {
	select {
	case m.resetSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("stream reset signal channel at capacity: %d/%d",
			len(m.resetSignals), bufferSize)
	}
}

// SendSnapshotRequest relays the provided snapshot request for processing.
func (m *Manager) SendSnapshotRequest(req *shared.SnapshotRequest) {
	select {
	case m.snapshotRequests <- req:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("snapshot request channel at capacity: %d/%d",
			len(m.snapshotRequests), bufferSize)
	}
}

// Sigma returns the rolling volatility for the provided market and window.
// The volatility snapshot pointer is atomically published, making this safe
// to call off the manager's run loop.
func (m *Manager) Sigma(market string, window int) (float64, bool) {
	mkt, ok := m.markets[market]
	if !ok {
		return 0, false
	}

	return mkt.Sigma(window)
}

// handleTickSignal processes the provided tick signal.
func (m *Manager) handleTickSignal(signal shared.TickSignal) {
	defer func() {
		signal.Status <- shared.Processed
	}()

	mkt, ok := m.markets[signal.Market]
	if !ok {
		m.cfg.Logger.Error().Msgf("no market found with name %s for tick update", signal.Market)
		return
	}

	closed, accepted := mkt.Update(signal.Tick)
	if !accepted {
		// Duplicate or out-of-order ticks are expected steady-state input,
		// dropped without surfacing an error.
		metrics.TicksRejected.WithLabelValues(signal.Market).Inc()
		return
	}

	metrics.TicksProcessed.WithLabelValues(signal.Market).Inc()

	closedByLabel := make(map[string]shared.Candlestick, len(closed))
	for timeframe, candle := range closed {
		closedByLabel[timeframe.String()] = candle
		metrics.CandlesClosed.WithLabelValues(signal.Market, timeframe.String()).Inc()
	}

	m.cfg.Broadcast(shared.TickUpdate{
		Market:        signal.Market,
		Tick:          signal.Tick,
		ClosedCandles: closedByLabel,
		Countdowns:    mkt.Countdowns(signal.Tick.Epoch),
	})
}

// handleCatchUpSignal processes the provided historical prefill.
func (m *Manager) handleCatchUpSignal(signal shared.CatchUpSignal) {
	defer func() {
		signal.Status <- shared.Processed
	}()

	mkt, ok := m.markets[signal.Market]
	if !ok {
		m.cfg.Logger.Error().Msgf("no market found with name %s for catch up", signal.Market)
		return
	}

	history := mkt.Prefill(signal.Ticks)

	candlesByLabel := make(map[string][]shared.Candlestick, len(history))
	for timeframe, candles := range history {
		candlesByLabel[timeframe.String()] = candles
	}

	m.cfg.Broadcast(shared.HistoryUpdate{
		Market:  signal.Market,
		Candles: candlesByLabel,
	})

	m.cfg.Logger.Info().Msgf("caught up on %s with %d historical ticks",
		signal.Market, len(signal.Ticks))
}

// handleStreamResetSignal processes the provided stream reset signal.
func (m *Manager) handleStreamResetSignal(signal shared.StreamResetSignal) {
	defer func() {
		signal.Status <- shared.Processed
	}()

	mkt, ok := m.markets[signal.Market]
	if !ok {
		m.cfg.Logger.Error().Msgf("no market found with name %s for stream reset", signal.Market)
		return
	}

	mkt.Reset()
	m.cfg.Logger.Info().Msgf("purged buffered state for %s after stream discontinuity", signal.Market)
}

// handleSnapshotRequest processes the provided snapshot request.
func (m *Manager) handleSnapshotRequest(req *shared.SnapshotRequest) {
	mkt, ok := m.markets[req.Market]
	if !ok {
		m.cfg.Logger.Error().Msgf("no market found with name %s for snapshot", req.Market)
		req.Response <- shared.MarketSnapshot{Market: req.Market}
		return
	}

	req.Response <- mkt.Snapshot()
}

// Run manages the lifecycle processes of the market manager.
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case signal := <-m.tickSignals:
			m.handleTickSignal(signal)
		case signal := <-m.catchUpSignals:
			m.handleCatchUpSignal(signal)
		case signal := <-m.resetSignals:
			m.handleStreamResetSignal(signal)
		case req := <-m.snapshotRequests:
			m.handleSnapshotRequest(req)
		}
	}
}
