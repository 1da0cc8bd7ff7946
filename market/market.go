package market

import (
	"fmt"

	"github.com/dnldd/pulse/indicator"
	"github.com/dnldd/pulse/shared"
)

// MarketConfig represents the configuration for a tracked market.
type MarketConfig struct {
	// Market is the name of the tracked market.
	Market string
	// BufferSize is the tick buffer capacity.
	BufferSize int
	// Timeframes is the set of aggregated timeframes.
	Timeframes []shared.Timeframe
}

// Market tracks the live state of a market: its tick buffer, its per-timeframe
// candlestick aggregation and its volatility statistics.
type Market struct {
	cfg        *MarketConfig
	buffer     *TickBuffer
	aggregator *Aggregator
	volatility *indicator.Volatility
}

// NewMarket initializes a new market.
func NewMarket(cfg *MarketConfig) (*Market, error) {
	buffer, err := NewTickBuffer(cfg.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("creating tick buffer: %w", err)
	}

	aggregator, err := NewAggregator(cfg.Timeframes)
	if err != nil {
		return nil, fmt.Errorf("creating aggregator: %w", err)
	}

	volatility, err := indicator.NewVolatility(&indicator.VolatilityConfig{
		Market: cfg.Market,
	})
	if err != nil {
		return nil, fmt.Errorf("creating volatility engine: %w", err)
	}

	return &Market{
		cfg:        cfg,
		buffer:     buffer,
		aggregator: aggregator,
		volatility: volatility,
	}, nil
}

// Update processes the provided tick, returning any candlesticks it finalized.
// Duplicate or out-of-order ticks are discarded and reported as not accepted.
func (m *Market) Update(tick shared.Tick) (map[shared.Timeframe]shared.Candlestick, bool) {
	if !m.buffer.Append(tick) {
		return nil, false
	}

	closed := m.aggregator.ProcessTick(tick.Epoch, tick.Price)
	m.volatility.Update(m.buffer.All())

	return closed, true
}

// Prefill replays the provided historical ticks into the market state and
// returns the replayed candlestick history per timeframe.
func (m *Market) Prefill(ticks []shared.Tick) map[shared.Timeframe][]shared.Candlestick {
	accepted := make([]shared.Tick, 0, len(ticks))
	for idx := range ticks {
		if !m.buffer.Append(ticks[idx]) {
			continue
		}

		m.aggregator.ProcessTick(ticks[idx].Epoch, ticks[idx].Price)
		accepted = append(accepted, ticks[idx])
	}

	m.volatility.Update(m.buffer.All())

	return m.aggregator.BuildHistorical(accepted)
}

// Countdowns returns the per-timeframe time remaining in the bucket containing
// the provided epoch.
func (m *Market) Countdowns(epoch int64) map[string]shared.Countdown {
	return m.aggregator.Countdowns(epoch)
}

// Sigma returns the market's rolling volatility for the provided window size.
func (m *Market) Sigma(window int) (float64, bool) {
	return m.volatility.Sigma(window)
}

// Snapshot returns the market's current state for analytics consumers.
func (m *Market) Snapshot() shared.MarketSnapshot {
	last, hasTick := m.buffer.Latest()

	return shared.MarketSnapshot{
		Market:     m.cfg.Market,
		LastTick:   last,
		HasTick:    hasTick,
		TickCount:  m.buffer.Len(),
		Volatility: m.volatility.Snapshot(),
	}
}

// Reset purges all buffered state for the market after an upstream stream
// discontinuity.
func (m *Market) Reset() {
	m.buffer.Clear()
	m.aggregator.Reset()
	m.volatility.Reset()
}
