// Package engine drives the periodic analytics cadence: it owns the live
// operator parameters and assembles the analytics payload broadcast to
// display clients.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/dnldd/pulse/metrics"
	"github.com/dnldd/pulse/shared"
	"github.com/rs/zerolog"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
)

// EngineConfig represents the analytics engine configuration.
type EngineConfig struct {
	// Market is the name of the tracked market.
	Market string
	// WarmupThreshold is the buffered tick count treated as full warm-up.
	WarmupThreshold int
	// Barrier is the initial barrier distance.
	Barrier float64
	// PayoutPercent is the initial quoted payout percentage.
	PayoutPercent float64
	// Direction is the initial touch direction.
	Direction shared.Direction
	// RequestSnapshot relays the provided market snapshot request for processing.
	RequestSnapshot func(req *shared.SnapshotRequest)
	// Estimate computes the touch probability for the current parameters.
	Estimate func(ctx context.Context, barrierDistance float64, currentPrice float64, direction shared.Direction) shared.ProbabilityEstimate
	// Broadcast relays the provided message to display clients.
	Broadcast func(msg shared.Message)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *EngineConfig) Validate() error {
	if cfg.WarmupThreshold <= 0 {
		return fmt.Errorf("warmup threshold must be positive, got %d", cfg.WarmupThreshold)
	}
	if cfg.Barrier <= 0 {
		return fmt.Errorf("barrier must be positive, got %v", cfg.Barrier)
	}
	if cfg.PayoutPercent <= 0 {
		return fmt.Errorf("payout percent must be positive, got %v", cfg.PayoutPercent)
	}
	if cfg.RequestSnapshot == nil {
		return fmt.Errorf("snapshot request relay cannot be nil")
	}
	if cfg.Estimate == nil {
		return fmt.Errorf("estimate function cannot be nil")
	}
	if cfg.Broadcast == nil {
		return fmt.Errorf("broadcast function cannot be nil")
	}

	return nil
}

// Engine assembles periodic analytics for a market. The operator parameters
// are mutated only on the engine's run loop.
type Engine struct {
	cfg            *EngineConfig
	barrier        float64
	payoutPercent  float64
	direction      shared.Direction
	controlSignals chan shared.ControlUpdate
	triggers       chan struct{}
}

// NewEngine initializes a new analytics engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	return &Engine{
		cfg:            cfg,
		barrier:        cfg.Barrier,
		payoutPercent:  cfg.PayoutPercent,
		direction:      cfg.Direction,
		controlSignals: make(chan shared.ControlUpdate, bufferSize),
		triggers:       make(chan struct{}, 1),
	}, nil
}

// SendControlUpdate relays the provided operator parameter update for processing.
func (e *Engine) SendControlUpdate(update shared.ControlUpdate) {
	select {
	case e.controlSignals <- update:
		// do nothing.
	default:
		e.cfg.Logger.Error().Msgf("control update channel at capacity: %d/%d",
			len(e.controlSignals), bufferSize)
	}
}

// Trigger requests an analytics computation. It is invoked on the periodic
// cadence, distinct from tick arrival; an already-pending trigger is collapsed.
func (e *Engine) Trigger() {
	select {
	case e.triggers <- struct{}{}:
		// do nothing.
	default:
		// A computation is already pending.
	}
}

// validNumber reports whether the provided value is a usable positive number.
func validNumber(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value > 0
}

// handleControlUpdate applies the provided operator parameter update
// field-by-field. An invalid field is ignored without blocking valid fields
// in the same update from applying.
func (e *Engine) handleControlUpdate(update shared.ControlUpdate) {
	if update.HasBarrier {
		if validNumber(update.Barrier) {
			e.barrier = update.Barrier
		} else {
			e.cfg.Logger.Warn().Msgf("ignoring invalid barrier update: %v", update.Barrier)
		}
	}

	if update.HasPayout {
		if validNumber(update.PayoutPercent) {
			e.payoutPercent = update.PayoutPercent
		} else {
			e.cfg.Logger.Warn().Msgf("ignoring invalid payout update: %v", update.PayoutPercent)
		}
	}

	if update.HasDirection {
		switch update.Direction {
		case shared.Up, shared.Down:
			e.direction = update.Direction
		default:
			e.cfg.Logger.Warn().Msgf("ignoring invalid direction update: %d", update.Direction)
		}
	}
}

// handleTrigger computes and broadcasts the analytics payload for the current
// parameters. The payload is always structurally complete: unavailable
// computations surface as absent values plus explicit warnings.
func (e *Engine) handleTrigger(ctx context.Context) {
	req := shared.NewSnapshotRequest(e.cfg.Market)
	e.cfg.RequestSnapshot(req)

	var snapshot shared.MarketSnapshot
	select {
	case snapshot = <-req.Response:
		// do nothing.
	case <-ctx.Done():
		return
	}

	var estimate shared.ProbabilityEstimate
	if snapshot.HasTick {
		estimate = e.cfg.Estimate(ctx, e.barrier, snapshot.LastTick.Price, e.direction)
	}

	edge := EvaluateEdge(estimate, e.payoutPercent, snapshot.TickCount,
		e.cfg.WarmupThreshold, snapshot.Volatility)

	warmupPct := float64(snapshot.TickCount) / float64(e.cfg.WarmupThreshold)
	if warmupPct > 1 {
		warmupPct = 1
	}

	if estimate.HasCombined {
		metrics.CombinedProbability.WithLabelValues(e.cfg.Market).Set(estimate.Combined)
	}
	metrics.EmpiricalSampleSize.WithLabelValues(e.cfg.Market).Set(float64(estimate.SampleSize))

	e.cfg.Broadcast(shared.AnalyticsUpdate{
		Market:        e.cfg.Market,
		Price:         snapshot.LastTick.Price,
		TickCount:     snapshot.TickCount,
		WarmupPct:     warmupPct,
		Volatility:    snapshot.Volatility,
		Estimate:      estimate,
		Edge:          edge,
		Barrier:       e.barrier,
		PayoutPercent: e.payoutPercent,
		Direction:     e.direction,
	})
}

// Run manages the lifecycle processes of the analytics engine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-e.controlSignals:
			e.handleControlUpdate(update)
		case <-e.triggers:
			e.handleTrigger(ctx)
		}
	}
}
