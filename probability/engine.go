// Package probability estimates barrier-touch probability by blending a
// reflection-principle closed form with an empirical historical-sample lookup.
package probability

import (
	"context"
	"fmt"
	"math"

	"github.com/dnldd/pulse/shared"
	"github.com/rs/zerolog"
)

const (
	// TheoreticalWeight is the blend weight of the closed-form probability.
	TheoreticalWeight = 0.6
	// EmpiricalWeight is the blend weight of the empirical probability.
	EmpiricalWeight = 0.4
	// MinSampleSize is the minimum number of historical samples required for
	// the empirical probability to be usable.
	MinSampleSize = 100
	// DefaultHorizon is the default touch horizon in ticks. It is used for
	// both the theoretical horizon and the empirical label horizon; the two
	// must match for the blend to be meaningful.
	DefaultHorizon = 60
)

// EngineConfig represents the probability engine configuration.
type EngineConfig struct {
	// Market is the name of the tracked market.
	Market string
	// Horizon is the touch horizon in ticks.
	Horizon int
	// SigmaWindow is the volatility window consulted for the closed form.
	SigmaWindow int
	// Sigma returns the market's current rolling volatility for a window.
	Sigma func(window int) (float64, bool)
	// Store is the historical sample store. It may be nil on installs with
	// no downloaded dataset; the engine then runs theoretical-only.
	Store shared.SampleStore
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *EngineConfig) Validate() error {
	if cfg.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.SigmaWindow <= 0 {
		return fmt.Errorf("sigma window must be positive, got %d", cfg.SigmaWindow)
	}
	if cfg.Sigma == nil {
		return fmt.Errorf("sigma accessor cannot be nil")
	}

	return nil
}

// Engine computes theoretical, empirical and blended touch probabilities.
type Engine struct {
	cfg *EngineConfig
	// storeDegraded is set after the store proves unavailable; the engine
	// then degrades to theoretical-only permanently, logging once.
	storeDegraded bool
}

// NewEngine initializes a new probability engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating probability engine config: %w", err)
	}

	eng := &Engine{cfg: cfg}

	if cfg.Store == nil {
		eng.storeDegraded = true
		cfg.Logger.Warn().Msgf("no sample store configured for %s, "+
			"degrading to theoretical-only estimates", cfg.Market)
	}

	return eng, nil
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Theoretical computes the reflection-principle touch probability for a
// driftless geometric brownian motion observed over the configured horizon:
// 2 * Phi(-B / (sigma * sqrt(T))) with B the fractional barrier distance.
// It degrades to absent when the rolling sigma is unavailable or zero.
func (e *Engine) Theoretical(barrierDistance float64, currentPrice float64) (float64, bool) {
	if barrierDistance <= 0 || currentPrice <= 0 {
		return 0, false
	}

	sigma, ok := e.cfg.Sigma(e.cfg.SigmaWindow)
	if !ok || sigma == 0 {
		return 0, false
	}

	sigmaTotal := sigma * math.Sqrt(float64(e.cfg.Horizon))
	if sigmaTotal == 0 {
		return 0, false
	}

	fractionalBarrier := barrierDistance / currentPrice

	return 2 * normCDF(-fractionalBarrier/sigmaTotal), true
}

// Empirical returns the fraction of stored sample windows whose maximum
// forward excursion in the provided direction reached the barrier distance,
// along with the backing sample size. It degrades to absent when the store is
// unavailable or holds fewer than the minimum sample threshold.
func (e *Engine) Empirical(ctx context.Context, barrierDistance float64, direction shared.Direction) (float64, int64, bool) {
	if e.storeDegraded {
		return 0, 0, false
	}

	total, touched, err := e.cfg.Store.TouchStats(ctx, e.cfg.Market, direction, barrierDistance)
	if err != nil {
		// A missing or unreachable store is a permanent reduced-capability
		// condition, reported once and never surfaced as an error again.
		e.storeDegraded = true
		e.cfg.Logger.Warn().Msgf("sample store unavailable for %s, "+
			"degrading to theoretical-only estimates: %v", e.cfg.Market, err)
		return 0, 0, false
	}

	if total < MinSampleSize {
		return 0, 0, false
	}

	return float64(touched) / float64(total), total, true
}

// Estimate computes both probability sources and blends them. When both are
// present the blend is the fixed weighted combination; otherwise the estimate
// falls back to whichever source is available.
func (e *Engine) Estimate(ctx context.Context, barrierDistance float64, currentPrice float64, direction shared.Direction) shared.ProbabilityEstimate {
	var estimate shared.ProbabilityEstimate

	estimate.Theoretical, estimate.HasTheoretical = e.Theoretical(barrierDistance, currentPrice)

	empirical, sampleSize, hasEmpirical := e.Empirical(ctx, barrierDistance, direction)
	if hasEmpirical {
		estimate.Empirical = empirical
		estimate.HasEmpirical = true
		estimate.SampleSize = sampleSize
	}

	switch {
	case estimate.HasTheoretical && estimate.HasEmpirical:
		estimate.Combined = TheoreticalWeight*estimate.Theoretical +
			EmpiricalWeight*estimate.Empirical
		estimate.HasCombined = true
	case estimate.HasTheoretical:
		estimate.Combined = estimate.Theoretical
		estimate.HasCombined = true
	case estimate.HasEmpirical:
		estimate.Combined = estimate.Empirical
		estimate.HasCombined = true
	}

	return estimate
}
