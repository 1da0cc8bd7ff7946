package indicator

import (
	"fmt"
	"math"
	"slices"

	"github.com/dnldd/pulse/shared"
	"go.uber.org/atomic"
)

const (
	// DefaultShortVolWindow is the default short volatility window in ticks.
	DefaultShortVolWindow = 30
	// DefaultBaselineVolWindow is the default baseline volatility window in ticks.
	DefaultBaselineVolWindow = 300
	// DefaultMomentumWindow is the default momentum window in ticks.
	DefaultMomentumWindow = 30
	// DefaultTrendLookback is the number of updates back the short sigma is
	// compared against to classify the volatility trend.
	DefaultTrendLookback = 30
	// DefaultTrendHistorySize caps the retained short sigma history.
	DefaultTrendHistorySize = 60
	// DefaultTrendTolerance is the relative tolerance band within which the
	// volatility trend is considered stable.
	DefaultTrendTolerance = 0.05
)

// DefaultVolWindows returns the default volatility window sizes in ticks.
func DefaultVolWindows() []int {
	return []int{10, 30, 60, 120, 300}
}

// VolatilityConfig represents the volatility engine configuration.
type VolatilityConfig struct {
	// Market is the name of the tracked market.
	Market string
	// Windows is the set of rolling window sizes, in ticks.
	Windows []int
	// ShortWindow is the short window used for the ratio, trend and the
	// probability engine's sigma.
	ShortWindow int
	// BaselineWindow is the baseline window used for the ratio.
	BaselineWindow int
	// MomentumWindow is the momentum tally window.
	MomentumWindow int
	// TrendLookback is the number of updates back used for trend comparison.
	TrendLookback int
	// TrendHistorySize caps the retained short sigma history.
	TrendHistorySize int
	// TrendTolerance is the stable-band relative tolerance.
	TrendTolerance float64
}

// applyDefaults fills unset configuration fields with their defaults.
func (cfg *VolatilityConfig) applyDefaults() {
	if len(cfg.Windows) == 0 {
		cfg.Windows = DefaultVolWindows()
	}
	if cfg.ShortWindow == 0 {
		cfg.ShortWindow = DefaultShortVolWindow
	}
	if cfg.BaselineWindow == 0 {
		cfg.BaselineWindow = DefaultBaselineVolWindow
	}
	if cfg.MomentumWindow == 0 {
		cfg.MomentumWindow = DefaultMomentumWindow
	}
	if cfg.TrendLookback == 0 {
		cfg.TrendLookback = DefaultTrendLookback
	}
	if cfg.TrendHistorySize == 0 {
		cfg.TrendHistorySize = DefaultTrendHistorySize
	}
	if cfg.TrendTolerance == 0 {
		cfg.TrendTolerance = DefaultTrendTolerance
	}
}

// Validate asserts the config has sane inputs.
func (cfg *VolatilityConfig) Validate() error {
	for idx := range cfg.Windows {
		if cfg.Windows[idx] <= 0 {
			return fmt.Errorf("volatility window must be positive, got %d", cfg.Windows[idx])
		}
	}
	if !slices.Contains(cfg.Windows, cfg.ShortWindow) {
		return fmt.Errorf("short window %d is not a configured window", cfg.ShortWindow)
	}
	if !slices.Contains(cfg.Windows, cfg.BaselineWindow) {
		return fmt.Errorf("baseline window %d is not a configured window", cfg.BaselineWindow)
	}
	if cfg.MomentumWindow <= 0 {
		return fmt.Errorf("momentum window must be positive, got %d", cfg.MomentumWindow)
	}

	return nil
}

// Volatility recomputes rolling volatility statistics for a market from its
// buffered tick history on every update. Sigma values are recomputed in full
// per update; only the short sigma trend history persists across calls.
type Volatility struct {
	cfg          *VolatilityConfig
	trendHistory []float64
	current      atomic.Pointer[shared.VolatilitySnapshot]
}

// NewVolatility initializes a volatility engine for the provided market.
func NewVolatility(cfg *VolatilityConfig) (*Volatility, error) {
	cfg.applyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating volatility config: %w", err)
	}

	vol := &Volatility{
		cfg:          cfg,
		trendHistory: make([]float64, 0, cfg.TrendHistorySize),
	}
	vol.current.Store(&shared.VolatilitySnapshot{Sigmas: map[int]float64{}})

	return vol, nil
}

// logReturns derives the sequence of log returns from the provided ticks.
func logReturns(ticks []shared.Tick) []float64 {
	if len(ticks) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(ticks)-1)
	for idx := 1; idx < len(ticks); idx++ {
		if ticks[idx-1].Price <= 0 || ticks[idx].Price <= 0 {
			continue
		}

		returns = append(returns, math.Log(ticks[idx].Price/ticks[idx-1].Price))
	}

	return returns
}

// populationStdDev computes the population standard deviation of the provided
// sample, dividing by the sample count rather than count minus one.
func populationStdDev(sample []float64) float64 {
	if len(sample) == 0 {
		return 0
	}

	var sum float64
	for idx := range sample {
		sum += sample[idx]
	}
	mean := sum / float64(len(sample))

	var sqDev float64
	for idx := range sample {
		dev := sample[idx] - mean
		sqDev += dev * dev
	}

	return math.Sqrt(sqDev / float64(len(sample)))
}

// classifyTrend compares the current short sigma against its value
// TrendLookback updates ago within the configured tolerance band.
func (v *Volatility) classifyTrend() shared.VolTrend {
	if len(v.trendHistory) < v.cfg.TrendLookback+1 {
		return shared.UnknownVolTrend
	}

	current := v.trendHistory[len(v.trendHistory)-1]
	previous := v.trendHistory[len(v.trendHistory)-1-v.cfg.TrendLookback]
	if previous == 0 {
		return shared.UnknownVolTrend
	}

	change := (current - previous) / previous
	switch {
	case change > v.cfg.TrendTolerance:
		return shared.ExpandingVol
	case change < -v.cfg.TrendTolerance:
		return shared.ContractingVol
	default:
		return shared.StableVol
	}
}

// momentumScore tallies strictly positive against strictly negative returns
// over the momentum window. Zero returns count toward neither side.
func (v *Volatility) momentumScore(returns []float64) float64 {
	window := v.cfg.MomentumWindow
	start := len(returns) - window
	if start < 0 {
		start = 0
	}

	var ups, downs int
	for idx := start; idx < len(returns); idx++ {
		switch {
		case returns[idx] > 0:
			ups++
		case returns[idx] < 0:
			downs++
		}
	}

	return float64(ups-downs) / float64(window)
}

// Update recomputes all volatility statistics from the provided buffered tick
// history and returns the resulting snapshot. Insufficient history degrades to
// absent values rather than errors since warm-up is an expected condition.
func (v *Volatility) Update(ticks []shared.Tick) shared.VolatilitySnapshot {
	returns := logReturns(ticks)

	sigmas := make(map[int]float64, len(v.cfg.Windows))
	for _, window := range v.cfg.Windows {
		if len(returns) < window {
			continue
		}

		sigmas[window] = populationStdDev(returns[len(returns)-window:])
	}

	if shortSigma, ok := sigmas[v.cfg.ShortWindow]; ok {
		v.trendHistory = append(v.trendHistory, shortSigma)
		if len(v.trendHistory) > v.cfg.TrendHistorySize {
			v.trendHistory = v.trendHistory[len(v.trendHistory)-v.cfg.TrendHistorySize:]
		}
	}

	snapshot := shared.VolatilitySnapshot{
		Sigmas:  sigmas,
		Trend:   v.classifyTrend(),
		Returns: len(returns),
	}

	shortSigma, shortOK := sigmas[v.cfg.ShortWindow]
	baseSigma, baseOK := sigmas[v.cfg.BaselineWindow]
	if shortOK && baseOK && baseSigma > 0 {
		snapshot.Ratio = shortSigma / baseSigma
		snapshot.HasRatio = true
		snapshot.Level = shared.CategorizeVolRatio(snapshot.Ratio)
	}

	snapshot.MomentumScore = v.momentumScore(returns)
	snapshot.Momentum = shared.CategorizeMomentumScore(snapshot.MomentumScore)

	v.current.Store(&snapshot)

	return v.Snapshot()
}

// Sigma returns the most recently computed rolling sigma for the provided
// window size.
func (v *Volatility) Sigma(window int) (float64, bool) {
	sigma, ok := v.current.Load().Sigmas[window]
	return sigma, ok
}

// Snapshot returns a read-only copy of the current volatility state.
func (v *Volatility) Snapshot() shared.VolatilitySnapshot {
	current := *v.current.Load()

	sigmas := make(map[int]float64, len(current.Sigmas))
	for window, sigma := range current.Sigmas {
		sigmas[window] = sigma
	}
	current.Sigmas = sigmas

	return current
}

// Reset discards all retained state after an upstream stream discontinuity.
func (v *Volatility) Reset() {
	v.trendHistory = v.trendHistory[:0]
	v.current.Store(&shared.VolatilitySnapshot{Sigmas: map[int]float64{}})
}
