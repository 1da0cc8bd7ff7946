package indicator

import (
	"math"
	"testing"

	"github.com/dnldd/pulse/shared"
	"github.com/peterldowns/testy/assert"
)

// alternatingTicks generates n ticks oscillating between the provided prices.
func alternatingTicks(n int, low float64, high float64) []shared.Tick {
	ticks := make([]shared.Tick, 0, n)
	for idx := range n {
		price := low
		if idx%2 == 1 {
			price = high
		}

		ticks = append(ticks, shared.Tick{Epoch: int64(idx + 1), Price: price})
	}

	return ticks
}

func TestLogReturns(t *testing.T) {
	// Ensure fewer than two ticks yields no returns.
	returns := logReturns([]shared.Tick{{Epoch: 1, Price: 100}})
	assert.Equal(t, len(returns), 0)

	// Ensure pairs involving non-positive prices are skipped.
	returns = logReturns([]shared.Tick{
		{Epoch: 1, Price: 100},
		{Epoch: 2, Price: 110},
		{Epoch: 3, Price: 0},
		{Epoch: 4, Price: 121},
	})
	assert.Equal(t, len(returns), 1)
	assert.Equal(t, returns[0], math.Log(110.0/100.0))
}

func TestPopulationStdDev(t *testing.T) {
	// Ensure empty and single-element samples yield zero.
	assert.Equal(t, populationStdDev(nil), float64(0))
	assert.Equal(t, populationStdDev([]float64{5}), float64(0))

	// Ensure the deviation divides by the sample count, not count minus one.
	sample := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, populationStdDev(sample), float64(2))
}

func TestVolatilityConfigValidation(t *testing.T) {
	// Ensure a short window outside the configured windows errors.
	_, err := NewVolatility(&VolatilityConfig{
		Market:         "R_100",
		Windows:        []int{4, 8},
		ShortWindow:    2,
		BaselineWindow: 8,
	})
	assert.Error(t, err)

	// Ensure a baseline window outside the configured windows errors.
	_, err = NewVolatility(&VolatilityConfig{
		Market:         "R_100",
		Windows:        []int{2, 4},
		ShortWindow:    2,
		BaselineWindow: 8,
	})
	assert.Error(t, err)

	// Ensure a non-positive window errors.
	_, err = NewVolatility(&VolatilityConfig{
		Market:         "R_100",
		Windows:        []int{-1, 30, 300},
		ShortWindow:    30,
		BaselineWindow: 300,
	})
	assert.Error(t, err)

	// Ensure an empty config falls back to defaults and validates.
	vol, err := NewVolatility(&VolatilityConfig{Market: "R_100"})
	assert.NoError(t, err)
	assert.Equal(t, vol.cfg.ShortWindow, DefaultShortVolWindow)
	assert.Equal(t, vol.cfg.BaselineWindow, DefaultBaselineVolWindow)
	assert.Equal(t, vol.cfg.MomentumWindow, DefaultMomentumWindow)
}

func TestVolatilityUpdate(t *testing.T) {
	vol, err := NewVolatility(&VolatilityConfig{
		Market:         "R_100",
		Windows:        []int{2, 4},
		ShortWindow:    2,
		BaselineWindow: 4,
		MomentumWindow: 4,
	})
	assert.NoError(t, err)

	// Ensure insufficient history degrades to absent values.
	snapshot := vol.Update([]shared.Tick{{Epoch: 1, Price: 100}})
	assert.Equal(t, snapshot.Returns, 0)
	assert.Equal(t, len(snapshot.Sigmas), 0)
	assert.Equal(t, snapshot.HasRatio, false)
	assert.Equal(t, snapshot.Trend, shared.UnknownVolTrend)

	_, ok := vol.Sigma(2)
	assert.Equal(t, ok, false)

	// Ensure sigmas populate once enough returns exist.
	ticks := alternatingTicks(5, 100, 110)
	snapshot = vol.Update(ticks)
	assert.Equal(t, snapshot.Returns, 4)

	returns := logReturns(ticks)
	assert.Equal(t, snapshot.Sigmas[2], populationStdDev(returns[len(returns)-2:]))
	assert.Equal(t, snapshot.Sigmas[4], populationStdDev(returns))

	// Ensure the ratio is short sigma over baseline sigma.
	assert.Equal(t, snapshot.HasRatio, true)
	assert.Equal(t, snapshot.Ratio, snapshot.Sigmas[2]/snapshot.Sigmas[4])
	assert.Equal(t, snapshot.Level, shared.NormalVol)

	// Ensure a balanced window has neutral momentum.
	assert.Equal(t, snapshot.MomentumScore, float64(0))
	assert.Equal(t, snapshot.Momentum, shared.NeutralMomentum)

	sigma, ok := vol.Sigma(2)
	assert.Equal(t, ok, true)
	assert.Equal(t, sigma, snapshot.Sigmas[2])

	// Ensure snapshots are detached copies of the engine state.
	snapshot.Sigmas[2] = -1
	sigma, _ = vol.Sigma(2)
	assert.NotEqual(t, sigma, float64(-1))

	// Ensure resetting discards all retained state.
	vol.Reset()
	_, ok = vol.Sigma(2)
	assert.Equal(t, ok, false)
	assert.Equal(t, vol.Snapshot().Returns, 0)
	assert.Equal(t, len(vol.trendHistory), 0)
}

func TestVolatilityTrend(t *testing.T) {
	vol, err := NewVolatility(&VolatilityConfig{
		Market:           "R_100",
		Windows:          []int{2, 4},
		ShortWindow:      2,
		BaselineWindow:   4,
		MomentumWindow:   4,
		TrendLookback:    2,
		TrendHistorySize: 4,
	})
	assert.NoError(t, err)

	// Ensure the trend stays unknown until the lookback history fills.
	snapshot := vol.Update(alternatingTicks(5, 100, 110))
	assert.Equal(t, snapshot.Trend, shared.UnknownVolTrend)

	snapshot = vol.Update(alternatingTicks(5, 100, 105))
	assert.Equal(t, snapshot.Trend, shared.UnknownVolTrend)

	// Ensure a rising short sigma classifies as expanding.
	snapshot = vol.Update(alternatingTicks(5, 100, 140))
	assert.Equal(t, snapshot.Trend, shared.ExpandingVol)

	// Ensure a falling short sigma classifies as contracting.
	snapshot = vol.Update(alternatingTicks(5, 100, 101))
	assert.Equal(t, snapshot.Trend, shared.ContractingVol)

	// Ensure an unchanged short sigma within tolerance classifies as stable.
	snapshot = vol.Update(alternatingTicks(5, 100, 101))
	snapshot = vol.Update(alternatingTicks(5, 100, 101))
	assert.Equal(t, snapshot.Trend, shared.StableVol)
}

func TestVolatilityMomentum(t *testing.T) {
	vol, err := NewVolatility(&VolatilityConfig{
		Market:         "R_100",
		Windows:        []int{2, 4},
		ShortWindow:    2,
		BaselineWindow: 4,
		MomentumWindow: 4,
	})
	assert.NoError(t, err)

	// Ensure a run of rising prices scores full upward momentum.
	snapshot := vol.Update([]shared.Tick{
		{Epoch: 1, Price: 100},
		{Epoch: 2, Price: 101},
		{Epoch: 3, Price: 102},
		{Epoch: 4, Price: 103},
		{Epoch: 5, Price: 104},
	})
	assert.Equal(t, snapshot.MomentumScore, float64(1))
	assert.Equal(t, snapshot.Momentum, shared.UpMomentum)

	// Ensure a run of falling prices scores full downward momentum.
	snapshot = vol.Update([]shared.Tick{
		{Epoch: 1, Price: 104},
		{Epoch: 2, Price: 103},
		{Epoch: 3, Price: 102},
		{Epoch: 4, Price: 101},
		{Epoch: 5, Price: 100},
	})
	assert.Equal(t, snapshot.MomentumScore, float64(-1))
	assert.Equal(t, snapshot.Momentum, shared.DownMomentum)

	// Ensure the denominator stays the configured window even with fewer
	// returns available.
	snapshot = vol.Update([]shared.Tick{
		{Epoch: 1, Price: 100},
		{Epoch: 2, Price: 101},
	})
	assert.Equal(t, snapshot.MomentumScore, float64(1)/float64(4))
}
