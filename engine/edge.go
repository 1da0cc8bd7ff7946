package engine

import (
	"fmt"

	"github.com/dnldd/pulse/shared"
)

const (
	// lowSampleWarningThreshold is the empirical sample size below which the
	// estimate is flagged as thinly backed.
	lowSampleWarningThreshold = 500
)

// ImpliedProbability returns the break-even probability consistent with the
// provided quoted payout percentage.
func ImpliedProbability(payoutPercent float64) float64 {
	return 1 / (1 + payoutPercent/100)
}

// EvaluateEdge derives a neutral context summary from the provided probability
// estimate and quoted payout. The summary is descriptive only: it lists
// caveats and never recommends an action, keeping decision authority with the
// consumer. When the combined probability is unavailable the edge is reported
// as zero with an explicit warning so the output schema stays stable.
func EvaluateEdge(estimate shared.ProbabilityEstimate, payoutPercent float64,
	tickCount int, warmupThreshold int, vol shared.VolatilitySnapshot) shared.EdgeSummary {
	summary := shared.EdgeSummary{
		ImpliedProbability: ImpliedProbability(payoutPercent),
		Warnings:           []string{},
	}

	if tickCount < warmupThreshold {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("warming up: %d/%d ticks buffered, statistics are not yet reliable",
				tickCount, warmupThreshold))
	}

	if vol.HasRatio && vol.Ratio < shared.BelowAverageVolRatioThreshold {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("rolling volatility ratio %.2f is below threshold", vol.Ratio))
	}

	if vol.Trend == shared.ContractingVol &&
		(vol.Level == shared.BelowAverageVol || vol.Level == shared.LowVol) {
		summary.Warnings = append(summary.Warnings,
			"volatility is contracting and below average")
	}

	switch {
	case estimate.HasCombined:
		summary.Edge = estimate.Combined - summary.ImpliedProbability
		summary.HasProbability = true
	default:
		summary.Warnings = append(summary.Warnings,
			"touch probability unavailable, edge reported as zero")
	}

	switch {
	case !estimate.HasEmpirical:
		summary.Warnings = append(summary.Warnings,
			"no empirical sample data, estimate is theoretical only")
	case estimate.SampleSize < lowSampleWarningThreshold:
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("low empirical sample size: %d", estimate.SampleSize))
	}

	return summary
}
