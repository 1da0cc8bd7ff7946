package shared

// Direction is the side of a barrier touch.
type Direction int

const (
	Up Direction = iota
	Down
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection parses a direction from its string form.
func ParseDirection(direction string) (Direction, bool) {
	switch direction {
	case "up":
		return Up, true
	case "down":
		return Down, true
	default:
		return 0, false
	}
}

// ProbabilityEstimate represents a barrier-touch probability estimate blending
// a closed-form theoretical source with an empirical historical-sample source.
// Absent sources degrade to their Has flags being unset, never to an error.
type ProbabilityEstimate struct {
	Theoretical    float64 `json:"theoretical"`
	HasTheoretical bool    `json:"hasTheoretical"`
	Empirical      float64 `json:"empirical"`
	HasEmpirical   bool    `json:"hasEmpirical"`
	// Combined is the weighted blend of both sources when available, the
	// surviving source when only one is, and absent when neither is.
	Combined    float64 `json:"combined"`
	HasCombined bool    `json:"hasCombined"`
	// SampleSize is the number of historical sample windows backing the
	// empirical probability, zero when the empirical source is absent.
	SampleSize int64 `json:"sampleSize"`
}

// EdgeSummary is a neutral context summary derived from a probability estimate
// and a quoted payout. It carries no buy/sell directive.
type EdgeSummary struct {
	// ImpliedProbability is the break-even probability consistent with the
	// quoted payout percentage.
	ImpliedProbability float64 `json:"impliedProbability"`
	// Edge is the combined probability minus the implied probability. It is
	// reported as zero with an explicit warning when the combined probability
	// is unavailable, keeping the output schema stable.
	Edge float64 `json:"edge"`
	// HasProbability reports whether a combined probability backed the edge.
	HasProbability bool `json:"hasProbability"`
	// Warnings lists plain-text caveats about the estimate.
	Warnings []string `json:"warnings"`
}
