package shared

// Thresholds for classifying the short/baseline volatility ratio.
const (
	HighVolRatioThreshold         = 1.3
	AboveAverageVolRatioThreshold = 1.1
	NormalVolRatioThreshold       = 0.9
	BelowAverageVolRatioThreshold = 0.7
)

// MomentumThreshold is the absolute momentum score required to classify a
// directional bias.
const MomentumThreshold = 0.4

// VolRatioLevel classifies the short/baseline volatility ratio.
type VolRatioLevel int

const (
	LowVol VolRatioLevel = iota
	BelowAverageVol
	NormalVol
	AboveAverageVol
	HighVol
)

// String stringifies the provided volatility ratio level.
func (v VolRatioLevel) String() string {
	switch v {
	case LowVol:
		return "LOW"
	case BelowAverageVol:
		return "BELOW AVG"
	case NormalVol:
		return "NORMAL"
	case AboveAverageVol:
		return "ABOVE AVG"
	case HighVol:
		return "HIGH"
	default:
		return "unknown"
	}
}

// CategorizeVolRatio classifies the provided short/baseline volatility ratio.
func CategorizeVolRatio(ratio float64) VolRatioLevel {
	switch {
	case ratio >= HighVolRatioThreshold:
		return HighVol
	case ratio >= AboveAverageVolRatioThreshold:
		return AboveAverageVol
	case ratio >= NormalVolRatioThreshold:
		return NormalVol
	case ratio >= BelowAverageVolRatioThreshold:
		return BelowAverageVol
	default:
		return LowVol
	}
}

// VolTrend represents the direction of change in short-window volatility.
type VolTrend int

const (
	UnknownVolTrend VolTrend = iota
	ExpandingVol
	ContractingVol
	StableVol
)

// String stringifies the provided volatility trend.
func (v VolTrend) String() string {
	switch v {
	case ExpandingVol:
		return "EXPANDING"
	case ContractingVol:
		return "CONTRACTING"
	case StableVol:
		return "STABLE"
	default:
		return "N/A"
	}
}

// Momentum represents the net tick-direction bias over a fixed window.
type Momentum int

const (
	NeutralMomentum Momentum = iota
	UpMomentum
	DownMomentum
)

// String stringifies the provided momentum.
func (m Momentum) String() string {
	switch m {
	case UpMomentum:
		return "UP"
	case DownMomentum:
		return "DOWN"
	default:
		return "NEUTRAL"
	}
}

// CategorizeMomentumScore classifies the provided momentum score.
func CategorizeMomentumScore(score float64) Momentum {
	switch {
	case score > MomentumThreshold:
		return UpMomentum
	case score < -MomentumThreshold:
		return DownMomentum
	default:
		return NeutralMomentum
	}
}

// VolatilitySnapshot is a point-in-time copy of the volatility engine state.
// A window size absent from Sigmas indicates insufficient buffered history,
// an expected warm-up condition rather than an error.
type VolatilitySnapshot struct {
	// Sigmas holds the rolling population standard deviation of log returns,
	// keyed by window size in ticks.
	Sigmas map[int]float64 `json:"sigmas"`
	// Ratio is the short-window sigma divided by the baseline-window sigma.
	Ratio    float64       `json:"ratio"`
	HasRatio bool          `json:"hasRatio"`
	Level    VolRatioLevel `json:"level"`
	// Trend compares the current short-window sigma to its value thirty
	// updates ago.
	Trend VolTrend `json:"trend"`
	// MomentumScore is the net up/down tick-return tally in [-1, 1].
	MomentumScore float64  `json:"momentumScore"`
	Momentum      Momentum `json:"momentum"`
	// Returns is the number of log returns derived from the buffered history.
	Returns int `json:"returns"`
}
