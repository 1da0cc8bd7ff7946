package shared

// Timeframe represents the market data time period.
type Timeframe int

const (
	FiveSecond Timeframe = iota
	TenSecond
	FifteenSecond
	ThirtySecond
	OneMinute
	TwoMinute
	FiveMinute
)

// Timeframes returns the full set of tracked timeframes, shortest first.
func Timeframes() []Timeframe {
	return []Timeframe{FiveSecond, TenSecond, FifteenSecond, ThirtySecond,
		OneMinute, TwoMinute, FiveMinute}
}

// Seconds returns the duration of the provided timeframe in seconds.
func (t Timeframe) Seconds() int64 {
	switch t {
	case FiveSecond:
		return 5
	case TenSecond:
		return 10
	case FifteenSecond:
		return 15
	case ThirtySecond:
		return 30
	case OneMinute:
		return 60
	case TwoMinute:
		return 120
	case FiveMinute:
		return 300
	default:
		return 0
	}
}

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case FiveSecond:
		return "5s"
	case TenSecond:
		return "10s"
	case FifteenSecond:
		return "15s"
	case ThirtySecond:
		return "30s"
	case OneMinute:
		return "1m"
	case TwoMinute:
		return "2m"
	case FiveMinute:
		return "5m"
	default:
		return "unknown"
	}
}

// BucketStart returns the wall-clock aligned open time of the bucket containing
// the provided epoch. Buckets align to absolute multiples of the timeframe, not
// to the first tick seen, so stream gaps never shift bucket boundaries.
func (t Timeframe) BucketStart(epoch int64) int64 {
	secs := t.Seconds()
	if secs == 0 {
		return epoch
	}

	return epoch - epoch%secs
}
