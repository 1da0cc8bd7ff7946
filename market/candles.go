package market

import (
	"fmt"

	"github.com/dnldd/pulse/shared"
)

// Aggregator maintains one active candlestick per timeframe from a single
// tick stream. All timeframes are updated independently from the same ticks.
type Aggregator struct {
	timeframes []shared.Timeframe
	active     map[shared.Timeframe]*shared.Candlestick
}

// NewAggregator initializes a new candlestick aggregator.
func NewAggregator(timeframes []shared.Timeframe) (*Aggregator, error) {
	if len(timeframes) == 0 {
		return nil, fmt.Errorf("no timeframes provided for aggregator")
	}

	for idx := range timeframes {
		if timeframes[idx].Seconds() <= 0 {
			return nil, fmt.Errorf("invalid timeframe provided for aggregator: %s",
				timeframes[idx].String())
		}
	}

	return &Aggregator{
		timeframes: timeframes,
		active:     make(map[shared.Timeframe]*shared.Candlestick, len(timeframes)),
	}, nil
}

// ProcessTick folds the provided tick into every timeframe's active
// candlestick, returning any candlesticks it finalized keyed by timeframe.
//
// A tick at or past a candlestick's close time finalizes it and starts a fresh
// bucket aligned to the incoming tick. Only one close-and-reset cycle occurs
// per tick per timeframe: buckets fully skipped by a stream gap are never
// emitted, producing silently missing candles rather than synthetic empty ones.
func (a *Aggregator) ProcessTick(epoch int64, price float64) map[shared.Timeframe]shared.Candlestick {
	closed := make(map[shared.Timeframe]shared.Candlestick)

	for _, timeframe := range a.timeframes {
		candle, ok := a.active[timeframe]
		switch {
		case !ok:
			fresh := shared.NewCandlestick(timeframe, epoch)
			candle = &fresh
			a.active[timeframe] = candle
		case epoch >= candle.CloseTime:
			if candle.HasData {
				closed[timeframe] = *candle
			}

			fresh := shared.NewCandlestick(timeframe, epoch)
			candle = &fresh
			a.active[timeframe] = candle
		}

		candle.Apply(price)
	}

	return closed
}

// ActiveCandle returns a copy of the provided timeframe's active candlestick.
func (a *Aggregator) ActiveCandle(timeframe shared.Timeframe) (shared.Candlestick, bool) {
	candle, ok := a.active[timeframe]
	if !ok {
		return shared.Candlestick{}, false
	}

	return *candle, true
}

// Countdowns returns the per-timeframe time remaining in the bucket containing
// the provided epoch.
func (a *Aggregator) Countdowns(epoch int64) map[string]shared.Countdown {
	countdowns := make(map[string]shared.Countdown, len(a.timeframes))

	for _, timeframe := range a.timeframes {
		total := timeframe.Seconds()
		closeTime := timeframe.BucketStart(epoch) + total

		remaining := closeTime - epoch
		if remaining < 0 {
			remaining = 0
		}

		pct := float64(closeTime-epoch) / float64(total)
		if pct < 0 {
			pct = 0
		}

		countdowns[timeframe.String()] = shared.Countdown{
			Remaining: remaining,
			Total:     total,
			Pct:       pct,
		}
	}

	return countdowns
}

// Reset discards all active candlesticks. It is invoked on upstream stream
// discontinuities alongside the tick buffer clear.
func (a *Aggregator) Reset() {
	clear(a.active)
}

// BuildHistorical replays the provided complete tick history into per-bucket
// candlesticks for every timeframe. The trailing bucket is included while
// still open so a prefill seeds the full visible history. Per-bucket OHLC
// values match what incremental processing would have produced.
func (a *Aggregator) BuildHistorical(ticks []shared.Tick) map[shared.Timeframe][]shared.Candlestick {
	candles := make(map[shared.Timeframe][]shared.Candlestick, len(a.timeframes))

	for _, timeframe := range a.timeframes {
		var set []shared.Candlestick
		var builder shared.Candlestick

		for idx := range ticks {
			bucketStart := timeframe.BucketStart(ticks[idx].Epoch)

			if builder.HasData && bucketStart != builder.OpenTime {
				set = append(set, builder)
				builder = shared.Candlestick{}
			}

			if !builder.HasData {
				builder = shared.NewCandlestick(timeframe, ticks[idx].Epoch)
			}

			builder.Apply(ticks[idx].Price)
		}

		if builder.HasData {
			set = append(set, builder)
		}

		candles[timeframe] = set
	}

	return candles
}
