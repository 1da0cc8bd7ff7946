package shared

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Candlestick represents a unit candlestick for a market, summarizing all ticks
// within a fixed wall-clock aligned time window.
type Candlestick struct {
	Timeframe Timeframe `json:"timeframe"`
	// OpenTime is the bucket-aligned open epoch of the window.
	OpenTime int64 `json:"openTime"`
	// CloseTime is OpenTime plus the timeframe duration. The window is
	// closed-open: a tick landing exactly on CloseTime belongs to the next bucket.
	CloseTime int64   `json:"closeTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	// HasData reports whether any tick landed in the window. A candlestick
	// without data must never be emitted.
	HasData bool `json:"hasData"`
}

// NewCandlestick returns a fresh empty candlestick aligned to the bucket
// containing the provided epoch.
func NewCandlestick(timeframe Timeframe, epoch int64) Candlestick {
	openTime := timeframe.BucketStart(epoch)
	return Candlestick{
		Timeframe: timeframe,
		OpenTime:  openTime,
		CloseTime: openTime + timeframe.Seconds(),
	}
}

// Apply folds the provided price into the candlestick. The candlestick's window
// bounds are never altered by an update.
func (c *Candlestick) Apply(price float64) {
	if !c.HasData {
		c.Open = price
		c.High = price
		c.Low = price
		c.Close = price
		c.HasData = true
		return
	}

	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}
