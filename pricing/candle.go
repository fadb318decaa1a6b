package pricing

import "time"

// Candle is one OHLCV bar, keyed by the start of its time bucket.
// Invariant: Low <= Open,Close <= High.
type Candle struct {
	Start     time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TickCount int
}
