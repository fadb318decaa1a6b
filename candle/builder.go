// Package candle folds a tick stream into fixed-interval OHLCV bars.
// The Builder is a pure state machine: exactly one mutable open candle
// plus a bounded FIFO history of sealed, immutable ones. No I/O.
package candle

import (
	"time"

	"github.com/rustyeddy/tickplay/pricing"
)

// DefaultRetention is how many sealed candles are kept before the
// oldest are evicted.
const DefaultRetention = 500

type Builder struct {
	interval  time.Duration
	retention int

	open    *pricing.Candle
	sealed  []pricing.Candle
	dropped int
}

type Option func(*Builder)

// WithRetention caps the sealed history. n <= 0 disables eviction,
// which batch aggregation over a fixed range wants.
func WithRetention(n int) Option {
	return func(b *Builder) { b.retention = n }
}

// NewBuilder parses an interval token like "1s", "1m" or "5m".
func NewBuilder(interval string, opts ...Option) (*Builder, error) {
	iv, err := pricing.ParseInterval(interval)
	if err != nil {
		return nil, err
	}

	b := &Builder{interval: iv, retention: DefaultRetention}
	for _, fn := range opts {
		fn(b)
	}
	return b, nil
}

// Ingest folds one tick into the current candle. It returns the candle
// sealed by a bucket rollover, if any, and a copy of the open candle.
//
// A tick bucketed strictly before the open candle is dropped and
// counted, never merged: sealed candles stay immutable and the open
// candle's bucket stays correct. A backward seek should Reset instead.
func (b *Builder) Ingest(t pricing.Tick) (sealed *pricing.Candle, open pricing.Candle) {
	bucket := pricing.Bucket(t.Time, b.interval)

	switch {
	case b.open == nil:
		b.openAt(bucket, t)

	case bucket.After(b.open.Start):
		s := *b.open
		b.sealed = append(b.sealed, s)
		if b.retention > 0 && len(b.sealed) > b.retention {
			b.sealed = append(b.sealed[:0], b.sealed[1:]...)
		}
		sealed = &s
		b.openAt(bucket, t)

	case bucket.Before(b.open.Start):
		b.dropped++

	default:
		b.open.High = max(b.open.High, t.Price)
		b.open.Low = min(b.open.Low, t.Price)
		b.open.Close = t.Price
		b.open.Volume += t.Volume
		b.open.TickCount++
	}

	return sealed, *b.open
}

func (b *Builder) openAt(bucket time.Time, t pricing.Tick) {
	b.open = &pricing.Candle{
		Start:     bucket,
		Open:      t.Price,
		High:      t.Price,
		Low:       t.Price,
		Close:     t.Price,
		Volume:    t.Volume,
		TickCount: 1,
	}
}

// Snapshot copies the sealed history, oldest first, plus the open
// candle when asked. The result is detached from Builder state.
func (b *Builder) Snapshot(includeOpen bool) []pricing.Candle {
	out := make([]pricing.Candle, 0, len(b.sealed)+1)
	out = append(out, b.sealed...)
	if includeOpen && b.open != nil {
		out = append(out, *b.open)
	}
	return out
}

// Open returns a copy of the current open candle, if any.
func (b *Builder) Open() (pricing.Candle, bool) {
	if b.open == nil {
		return pricing.Candle{}, false
	}
	return *b.open, true
}

// Dropped counts backward ticks rejected since the last Reset.
func (b *Builder) Dropped() int {
	return b.dropped
}

func (b *Builder) Interval() time.Duration {
	return b.interval
}

// Reset clears all state; used when the playback range or the interval
// changes.
func (b *Builder) Reset() {
	b.open = nil
	b.sealed = nil
	b.dropped = 0
}
