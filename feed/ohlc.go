package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/tickplay/candle"
	"github.com/rustyeddy/tickplay/pricing"
	"github.com/rustyeddy/tickplay/store"
)

// OHLC returns bars for [start, end] at the given interval. Stores
// keeping pre-aggregated bar tables serve them directly; otherwise the
// ticks for the range are folded through a Builder with eviction off.
func (c *Cache) OHLC(ctx context.Context, start, end time.Time, interval string) ([]pricing.Candle, error) {
	if q, ok := c.store.(store.OHLCQuerier); ok {
		bars, err := q.OHLC(ctx, start, end, interval)
		if err == nil {
			return bars, nil
		}
		if !errors.Is(err, store.ErrNoNativeOHLC) {
			return nil, err
		}
	}

	ticks, err := c.store.Range(ctx, start, end, 0)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, nil
	}

	b, err := candle.NewBuilder(interval, candle.WithRetention(0))
	if err != nil {
		return nil, err
	}
	for _, t := range ticks {
		b.Ingest(t)
	}
	return b.Snapshot(true), nil
}
