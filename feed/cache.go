// Package feed serves ticks for playback: a windowed in-memory cache
// over a TickStore, and a forward-only streamer that refills it as the
// cursor advances. Neither is safe for concurrent use; the engine is
// single-consumer by design.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tickplay/pricing"
	"github.com/rustyeddy/tickplay/store"
)

// Cache refill defaults: a short look-back and a longer look-ahead
// suit forward-biased playback access.
const (
	DefaultLookback  = 30 * time.Minute
	DefaultLookahead = 2 * time.Hour
	DefaultCacheSize = 300_000
)

// Cache holds one contiguous window of ticks. It is Empty or Loaded;
// a miss replaces the window wholesale, never patches it.
type Cache struct {
	store store.TickStore

	lookback  time.Duration
	lookahead time.Duration
	limit     int

	ticks []pricing.Tick
	start time.Time
	end   time.Time

	loads int
	log   zerolog.Logger
}

type CacheOption func(*Cache)

func WithLookback(d time.Duration) CacheOption {
	return func(c *Cache) { c.lookback = d }
}

func WithLookahead(d time.Duration) CacheOption {
	return func(c *Cache) { c.lookahead = d }
}

// WithCacheSize caps the rows fetched per refill.
func WithCacheSize(n int) CacheOption {
	return func(c *Cache) { c.limit = n }
}

func WithLogger(l zerolog.Logger) CacheOption {
	return func(c *Cache) { c.log = l }
}

func NewCache(ts store.TickStore, opts ...CacheOption) *Cache {
	c := &Cache{
		store:     ts,
		lookback:  DefaultLookback,
		lookahead: DefaultLookahead,
		limit:     DefaultCacheSize,
		log:       zerolog.Nop(),
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Ensure makes the window cover t. Covered timestamps cost zero store
// reads; a miss refills centered on t with the configured look-back
// and look-ahead. An empty result is a hole, not an error — the cache
// simply stays Empty.
func (c *Cache) Ensure(ctx context.Context, t time.Time) error {
	if c.covers(t) {
		return nil
	}
	return c.Load(ctx, t.Add(-c.lookback), t.Add(c.lookahead))
}

func (c *Cache) covers(t time.Time) bool {
	return len(c.ticks) > 0 && !t.Before(c.start) && !t.After(c.end)
}

// Load replaces the window with the store's ticks for [start, end].
// On a failed read the previous window is left intact.
func (c *Cache) Load(ctx context.Context, start, end time.Time) error {
	ticks, err := c.store.Range(ctx, start, end, c.limit)
	if err != nil {
		return fmt.Errorf("cache refill: %w", err)
	}

	c.loads++
	if len(ticks) == 0 {
		c.ticks, c.start, c.end = nil, time.Time{}, time.Time{}
		c.log.Debug().Time("start", start).Time("end", end).Msg("cache refill hit a hole")
		return nil
	}

	c.ticks = ticks
	c.start = ticks[0].Time
	c.end = ticks[len(ticks)-1].Time
	c.log.Debug().
		Int("ticks", len(ticks)).
		Time("start", c.start).
		Time("end", c.end).
		Msg("cache window replaced")
	return nil
}

// TickAt returns the latest tick at or before t, or false when the
// window is empty or everything in it is later than t.
func (c *Cache) TickAt(ctx context.Context, t time.Time) (pricing.Tick, bool, error) {
	if err := c.Ensure(ctx, t); err != nil {
		return pricing.Tick{}, false, err
	}

	i := sort.Search(len(c.ticks), func(i int) bool { return c.ticks[i].Time.After(t) })
	if i == 0 {
		return pricing.Tick{}, false, nil
	}
	return c.ticks[i-1], true, nil
}

// Range always resolves against the authoritative store for the exact
// requested bounds; it is never served from the point window, which is
// sized for point lookups, not arbitrary spans.
func (c *Cache) Range(ctx context.Context, start, end time.Time, limit int) ([]pricing.Tick, error) {
	return c.store.Range(ctx, start, end, limit)
}

// Bounds reports the underlying store extent.
func (c *Cache) Bounds(ctx context.Context) (store.Bounds, error) {
	return c.store.Bounds(ctx)
}

// Window reports the current span, zero times when Empty.
func (c *Cache) Window() (start, end time.Time, n int) {
	return c.start, c.end, len(c.ticks)
}

// Ticks exposes the loaded window to the streamer. Callers must treat
// the slice as read-only.
func (c *Cache) Ticks() []pricing.Tick {
	return c.ticks
}

// Loads counts store reads issued since construction.
func (c *Cache) Loads() int {
	return c.loads
}
