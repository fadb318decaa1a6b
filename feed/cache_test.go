package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tickplay/pricing"
	"github.com/rustyeddy/tickplay/store"
)

// memStore is an in-memory TickStore for exercising the cache without
// touching disk.
type memStore struct {
	ticks []pricing.Tick
	calls int
	fail  error
}

func newMemStore(ticks []pricing.Tick) *memStore {
	return &memStore{ticks: ticks}
}

func (m *memStore) Range(ctx context.Context, start, end time.Time, limit int) ([]pricing.Tick, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.calls++

	var out []pricing.Tick
	for _, t := range m.ticks {
		if !t.Time.Before(start) && !t.Time.After(end) {
			out = append(out, t)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) Bounds(ctx context.Context) (store.Bounds, error) {
	if len(m.ticks) == 0 {
		return store.Bounds{}, errors.New("empty store")
	}
	return store.Bounds{
		Start:   m.ticks[0].Time,
		End:     m.ticks[len(m.ticks)-1].Time,
		Records: int64(len(m.ticks)),
	}, nil
}

func (m *memStore) Dates(ctx context.Context) ([]time.Time, error) { return nil, nil }
func (m *memStore) Close() error                                   { return nil }

func secondTicks(start time.Time, n int) []pricing.Tick {
	out := make([]pricing.Tick, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pricing.Tick{
			Time:   start.Add(time.Duration(i) * time.Second),
			Price:  100 + float64(i%7)*0.25,
			Volume: 1,
		})
	}
	return out
}

func TestCacheEnsureIdempotent(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ms := newMemStore(secondTicks(start, 3600))
	c := NewCache(ms)
	ctx := context.Background()

	at := start.Add(10 * time.Minute)
	require.NoError(t, c.Ensure(ctx, at))
	assert.Equal(t, 1, ms.calls)

	// Covered timestamps cost zero additional store reads.
	require.NoError(t, c.Ensure(ctx, at))
	require.NoError(t, c.Ensure(ctx, at.Add(time.Minute)))
	assert.Equal(t, 1, ms.calls)
}

func TestCacheRefillsOnMiss(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC)
	ms := newMemStore(secondTicks(start, 12*3600)) // 04:00-16:00
	c := NewCache(ms, WithLookback(30*time.Minute), WithLookahead(2*time.Hour))
	ctx := context.Background()

	require.NoError(t, c.Ensure(ctx, start.Add(time.Hour)))
	assert.Equal(t, 1, ms.calls)

	// A timestamp beyond the look-ahead forces one refill.
	require.NoError(t, c.Ensure(ctx, start.Add(8*time.Hour)))
	assert.Equal(t, 2, ms.calls)

	ws, we, n := c.Window()
	assert.Equal(t, start.Add(8*time.Hour).Add(-30*time.Minute), ws)
	assert.Equal(t, start.Add(8*time.Hour).Add(2*time.Hour), we)
	assert.Equal(t, 2*3600+30*60+1, n)
}

func TestCacheTickAt(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 600)
	c := NewCache(newMemStore(ticks))
	ctx := context.Background()

	// Exact hit.
	got, ok, err := c.TickAt(ctx, start.Add(90*time.Second))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ticks[90], got)

	// Between ticks: the latest at-or-before wins.
	got, ok, err = c.TickAt(ctx, start.Add(90*time.Second+500*time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ticks[90], got)
}

// A lookup earlier than the store's first tick returns none.
func TestCacheTickAtBeforeStore(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewCache(newMemStore(secondTicks(start, 600)))

	_, ok, err := c.TickAt(context.Background(), start.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheHoleStaysEmpty(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewCache(newMemStore(secondTicks(start, 60)))
	ctx := context.Background()

	// Hours past the data: refill succeeds but finds nothing.
	require.NoError(t, c.Ensure(ctx, start.Add(48*time.Hour)))
	_, _, n := c.Window()
	assert.Zero(t, n)

	_, ok, err := c.TickAt(ctx, start.Add(48*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

// A failed refill propagates and leaves the previous window intact.
func TestCacheFailedRefillKeepsWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ms := newMemStore(secondTicks(start, 3600))
	c := NewCache(ms)
	ctx := context.Background()

	require.NoError(t, c.Ensure(ctx, start.Add(time.Minute)))
	ws, we, n := c.Window()

	ms.fail = errors.New("disk gone")
	err := c.Ensure(ctx, start.Add(20*time.Hour))
	require.Error(t, err)

	ws2, we2, n2 := c.Window()
	assert.Equal(t, ws, ws2)
	assert.Equal(t, we, we2)
	assert.Equal(t, n, n2)

	// The old window still serves covered lookups.
	_, ok, err := c.TickAt(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheRangeBypassesWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ms := newMemStore(secondTicks(start, 7200))
	c := NewCache(ms)
	ctx := context.Background()

	require.NoError(t, c.Ensure(ctx, start))
	calls := ms.calls

	// Ranges always hit the authoritative store, even when the point
	// window happens to cover them.
	got, err := c.Range(ctx, start, start.Add(time.Minute), 0)
	require.NoError(t, err)
	assert.Len(t, got, 61)
	assert.Equal(t, calls+1, ms.calls)
}

func TestCacheRespectsRowCap(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewCache(newMemStore(secondTicks(start, 7200)), WithCacheSize(1000))

	require.NoError(t, c.Ensure(context.Background(), start.Add(time.Minute)))
	_, _, n := c.Window()
	assert.Equal(t, 1000, n)
}

// With no native OHLC capability on the store, bars come from folding
// the range's ticks through the builder.
func TestCacheOHLCAggregatesFromTicks(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 181)
	c := NewCache(newMemStore(ticks))

	bars, err := c.OHLC(context.Background(), start, start.Add(3*time.Minute), "1m")
	require.NoError(t, err)
	require.Len(t, bars, 4) // three full minutes plus the tick at 09:33:00
	assert.Equal(t, start, bars[0].Start)
	assert.Equal(t, 60, bars[0].TickCount)
	assert.Equal(t, ticks[0].Price, bars[0].Open)
	assert.Equal(t, ticks[59].Price, bars[0].Close)
}

func TestCacheOHLCEmptyRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	c := NewCache(newMemStore(secondTicks(start, 60)))

	bars, err := c.OHLC(context.Background(), start.Add(-2*time.Hour), start.Add(-time.Hour), "1m")
	require.NoError(t, err)
	assert.Empty(t, bars)
}
