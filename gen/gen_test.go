package gen

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tickplay/pricing"
)

func TestTicksDeterministic(t *testing.T) {
	t.Parallel()

	cfg := Default()
	a := Ticks(cfg)
	b := Ticks(cfg)
	require.Equal(t, len(a), len(b))
	assert.Equal(t, a[0], b[0])
	assert.Equal(t, a[len(a)-1], b[len(b)-1])

	cfg.Seed = 99
	c := Ticks(cfg)
	assert.NotEqual(t, a[100].Price, c[100].Price)
}

func TestTicksCoverAllSessions(t *testing.T) {
	t.Parallel()

	ticks := Ticks(Default())

	// One tick per second, 04:00-20:00.
	assert.Len(t, ticks, 16*3600)

	seen := map[string]int{}
	for _, tk := range ticks {
		seen[tk.Session]++
		assert.Equal(t, tk.Session, pricing.SessionAt(tk.Time))
	}
	assert.Equal(t, int(5.5*3600), seen[pricing.SessionPremarket])
	assert.Equal(t, int(6.5*3600), seen[pricing.SessionRTH])
	assert.Equal(t, 4*3600, seen[pricing.SessionAfterhours])
}

func TestTicksSortedAndSane(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Days = 2
	ticks := Ticks(cfg)

	for i, tk := range ticks {
		if i > 0 {
			assert.True(t, tk.Time.After(ticks[i-1].Time))
		}
		assert.Greater(t, tk.Price, 0.0)
		assert.Greater(t, tk.Ask, tk.Bid)
		assert.InDelta(t, tk.Ask-tk.Bid, tk.Spread, 1e-9)
		assert.GreaterOrEqual(t, tk.Volume, 1.0)
	}
}

func TestTicksSkipWeekends(t *testing.T) {
	t.Parallel()

	cfg := Default()
	// 2024-01-05 is a Friday; two trading days must land on Fri + Mon.
	cfg.Start = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	cfg.Days = 2
	ticks := Ticks(cfg)

	days := map[time.Weekday]bool{}
	for _, tk := range ticks {
		days[tk.Time.Weekday()] = true
	}
	assert.Equal(t, map[time.Weekday]bool{time.Friday: true, time.Monday: true}, days)
}

func TestTicksAlignToTickSize(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.TickSize = 0.25
	for _, tk := range Ticks(cfg)[:1000] {
		steps := tk.Price / cfg.TickSize
		assert.InDelta(t, steps, math.Round(steps), 1e-6, "price %v off-grid", tk.Price)
	}
}
