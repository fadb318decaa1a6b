// Package gen produces synthetic session-aware tick data for demos
// and fixtures: a 1-second random walk through premarket, regular and
// afterhours sessions, weekends skipped, deterministic under a seed.
package gen

import (
	"math"
	"math/rand"
	"time"

	"github.com/rustyeddy/tickplay/pricing"
)

type Config struct {
	Start     time.Time // first day, UTC; weekends are skipped
	Days      int
	BasePrice float64
	TickSize  float64
	AnnualVol float64 // e.g. 0.25 for 25%
	Seed      int64
}

func Default() Config {
	return Config{
		Start:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:      1,
		BasePrice: 21000,
		TickSize:  0.25,
		AnnualVol: 0.25,
		Seed:      1,
	}
}

// session multipliers scale volatility, spread and volume the way the
// sampled instrument behaves across the trading day.
type sessionProfile struct {
	name       string
	start, end int // seconds of day
	vol        float64
	spread     float64
	volume     float64
}

var sessions = []sessionProfile{
	{pricing.SessionPremarket, 4 * 3600, 9*3600 + 30*60, 0.6, 1.5, 0.3},
	{pricing.SessionRTH, 9*3600 + 30*60, 16 * 3600, 1.0, 1.0, 1.0},
	{pricing.SessionAfterhours, 16 * 3600, 20 * 3600, 0.5, 2.0, 0.2},
}

// Ticks generates one tick per second across every session of every
// trading day, sorted ascending. Same config, same output.
func Ticks(cfg Config) []pricing.Tick {
	if cfg.Days <= 0 {
		cfg.Days = 1
	}
	if cfg.TickSize <= 0 {
		cfg.TickSize = 0.25
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	price := cfg.BasePrice

	// Per-second sigma from annualized vol over RTH seconds.
	secPerYear := 252.0 * 6.5 * 3600
	baseSigma := cfg.AnnualVol / math.Sqrt(secPerYear)

	var out []pricing.Tick
	day := midnightUTC(cfg.Start)
	for produced := 0; produced < cfg.Days; day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		produced++

		for _, s := range sessions {
			for sec := s.start; sec < s.end; sec++ {
				step := rng.NormFloat64() * baseSigma * s.vol * price
				price = roundToTick(price+step, cfg.TickSize)

				spreadTicks := 1 + math.Abs(rng.NormFloat64())*(s.spread-0.5)
				spread := roundToTick(spreadTicks*cfg.TickSize, cfg.TickSize)
				if spread < cfg.TickSize {
					spread = cfg.TickSize
				}

				volume := 1 + float64(rng.Intn(20))*s.volume
				out = append(out, pricing.Tick{
					Time:    day.Add(time.Duration(sec) * time.Second),
					Price:   price,
					Bid:     price - spread/2,
					Ask:     price + spread/2,
					Spread:  spread,
					Volume:  math.Floor(volume),
					Session: s.name,
				})
			}
		}
	}
	return out
}

func roundToTick(p, tick float64) float64 {
	return math.Round(p/tick) * tick
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
