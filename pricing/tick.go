package pricing

import "time"

// Tick is a single timestamped trade/quote observation. Ticks are
// immutable once read from a store and are globally ordered by Time,
// with ties broken by store insertion order.
type Tick struct {
	Time    time.Time
	Price   float64
	Bid     float64
	Ask     float64
	Spread  float64
	Volume  float64
	Session string
}

func (t Tick) Mid() float64 {
	if t.Bid == 0 && t.Ask == 0 {
		return t.Price
	}
	return (t.Bid + t.Ask) / 2
}
