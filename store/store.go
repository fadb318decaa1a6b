// Package store reads tick data from one of two physical backends: a
// single time-ordered SQLite table, or a directory of disjoint,
// time-sorted chunk files described by a manifest. Both present the
// same TickStore interface; callers never see the partitioning.
package store

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tickplay/pricing"
)

// TickStore is the uniform read interface over a tick source.
type TickStore interface {
	// Range returns all ticks with Time in [start, end], ascending,
	// truncated to limit rows. limit <= 0 means no limit.
	Range(ctx context.Context, start, end time.Time, limit int) ([]pricing.Tick, error)

	// Bounds reports the store-wide extent, resolved once at open.
	Bounds(ctx context.Context) (Bounds, error)

	// Dates lists the distinct calendar dates present in the store,
	// ascending, as UTC midnights.
	Dates(ctx context.Context) ([]time.Time, error)

	Close() error
}

// Bounds is the full extent of a store.
type Bounds struct {
	Start   time.Time
	End     time.Time
	Records int64
}

// OHLCQuerier is an optional capability: stores that keep
// pre-aggregated bar tables can serve bars without touching ticks.
type OHLCQuerier interface {
	OHLC(ctx context.Context, start, end time.Time, interval string) ([]pricing.Candle, error)
}

var (
	// ErrNoSource means neither a usable table path nor a usable chunk
	// directory was supplied at construction.
	ErrNoSource = errors.New("store: no usable tick source")

	// ErrNoNativeOHLC means the store keeps no pre-aggregated bars for
	// the requested interval; callers aggregate from ticks instead.
	ErrNoNativeOHLC = errors.New("store: no pre-aggregated bars for interval")
)

// Option configures a store at open time.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func applyOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Open selects a backend. A SQLite path that exists wins; otherwise a
// chunk directory is used. With neither, Open fails fast — there is no
// partially constructed store.
func Open(dbPath, chunkDir string, opts ...Option) (TickStore, error) {
	if dbPath != "" {
		if fi, err := os.Stat(dbPath); err == nil && !fi.IsDir() {
			return OpenSQLite(dbPath, opts...)
		}
	}
	if chunkDir != "" {
		if fi, err := os.Stat(chunkDir); err == nil && fi.IsDir() {
			return OpenChunkDir(chunkDir, opts...)
		}
	}
	return nil, ErrNoSource
}
