package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tickplay/pricing"
)

// TimeLayout is how timestamps are stored in the tick_data table.
// Lexicographic order matches chronological order, so ranged scans
// work directly on the text column.
const TimeLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-date form used by Dates and the ohlc
// bucket keys.
const DateLayout = "2006-01-02"

// SQLiteStore reads ticks from a single ordered tick_data table.
type SQLiteStore struct {
	db     *sql.DB
	bounds Bounds
	log    zerolog.Logger
}

// OpenSQLite opens the database and resolves the store bounds once. A
// database whose extent cannot be determined fails here, not later.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := applyOptions(opts)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	s := &SQLiteStore{db: db, log: o.log}
	if err := s.resolveBounds(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Debug().
		Time("start", s.bounds.Start).
		Time("end", s.bounds.End).
		Int64("records", s.bounds.Records).
		Msg("sqlite store opened")
	return s, nil
}

// resolveBounds is a two-step probe: structured metadata first, then a
// direct MIN/MAX/COUNT aggregate over tick_data when any key is
// missing or unparsable.
func (s *SQLiteStore) resolveBounds() error {
	if b, ok := s.metadataBounds(); ok {
		s.bounds = b
		return nil
	}
	return s.aggregateBounds()
}

func (s *SQLiteStore) metadataBounds() (Bounds, bool) {
	startStr, err1 := s.metaValue("start_timestamp")
	endStr, err2 := s.metaValue("end_timestamp")
	countStr, err3 := s.metaValue("total_records")
	if err1 != nil || err2 != nil || err3 != nil {
		return Bounds{}, false
	}

	start, err1 := time.ParseInLocation(TimeLayout, startStr, time.UTC)
	end, err2 := time.ParseInLocation(TimeLayout, endStr, time.UTC)
	count, err3 := strconv.ParseInt(countStr, 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return Bounds{}, false
	}
	return Bounds{Start: start, End: end, Records: count}, true
}

func (s *SQLiteStore) metaValue(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	return v, err
}

func (s *SQLiteStore) aggregateBounds() error {
	var minTS, maxTS sql.NullString
	var n int64
	err := s.db.QueryRow(`SELECT MIN(timestamp), MAX(timestamp), COUNT(*) FROM tick_data`).
		Scan(&minTS, &maxTS, &n)
	if err != nil {
		return fmt.Errorf("resolve store bounds: %w", err)
	}
	if n == 0 || !minTS.Valid || !maxTS.Valid {
		return fmt.Errorf("resolve store bounds: tick_data is empty")
	}

	start, err := time.ParseInLocation(TimeLayout, minTS.String, time.UTC)
	if err != nil {
		return fmt.Errorf("resolve store bounds: bad min timestamp %q: %w", minTS.String, err)
	}
	end, err := time.ParseInLocation(TimeLayout, maxTS.String, time.UTC)
	if err != nil {
		return fmt.Errorf("resolve store bounds: bad max timestamp %q: %w", maxTS.String, err)
	}

	s.bounds = Bounds{Start: start, End: end, Records: n}
	return nil
}

// Range pushes the bounds and the row cap into SQL; the full table is
// never materialized. Ties on timestamp keep insertion order via rowid.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time, limit int) ([]pricing.Tick, error) {
	q := `SELECT timestamp, price, bid, ask, spread, volume, session
		FROM tick_data
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, rowid`
	args := []any{start.UTC().Format(TimeLayout), end.UTC().Format(TimeLayout)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	defer rows.Close()

	var out []pricing.Tick
	for rows.Next() {
		var ts string
		var t pricing.Tick
		if err := rows.Scan(&ts, &t.Price, &t.Bid, &t.Ask, &t.Spread, &t.Volume, &t.Session); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		t.Time, err = time.ParseInLocation(TimeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad tick timestamp %q: %w", ts, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("range query: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Bounds(ctx context.Context) (Bounds, error) {
	return s.bounds, nil
}

func (s *SQLiteStore) Dates(ctx context.Context) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT DATE(timestamp) FROM tick_data ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		day, err := time.ParseInLocation(DateLayout, d, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", d, err)
		}
		dates = append(dates, day)
	}
	return dates, rows.Err()
}

// ohlcTables maps interval tokens to pre-aggregated bar tables, when
// the generator produced them.
var ohlcTables = map[string]string{
	"1s": "ohlc_1s",
	"1m": "ohlc_1m",
	"5m": "ohlc_5m",
}

// OHLC serves pre-aggregated bars. ErrNoNativeOHLC means the interval
// has no table (or the table was never created); the caller falls back
// to aggregating ticks.
func (s *SQLiteStore) OHLC(ctx context.Context, start, end time.Time, interval string) ([]pricing.Candle, error) {
	table, ok := ohlcTables[interval]
	if !ok {
		return nil, ErrNoNativeOHLC
	}

	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoNativeOHLC
	}
	if err != nil {
		return nil, fmt.Errorf("probe ohlc table: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT timestamp, open, high, low, close, volume, tick_count
		FROM %s
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp`, table),
		start.UTC().Format(TimeLayout), end.UTC().Format(TimeLayout))
	if err != nil {
		return nil, fmt.Errorf("ohlc query: %w", err)
	}
	defer rows.Close()

	var out []pricing.Candle
	for rows.Next() {
		var ts string
		var c pricing.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TickCount); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		c.Start, err = time.ParseInLocation(TimeLayout, ts, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("bad bar timestamp %q: %w", ts, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
