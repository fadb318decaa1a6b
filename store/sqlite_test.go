package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tickplay/pricing"
)

// secondTicks builds n one-second ticks from start with a small price
// walk, tagged by session.
func secondTicks(start time.Time, n int) []pricing.Tick {
	out := make([]pricing.Tick, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * time.Second)
		price := 100 + float64(i%13)*0.25
		out = append(out, pricing.Tick{
			Time:    ts,
			Price:   price,
			Bid:     price - 0.125,
			Ask:     price + 0.125,
			Spread:  0.25,
			Volume:  float64(1 + i%5),
			Session: pricing.SessionAt(ts),
		})
	}
	return out
}

func newSQLiteFixture(t *testing.T, ticks []pricing.Tick) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ticks.db")
	require.NoError(t, WriteSQLite(path, ticks))

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteBoundsFromMetadata(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 120)
	s := newSQLiteFixture(t, ticks)

	b, err := s.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start, b.Start)
	assert.Equal(t, start.Add(119*time.Second), b.End)
	assert.Equal(t, int64(120), b.Records)
}

// Without a metadata table the store aggregates tick_data directly.
func TestSQLiteBoundsAggregateFallback(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bare.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE tick_data (
		timestamp TEXT, price REAL, bid REAL, ask REAL,
		spread REAL, volume REAL, session TEXT)`)
	require.NoError(t, err)

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	for _, tk := range secondTicks(start, 10) {
		_, err = db.Exec(`INSERT INTO tick_data VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tk.Time.Format(TimeLayout), tk.Price, tk.Bid, tk.Ask, tk.Spread, tk.Volume, tk.Session)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	b, err := s.Bounds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start, b.Start)
	assert.Equal(t, int64(10), b.Records)
}

// A database whose extent cannot be determined fails at open.
func TestSQLiteEmptyStoreFailsFast(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE tick_data (
		timestamp TEXT, price REAL, bid REAL, ask REAL,
		spread REAL, volume REAL, session TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSQLite(path)
	assert.Error(t, err)
}

func TestSQLiteRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 300)
	s := newSQLiteFixture(t, ticks)
	ctx := context.Background()

	got, err := s.Range(ctx, start.Add(time.Minute), start.Add(2*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, got, 61) // inclusive bounds
	assert.Equal(t, ticks[60], got[0])
	assert.Equal(t, ticks[120], got[60])

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Time.Before(got[i-1].Time))
	}
}

func TestSQLiteRangeLimit(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	s := newSQLiteFixture(t, secondTicks(start, 300))

	got, err := s.Range(context.Background(), start, start.Add(5*time.Minute), 50)
	require.NoError(t, err)
	assert.Len(t, got, 50)
	assert.Equal(t, start, got[0].Time)
}

func TestSQLiteRangeOutsideData(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	s := newSQLiteFixture(t, secondTicks(start, 60))

	got, err := s.Range(context.Background(), start.Add(-2*time.Hour), start.Add(-time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, got) // a hole is not an error
}

func TestSQLiteDates(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)
	ticks := append(secondTicks(day1, 30), secondTicks(day2, 30)...)
	s := newSQLiteFixture(t, ticks)

	dates, err := s.Dates(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), dates[1])
}

func TestSQLiteNativeOHLC(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 180)
	s := newSQLiteFixture(t, ticks)
	ctx := context.Background()

	bars, err := s.OHLC(ctx, start, start.Add(3*time.Minute), "1m")
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, start, bars[0].Start)
	assert.Equal(t, 60, bars[0].TickCount)
	assert.Equal(t, ticks[0].Price, bars[0].Open)
	assert.Equal(t, ticks[59].Price, bars[0].Close)

	// Unknown interval has no pre-aggregated table.
	_, err = s.OHLC(ctx, start, start.Add(time.Minute), "2m")
	assert.ErrorIs(t, err, ErrNoNativeOHLC)
}

func TestOpenSelectsBackend(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ticks := secondTicks(start, 30)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ticks.db")
	require.NoError(t, WriteSQLite(dbPath, ticks))

	s, err := Open(dbPath, "")
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*SQLiteStore)
	assert.True(t, ok)

	_, err = Open("", "")
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = Open(filepath.Join(dir, "missing.db"), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNoSource)
}
