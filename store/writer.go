package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/tickplay/candle"
	"github.com/rustyeddy/tickplay/pkg/id"
	"github.com/rustyeddy/tickplay/pricing"
)

const tickSchema = `
CREATE TABLE IF NOT EXISTS tick_data (
	timestamp TEXT NOT NULL,
	price REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	spread REAL NOT NULL,
	volume REAL NOT NULL,
	session TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tick_timestamp ON tick_data(timestamp);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const ohlcSchema = `
CREATE TABLE IF NOT EXISTS %s (
	timestamp TEXT PRIMARY KEY,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	tick_count INTEGER NOT NULL
);
`

// WriteSQLite creates a tick database: the ordered tick_data table,
// the metadata extent keys, and pre-aggregated ohlc_1s/1m/5m tables.
// Ticks must already be sorted by time.
func WriteSQLite(path string, ticks []pricing.Tick) error {
	if len(ticks) == 0 {
		return fmt.Errorf("write sqlite %s: no ticks", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(tickSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO tick_data
		(timestamp, price, bid, ask, spread, volume, session)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, t := range ticks {
		_, err := stmt.Exec(t.Time.UTC().Format(TimeLayout),
			t.Price, t.Bid, t.Ask, t.Spread, t.Volume, t.Session)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert tick: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	meta := map[string]string{
		"start_timestamp": ticks[0].Time.UTC().Format(TimeLayout),
		"end_timestamp":   ticks[len(ticks)-1].Time.UTC().Format(TimeLayout),
		"total_records":   fmt.Sprintf("%d", len(ticks)),
		"created_at":      time.Now().UTC().Format(TimeLayout),
	}
	for k, v := range meta {
		if _, err := db.Exec(`INSERT OR REPLACE INTO metadata VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}

	for interval, table := range ohlcTables {
		if err := writeOHLCTable(db, table, interval, ticks); err != nil {
			return err
		}
	}
	return nil
}

func writeOHLCTable(db *sql.DB, table, interval string, ticks []pricing.Tick) error {
	if _, err := db.Exec(fmt.Sprintf(ohlcSchema, table)); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	b, err := candle.NewBuilder(interval, candle.WithRetention(0))
	if err != nil {
		return err
	}
	for _, t := range ticks {
		b.Ingest(t)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s
		(timestamp, open, high, low, close, volume, tick_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, c := range b.Snapshot(true) {
		_, err := stmt.Exec(c.Start.UTC().Format(TimeLayout),
			c.Open, c.High, c.Low, c.Close, c.Volume, c.TickCount)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert bar into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// WriteChunkDir splits sorted ticks into fixed calendar-day blocks,
// writes one chunk file per block in the given format, and writes the
// manifest. Chunk IDs are ULIDs so the index sorts by creation.
func WriteChunkDir(dir string, ticks []pricing.Tick, chunkDays int, format string) error {
	if len(ticks) == 0 {
		return fmt.Errorf("write chunks %s: no ticks", dir)
	}
	if chunkDays <= 0 {
		chunkDays = 5
	}
	switch format {
	case FormatCSV, FormatCSVXZ, FormatParquet:
	default:
		return fmt.Errorf("write chunks %s: unknown format %q", dir, format)
	}

	var chunks []ChunkDesc
	for lo := 0; lo < len(ticks); {
		blockEnd := midnight(ticks[lo].Time).AddDate(0, 0, chunkDays)
		hi := lo
		for hi < len(ticks) && ticks[hi].Time.Before(blockEnd) {
			hi++
		}
		block := ticks[lo:hi]

		name := fmt.Sprintf("ticks_%s_%s.%s",
			block[0].Time.UTC().Format("20060102150405"),
			block[len(block)-1].Time.UTC().Format("20060102150405"),
			format)
		if err := writeChunkFile(filepath.Join(dir, name), block); err != nil {
			return fmt.Errorf("write chunk %s: %w", name, err)
		}

		chunks = append(chunks, ChunkDesc{
			ID:       id.New(),
			Filename: name,
			Start:    block[0].Time,
			End:      block[len(block)-1].Time,
			Records:  int64(len(block)),
		})
		lo = hi
	}

	return WriteManifest(dir, chunks)
}
