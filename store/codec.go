package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/ulikunitz/xz"

	"github.com/rustyeddy/tickplay/pricing"
)

// Chunk file formats. CSV may additionally be xz-compressed.
const (
	FormatCSV     = "csv"
	FormatCSVXZ   = "csv.xz"
	FormatParquet = "parquet"
)

var csvHeader = []string{"timestamp", "price", "bid", "ask", "spread", "volume", "session"}

// parquetTick is the on-disk row for parquet chunks. Timestamps are
// Unix milliseconds UTC.
type parquetTick struct {
	Timestamp int64   `parquet:"timestamp"`
	Price     float64 `parquet:"price"`
	Bid       float64 `parquet:"bid"`
	Ask       float64 `parquet:"ask"`
	Spread    float64 `parquet:"spread"`
	Volume    float64 `parquet:"volume"`
	Session   string  `parquet:"session"`
}

// readChunkFile reads a whole chunk into memory, dispatching on the
// file extension. Rows come back in file order.
func readChunkFile(path string) ([]pricing.Tick, error) {
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return readParquetChunk(path)
	case strings.HasSuffix(path, ".csv.xz"):
		return readCSVChunk(path, true)
	case strings.HasSuffix(path, ".csv"):
		return readCSVChunk(path, false)
	}
	return nil, fmt.Errorf("unsupported chunk format: %s", path)
}

func readCSVChunk(path string, compressed bool) ([]pricing.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if compressed {
		src, err = xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	var out []pricing.Tick
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "timestamp") {
				continue
			}
		}
		t, err := parseTickRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

func parseTickRow(row []string) (pricing.Tick, error) {
	if len(row) < 7 {
		return pricing.Tick{}, fmt.Errorf("want 7 fields, got %d", len(row))
	}

	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(row[0]), time.UTC)
	if err != nil {
		return pricing.Tick{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	fields := make([]float64, 5)
	for i := 0; i < 5; i++ {
		fields[i], err = strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return pricing.Tick{}, fmt.Errorf("bad %s %q: %w", csvHeader[i+1], row[i+1], err)
		}
	}

	return pricing.Tick{
		Time:    ts,
		Price:   fields[0],
		Bid:     fields[1],
		Ask:     fields[2],
		Spread:  fields[3],
		Volume:  fields[4],
		Session: strings.TrimSpace(row[6]),
	}, nil
}

func readParquetChunk(path string) ([]pricing.Tick, error) {
	rows, err := parquet.ReadFile[parquetTick](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}

	out := make([]pricing.Tick, 0, len(rows))
	for _, r := range rows {
		out = append(out, pricing.Tick{
			Time:    time.UnixMilli(r.Timestamp).UTC(),
			Price:   r.Price,
			Bid:     r.Bid,
			Ask:     r.Ask,
			Spread:  r.Spread,
			Volume:  r.Volume,
			Session: r.Session,
		})
	}
	return out, nil
}

// writeChunkFile writes one chunk in the format implied by the path
// extension.
func writeChunkFile(path string, ticks []pricing.Tick) error {
	switch {
	case strings.HasSuffix(path, ".parquet"):
		return writeParquetChunk(path, ticks)
	case strings.HasSuffix(path, ".csv.xz"):
		return writeCSVChunk(path, ticks, true)
	case strings.HasSuffix(path, ".csv"):
		return writeCSVChunk(path, ticks, false)
	}
	return fmt.Errorf("unsupported chunk format: %s", path)
}

func writeCSVChunk(path string, ticks []pricing.Tick, compressed bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var dst io.Writer = f
	var xzw *xz.Writer
	if compressed {
		xzw, err = xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("xz writer: %w", err)
		}
		dst = xzw
	}

	w := csv.NewWriter(dst)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range ticks {
		err := w.Write([]string{
			t.Time.UTC().Format(TimeLayout),
			formatFloat(t.Price),
			formatFloat(t.Bid),
			formatFloat(t.Ask),
			formatFloat(t.Spread),
			formatFloat(t.Volume),
			t.Session,
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if xzw != nil {
		if err := xzw.Close(); err != nil {
			return err
		}
	}
	return f.Close()
}

func writeParquetChunk(path string, ticks []pricing.Tick) error {
	rows := make([]parquetTick, 0, len(ticks))
	for _, t := range ticks {
		rows = append(rows, parquetTick{
			Timestamp: t.Time.UTC().UnixMilli(),
			Price:     t.Price,
			Bid:       t.Bid,
			Ask:       t.Ask,
			Spread:    t.Spread,
			Volume:    t.Volume,
			Session:   t.Session,
		})
	}
	return parquet.WriteFile(path, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
