package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tickplay/pkg/id"
)

// ManifestName is the partition index file inside a chunk directory.
const ManifestName = "manifest.csv"

// ChunkDesc describes one physical partition of the tick store. The
// sorted slice of these is built once at open and read-only after.
type ChunkDesc struct {
	ID       string
	Filename string
	Start    time.Time
	End      time.Time
	Records  int64
}

// overlaps is the chunk selection test used by ranged reads.
func (c ChunkDesc) overlaps(start, end time.Time) bool {
	return !c.Start.After(end) && !c.End.Before(start)
}

// ReadManifest parses manifest.csv. Rows carry
// id,filename,start_timestamp,end_timestamp,records; the id column is
// optional for manifests written by older tooling. Any malformed row
// fails the whole read — a silently dropped chunk would corrupt the
// time-coverage invariant.
func ReadManifest(dir string) ([]ChunkDesc, error) {
	f, err := os.Open(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var chunks []ChunkDesc
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[len(row)-1]), "records") {
			continue // header
		}
		c, err := parseManifestRow(row)
		if err != nil {
			return nil, fmt.Errorf("manifest row %d: %w", i+1, err)
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func parseManifestRow(row []string) (ChunkDesc, error) {
	var c ChunkDesc

	switch len(row) {
	case 5:
		c.ID = strings.TrimSpace(row[0])
		row = row[1:]
	case 4:
		c.ID = id.New()
	default:
		return ChunkDesc{}, fmt.Errorf("want 4 or 5 fields, got %d", len(row))
	}

	c.Filename = strings.TrimSpace(row[0])
	if c.Filename == "" {
		return ChunkDesc{}, fmt.Errorf("empty filename")
	}

	var err error
	c.Start, err = time.ParseInLocation(TimeLayout, strings.TrimSpace(row[1]), time.UTC)
	if err != nil {
		return ChunkDesc{}, fmt.Errorf("bad start_timestamp %q: %w", row[1], err)
	}
	c.End, err = time.ParseInLocation(TimeLayout, strings.TrimSpace(row[2]), time.UTC)
	if err != nil {
		return ChunkDesc{}, fmt.Errorf("bad end_timestamp %q: %w", row[2], err)
	}
	c.Records, err = strconv.ParseInt(strings.TrimSpace(row[3]), 10, 64)
	if err != nil {
		return ChunkDesc{}, fmt.Errorf("bad records %q: %w", row[3], err)
	}
	return c, nil
}

// WriteManifest writes the partition index for a chunk directory.
func WriteManifest(dir string, chunks []ChunkDesc) error {
	f, err := os.Create(filepath.Join(dir, ManifestName))
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "filename", "start_timestamp", "end_timestamp", "records"}); err != nil {
		return err
	}
	for _, c := range chunks {
		err := w.Write([]string{
			c.ID,
			c.Filename,
			c.Start.UTC().Format(TimeLayout),
			c.End.UTC().Format(TimeLayout),
			strconv.FormatInt(c.Records, 10),
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}

// ScanChunks derives a partition index for a directory without a
// manifest by matching the fixed chunk naming pattern and inspecting
// each file's first and last rows. An unreadable chunk fails the scan.
func ScanChunks(dir string) ([]ChunkDesc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan chunk dir: %w", err)
	}

	var chunks []ChunkDesc
	for _, e := range entries {
		if e.IsDir() || !isChunkFile(e.Name()) {
			continue
		}
		ticks, err := readChunkFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("inspect chunk %s: %w", e.Name(), err)
		}
		if len(ticks) == 0 {
			return nil, fmt.Errorf("inspect chunk %s: no ticks", e.Name())
		}
		chunks = append(chunks, ChunkDesc{
			ID:       id.New(),
			Filename: e.Name(),
			Start:    ticks[0].Time,
			End:      ticks[len(ticks)-1].Time,
			Records:  int64(len(ticks)),
		})
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start.Before(chunks[j].Start) })
	return chunks, nil
}

// isChunkFile matches the fixed chunk naming pattern shared with the
// generator: a "ticks_" stem plus a supported extension.
func isChunkFile(name string) bool {
	if !strings.Contains(name, "ticks_") {
		return false
	}
	return strings.HasSuffix(name, ".csv") ||
		strings.HasSuffix(name, ".csv.xz") ||
		strings.HasSuffix(name, ".parquet")
}

// descBounds folds a sorted descriptor slice into store bounds.
func descBounds(chunks []ChunkDesc) Bounds {
	b := Bounds{}
	if len(chunks) == 0 {
		return b
	}
	b.Start = chunks[0].Start
	b.End = chunks[len(chunks)-1].End
	for _, c := range chunks {
		b.Records += c.Records
	}
	return b
}
