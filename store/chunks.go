package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/tickplay/pricing"
)

// ChunkStore reads ticks from a directory of immutable, time-sorted
// chunk files. The partition index is built once at open, from the
// manifest when present, else by scanning the directory.
type ChunkStore struct {
	dir    string
	chunks []ChunkDesc
	bounds Bounds
	log    zerolog.Logger
}

// OpenChunkDir builds and validates the partition index. Adjacent
// chunks may be separated by gaps (weekends) but must never overlap.
func OpenChunkDir(dir string, opts ...Option) (*ChunkStore, error) {
	o := applyOptions(opts)

	chunks, err := ReadManifest(dir)
	if errors.Is(err, os.ErrNotExist) {
		chunks, err = ScanChunks(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("chunk dir %s: %w", dir, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunk dir %s: no chunk files", dir)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Start.Before(chunks[j].Start) })
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start.Before(chunks[i-1].End) {
			return nil, fmt.Errorf("chunk dir %s: %s overlaps %s",
				dir, chunks[i].Filename, chunks[i-1].Filename)
		}
	}

	s := &ChunkStore{
		dir:    dir,
		chunks: chunks,
		bounds: descBounds(chunks),
		log:    o.log,
	}

	s.log.Debug().
		Int("chunks", len(chunks)).
		Time("start", s.bounds.Start).
		Time("end", s.bounds.End).
		Msg("chunk index built")
	return s, nil
}

// Chunks returns a copy of the partition index.
func (s *ChunkStore) Chunks() []ChunkDesc {
	out := make([]ChunkDesc, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Range reads exactly the chunks whose span intersects [start, end],
// filters, merges in timestamp order and truncates to limit. Stable
// sorting keeps file order for equal timestamps.
func (s *ChunkStore) Range(ctx context.Context, start, end time.Time, limit int) ([]pricing.Tick, error) {
	var out []pricing.Tick
	for _, c := range s.chunks {
		if c.Start.After(end) {
			break // index is sorted; nothing further can overlap
		}
		if !c.overlaps(start, end) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ticks, err := readChunkFile(filepath.Join(s.dir, c.Filename))
		if err != nil {
			return nil, fmt.Errorf("read chunk %s: %w", c.Filename, err)
		}
		for _, t := range ticks {
			if !t.Time.Before(start) && !t.Time.After(end) {
				out = append(out, t)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ChunkStore) Bounds(ctx context.Context) (Bounds, error) {
	return s.bounds, nil
}

// Dates enumerates the calendar dates covered by the descriptors. A
// chunk spanning several days contributes each of them.
func (s *ChunkStore) Dates(ctx context.Context) ([]time.Time, error) {
	seen := make(map[time.Time]struct{})
	for _, c := range s.chunks {
		day := midnight(c.Start)
		for !day.After(c.End) {
			seen[day] = struct{}{}
			day = day.AddDate(0, 0, 1)
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (s *ChunkStore) Close() error {
	return nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
