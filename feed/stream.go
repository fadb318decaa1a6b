package feed

import (
	"context"
	"time"

	"github.com/rustyeddy/tickplay/pricing"
)

// Stream defaults. advanceStep is the tick clock resolution: the
// cursor moves one step past the last emitted tick so nothing is
// re-read.
const (
	DefaultBatchSize = 1
	DefaultBuffer    = 60 * time.Minute

	advanceStep = time.Second
)

// Streamer yields tick batches advancing strictly forward from start
// to end, refilling the cache one buffer span at a time. The sequence
// is finite and not restartable; construct a new Streamer to replay.
//
// An empty buffer load is a hole (weekend, closed session): the cursor
// skips ahead one buffer span and tries again rather than ending the
// stream early. Termination happens only at end.
type Streamer struct {
	cache *Cache

	cur    time.Time
	end    time.Time
	batch  int
	buffer time.Duration

	window []pricing.Tick
	pos    int
	done   bool
}

type StreamOption func(*Streamer)

func WithBatchSize(n int) StreamOption {
	return func(s *Streamer) { s.batch = n }
}

func WithBuffer(d time.Duration) StreamOption {
	return func(s *Streamer) { s.buffer = d }
}

// NewStreamer starts at start. A zero end means the store's end,
// resolved lazily on the first Next call.
func NewStreamer(c *Cache, start, end time.Time, opts ...StreamOption) *Streamer {
	s := &Streamer{
		cache:  c,
		cur:    start,
		end:    end,
		batch:  DefaultBatchSize,
		buffer: DefaultBuffer,
	}
	for _, fn := range opts {
		fn(s)
	}
	if s.batch <= 0 {
		s.batch = DefaultBatchSize
	}
	if s.buffer <= 0 {
		s.buffer = DefaultBuffer
	}
	return s
}

// Next returns the next batch. ok is false once the stream has
// terminated; after that every call returns (nil, false, nil). Each
// refill is the streamer's one blocking suspension point.
func (s *Streamer) Next(ctx context.Context) (batch []pricing.Tick, ok bool, err error) {
	if s.done {
		return nil, false, nil
	}

	if s.end.IsZero() {
		b, err := s.cache.Bounds(ctx)
		if err != nil {
			return nil, false, err
		}
		s.end = b.End
	}

	for s.pos >= len(s.window) {
		if !s.cur.Before(s.end) {
			s.done = true
			return nil, false, nil
		}

		bufEnd := s.cur.Add(s.buffer)
		if bufEnd.After(s.end) {
			bufEnd = s.end
		}
		if err := s.cache.Load(ctx, s.cur, bufEnd); err != nil {
			return nil, false, err
		}

		s.window = s.cache.Ticks()
		s.pos = 0
		if len(s.window) == 0 {
			s.cur = s.cur.Add(s.buffer) // hole: skip ahead, don't terminate
		}
	}

	hi := s.pos + s.batch
	if hi > len(s.window) {
		hi = len(s.window)
	}
	batch = s.window[s.pos:hi]
	s.pos = hi

	// Clip the final batch to end and stop. Loads are bounded by end,
	// so this only trims a batch straddling the boundary.
	if batch[len(batch)-1].Time.After(s.end) {
		i := 0
		for i < len(batch) && !batch[i].Time.After(s.end) {
			i++
		}
		s.done = true
		if i == 0 {
			return nil, false, nil
		}
		s.cur = s.end
		return batch[:i], true, nil
	}

	s.cur = batch[len(batch)-1].Time.Add(advanceStep)
	return batch, true, nil
}
