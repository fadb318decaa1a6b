package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tickplay/candle"
	"github.com/rustyeddy/tickplay/config"
	"github.com/rustyeddy/tickplay/feed"
	"github.com/rustyeddy/tickplay/pkg/id"
	"github.com/rustyeddy/tickplay/store"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Stream a time range through the candle builder",
	Long: `Replay streams ticks forward from a store and folds them into
fixed-interval candles, printing each candle as it seals.

Examples:
  tickplay replay --db ticks.db --from "2024-01-02 09:30:00" --to "2024-01-02 16:00:00"
  tickplay replay --chunks ./chunks --interval 5m
  tickplay replay --config tickplay.yaml`,
	RunE: runReplay,
}

var (
	replayConfigPath string
	replayDBPath     string
	replayChunkDir   string
	replayFrom       string
	replayTo         string
	replayInterval   string
	replayBatch      int
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "f", "", "path to config file")
	replayCmd.Flags().StringVarP(&replayDBPath, "db", "d", "", "SQLite tick database")
	replayCmd.Flags().StringVarP(&replayChunkDir, "chunks", "c", "", "chunk directory")
	replayCmd.Flags().StringVar(&replayFrom, "from", "", `start time, "2006-01-02 15:04:05" (default store start)`)
	replayCmd.Flags().StringVar(&replayTo, "to", "", "end time (default store end)")
	replayCmd.Flags().StringVarP(&replayInterval, "interval", "i", "", "candle interval, overrides config")
	replayCmd.Flags().IntVarP(&replayBatch, "batch", "b", 0, "ticks per batch, overrides config")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.Default()
	if replayConfigPath != "" {
		loaded, err := config.LoadFromFile(replayConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if replayDBPath != "" {
		cfg.Store.DBPath = replayDBPath
	}
	if replayChunkDir != "" {
		cfg.Store.ChunkDir = replayChunkDir
	}
	if replayInterval != "" {
		cfg.Candle.Interval = replayInterval
	}
	if replayBatch > 0 {
		cfg.Stream.BatchSize = replayBatch
	}

	ts, err := store.Open(cfg.Store.DBPath, cfg.Store.ChunkDir, store.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ts.Close()

	bounds, err := ts.Bounds(ctx)
	if err != nil {
		return err
	}

	from := bounds.Start
	if replayFrom != "" {
		from, err = time.ParseInLocation(store.TimeLayout, replayFrom, time.UTC)
		if err != nil {
			return fmt.Errorf("bad --from: %w", err)
		}
	}
	to := bounds.End
	if replayTo != "" {
		to, err = time.ParseInLocation(store.TimeLayout, replayTo, time.UTC)
		if err != nil {
			return fmt.Errorf("bad --to: %w", err)
		}
	}

	lookback, _ := cfg.Cache.LookbackDuration()
	lookahead, _ := cfg.Cache.LookaheadDuration()
	buffer, _ := cfg.Stream.BufferDuration()

	cache := feed.NewCache(ts,
		feed.WithCacheSize(cfg.Cache.Size),
		feed.WithLookback(lookback),
		feed.WithLookahead(lookahead),
		feed.WithLogger(log),
	)
	streamer := feed.NewStreamer(cache, from, to,
		feed.WithBatchSize(cfg.Stream.BatchSize),
		feed.WithBuffer(buffer),
	)
	builder, err := candle.NewBuilder(cfg.Candle.Interval,
		candle.WithRetention(cfg.Candle.Retention))
	if err != nil {
		return err
	}

	run := id.New()
	log.Info().
		Str("run", run).
		Time("from", from).
		Time("to", to).
		Str("interval", cfg.Candle.Interval).
		Msg("replay started")

	var ticks int
	for {
		batch, ok, err := streamer.Next(ctx)
		if err != nil {
			return fmt.Errorf("stream: %w", err)
		}
		if !ok {
			break
		}
		for _, t := range batch {
			ticks++
			if sealed, _ := builder.Ingest(t); sealed != nil {
				fmt.Printf("%s  O=%.2f H=%.2f L=%.2f C=%.2f V=%.0f (%d ticks)\n",
					sealed.Start.Format(store.TimeLayout),
					sealed.Open, sealed.High, sealed.Low, sealed.Close,
					sealed.Volume, sealed.TickCount)
			}
		}
	}

	bars := builder.Snapshot(true)
	fmt.Printf("\nReplay complete: %d ticks, %d candles", ticks, len(bars))
	if dropped := builder.Dropped(); dropped > 0 {
		fmt.Printf(" (%d out-of-order ticks dropped)", dropped)
	}
	fmt.Println()
	return nil
}
