package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tickplay/store"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a tick store between backends and chunk formats",
	Long: `Convert reads every tick from a source store and rewrites it as a
SQLite database or a chunked directory in the chosen format.

Examples:
  tickplay convert --db ticks.db --out-chunks ./chunks --format parquet
  tickplay convert --chunks ./chunks --out-db ticks.db`,
	RunE: runConvert,
}

var (
	convDBPath    string
	convChunkDir  string
	convOutDB     string
	convOutChunks string
	convFormat    string
	convChunkDays int
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convDBPath, "db", "d", "", "source SQLite database")
	convertCmd.Flags().StringVarP(&convChunkDir, "chunks", "c", "", "source chunk directory")
	convertCmd.Flags().StringVar(&convOutDB, "out-db", "", "destination SQLite database")
	convertCmd.Flags().StringVar(&convOutChunks, "out-chunks", "", "destination chunk directory")
	convertCmd.Flags().StringVar(&convFormat, "format", store.FormatCSV, "destination chunk format")
	convertCmd.Flags().IntVar(&convChunkDays, "chunk-days", 5, "calendar days per chunk")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if convOutDB == "" && convOutChunks == "" {
		return fmt.Errorf("either --out-db or --out-chunks is required")
	}

	src, err := store.Open(convDBPath, convChunkDir, store.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open source store: %w", err)
	}
	defer src.Close()

	bounds, err := src.Bounds(ctx)
	if err != nil {
		return err
	}
	ticks, err := src.Range(ctx, bounds.Start, bounds.End, 0)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	fmt.Printf("Read %d ticks from source\n", len(ticks))

	if convOutDB != "" {
		if err := store.WriteSQLite(convOutDB, ticks); err != nil {
			return err
		}
		fmt.Printf("Wrote SQLite database: %s\n", convOutDB)
	}
	if convOutChunks != "" {
		if err := os.MkdirAll(convOutChunks, 0755); err != nil {
			return err
		}
		if err := store.WriteChunkDir(convOutChunks, ticks, convChunkDays, convFormat); err != nil {
			return err
		}
		fmt.Printf("Wrote chunk directory: %s (%s)\n", convOutChunks, convFormat)
	}
	return nil
}
