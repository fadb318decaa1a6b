package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tickplay/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a tick store's extent and trading dates",
	RunE:  runInfo,
}

var (
	infoDBPath   string
	infoChunkDir string
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringVarP(&infoDBPath, "db", "d", "", "SQLite tick database")
	infoCmd.Flags().StringVarP(&infoChunkDir, "chunks", "c", "", "chunk directory")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ts, err := store.Open(infoDBPath, infoChunkDir, store.WithLogger(log))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ts.Close()

	b, err := ts.Bounds(ctx)
	if err != nil {
		return fmt.Errorf("store bounds: %w", err)
	}
	dates, err := ts.Dates(ctx)
	if err != nil {
		return fmt.Errorf("store dates: %w", err)
	}

	fmt.Printf("Range:   %s to %s\n", b.Start.Format(store.TimeLayout), b.End.Format(store.TimeLayout))
	fmt.Printf("Records: %d\n", b.Records)
	fmt.Printf("Dates:   %d\n", len(dates))
	for _, d := range dates {
		fmt.Printf("  %s\n", d.Format(store.DateLayout))
	}

	if cs, ok := ts.(*store.ChunkStore); ok {
		fmt.Printf("Chunks:\n")
		for _, c := range cs.Chunks() {
			fmt.Printf("  %s  %s  %s to %s  (%d rows)\n",
				c.ID, c.Filename,
				c.Start.Format(store.TimeLayout), c.End.Format(store.TimeLayout),
				c.Records)
		}
	}
	return nil
}
