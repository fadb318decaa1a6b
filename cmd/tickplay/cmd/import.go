package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xyproto/unzip"

	"github.com/rustyeddy/tickplay/store"
)

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Unpack a zipped chunk archive and validate its index",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var importDest string

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importDest, "out", "o", "./chunks", "destination chunk directory")
}

func runImport(cmd *cobra.Command, args []string) error {
	archive := args[0]

	if err := os.MkdirAll(importDest, 0755); err != nil {
		return err
	}
	if err := unzip.Extract(archive, importDest); err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}

	// Opening builds (or derives) the index, which validates every
	// chunk loudly before the data is trusted.
	cs, err := store.OpenChunkDir(importDest, store.WithLogger(log))
	if err != nil {
		return fmt.Errorf("validate imported chunks: %w", err)
	}
	defer cs.Close()

	chunks := cs.Chunks()
	fmt.Printf("Imported %d chunks into %s\n", len(chunks), importDest)
	return nil
}
