package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tickplay",
	Short: "Stream chunked tick data and build real-time candles",
	Long: `Tickplay streams high-frequency tick data from a SQLite table or a
directory of chunked files (CSV, xz-compressed CSV, or Parquet) and
folds it into fixed-interval OHLCV candles.

It provides tools for:
  - Inspecting a tick store's extent and trading dates
  - Replaying a time range through the growing-candle builder
  - Generating synthetic session-aware tick data
  - Converting between store backends and chunk formats
  - Importing zipped chunk archives`,
}

var (
	verbose bool
	log     zerolog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initLogger)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func initLogger() {
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if verbose {
		log = log.Level(zerolog.DebugLevel)
	}
}
