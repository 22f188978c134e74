// Package cmd provides CLI commands for csv-import.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	profilesFile string
	debug        bool

	logLevel = new(slog.LevelVar)
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "csv-import",
	Short: "Import payment platform CSV statements into Beancount",
	Long: `csv-import converts CSV statements exported by payment platforms
(WeChat Pay, Alipay, bank cards) into Beancount transactions.

It supports:
- Identifying statement files by name prefix and columns
- Extracting balanced transactions, mirroring refunds onto their originals
- Preventing duplicate imports with SQLite history
- Filing the source statements into the documents tree
- Dry-run mode for testing

Example:
  csv-import identify ~/Downloads/*.csv
  csv-import extract ~/Downloads/微信支付账单.csv --dry-run
  csv-import stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel.Set(slog.LevelInfo)
		if debug {
			logLevel.Set(slog.LevelDebug)
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&profilesFile, "profiles", "", "importer profiles file (default is $IMPORT_PROFILES or config/importers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
