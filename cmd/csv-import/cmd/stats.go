package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display import statistics",
	Long: `Display statistics about imported statements and transactions.

Shows:
- Total number of imported statement files
- Total number of imported transactions
- Total number of filed documents
- Last import timestamp
- Counts per importer profile
- Ledger, documents and database locations

Example:
  csv-import stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	a, err := loadApp()
	exitOnError(err, "failed to initialize")

	conn, history, err := a.openHistory()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	stats, err := history.GetStats(cmd.Context())
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Import Statistics ===")
	fmt.Printf("Imported statements:   %d\n", stats.TotalRuns)
	fmt.Printf("Imported transactions: %d\n", stats.TotalTransactions)
	fmt.Printf("Filed documents:       %d\n", stats.TotalDocuments)

	if stats.LastImport.Valid {
		fmt.Printf("Last import:           %s\n", stats.LastImport.String)
	} else {
		fmt.Printf("Last import:           (never)\n")
	}

	lastExtract, err := history.GetMetadata(cmd.Context(), lastExtractKey)
	exitOnError(err, "failed to get metadata")
	if lastExtract != "" {
		fmt.Printf("Last extract run:      %s\n", lastExtract)
	}

	if len(stats.Profiles) > 0 {
		fmt.Println()
		for _, p := range stats.Profiles {
			fmt.Printf("  %-12s %4d statements %6d transactions\n", p.Profile, p.Runs, p.Transactions)
		}
	}

	fmt.Println()
	fmt.Printf("Ledger:    %s\n", a.paths.GetLedgerRoot())
	fmt.Printf("Documents: %s\n", a.paths.GetDocumentsDir())
	fmt.Printf("Database:  %s\n", conn.GetPath())
	fmt.Println()

	slog.Debug("Statistics displayed successfully")
}
