package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/beancount"
	"github.com/georgecao/Beancount-CSVImporter/pkg/db"
	"github.com/georgecao/Beancount-CSVImporter/pkg/importer"
	"github.com/spf13/cobra"
)

var (
	dryRun bool
	force  bool
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract FILE...",
	Short: "Extract transactions from statements into the ledger",
	Long: `Extract transactions from CSV statements into monthly Beancount files.

This command:
1. Identifies the importer profile of each file
2. Skips files whose content was already imported
3. Converts every row into a balanced transaction
4. Skips transactions already written by an earlier import
5. Appends to monthly Beancount files
6. Records import history in SQLite

A file that fails to convert is skipped as a whole. With --force, a file
already imported is extracted again: its previous run is dropped from the
history first, so its transactions are appended anew.

Example:
  csv-import extract ~/Downloads/微信支付账单.csv
  csv-import extract ~/Downloads/alipay_record.csv --dry-run`,
	Args: cobra.MinimumNArgs(1),
	Run:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Dry run mode (print instead of writing)")
	extractCmd.Flags().BoolVar(&force, "force", false, "Re-import files already in the history, replacing their previous run")
}

func runExtract(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	slog.Info("Starting extract", "files", len(args), "dry_run", dryRun, "force", force)

	a, err := loadApp()
	exitOnError(err, "failed to initialize")

	conn, history, err := a.openHistory()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	repo := beancount.NewFileSystemRepository(a.paths)

	imported, failed := 0, 0
	for _, path := range args {
		n, err := extractFile(ctx, a, history, repo, path)
		if err != nil {
			failed++
			slog.Error("Failed to extract file", "file", path, "error", err)
			continue
		}
		imported += n
	}

	if !dryRun {
		if err := history.SetMetadata(ctx, lastExtractKey, time.Now().Format(time.RFC3339)); err != nil {
			slog.Warn("Failed to update metadata", "error", err)
		}
	}

	slog.Info("Extract completed", "transactions", imported, "failed_files", failed)
	if failed > 0 {
		exitOnError(fmt.Errorf("%d of %d files failed", failed, len(args)), "extract incomplete")
	}
}

// extractFile imports one statement and returns the number of new
// transactions.
func extractFile(ctx context.Context, a *app, history *db.History, repo beancount.Repository, path string) (int, error) {
	f := importer.OpenFile(path)
	im := a.match(f)
	if im == nil {
		slog.Warn("No importer matches file", "file", path)
		return 0, nil
	}
	logger := slog.With("file", path, "profile", im.Name())

	digest, err := contentDigest(path)
	if err != nil {
		return 0, err
	}
	prior, err := history.GetRun(ctx, digest)
	if err != nil {
		return 0, err
	}
	if prior != nil && !force {
		logger.Info("File already imported, skipping", "run_id", prior.RunID)
		return 0, nil
	}

	txns, err := im.Extract(f)
	if err != nil {
		return 0, err
	}

	if prior != nil && !dryRun {
		if _, err := history.DeleteRun(ctx, prior.RunID); err != nil {
			return 0, err
		}
		logger.Info("Dropped previous import run", "run_id", prior.RunID, "count", prior.TxnCount)
	}

	seen, err := history.GetImportedKeys(ctx, im.Name())
	if err != nil {
		return 0, err
	}
	var fresh []beancount.Transaction
	for _, txn := range txns {
		if !seen[txnKey(txn)] {
			fresh = append(fresh, txn)
		}
	}
	logger.Info("Extracted transactions", "count", len(txns), "new", len(fresh), "currency", im.Currency())

	months, groups := beancount.GroupByMonth(fresh)
	if dryRun {
		for _, month := range months {
			filePath, err := a.paths.GetMonthFilePath(month)
			if err != nil {
				return 0, err
			}
			if repo.MonthFileExists(month) {
				fmt.Printf("[DRY RUN] Would append to %s\n", filePath)
			} else {
				fmt.Printf("[DRY RUN] Would create %s\n", filePath)
			}
			for _, txn := range groups[month] {
				fmt.Println(beancount.Format(txn))
			}
		}
		return len(fresh), nil
	}

	var records []db.ImportedTxn
	comment := fmt.Sprintf("Imported from %s (%s)", filepath.Base(path), im.Name())
	for _, month := range months {
		filePath, err := a.paths.GetMonthFilePath(month)
		if err != nil {
			return 0, err
		}
		if err := repo.AppendTransactions(month, groups[month], comment); err != nil {
			return 0, err
		}
		for _, txn := range groups[month] {
			records = append(records, db.ImportedTxn{
				Profile:    im.Name(),
				TxnKey:     txnKey(txn),
				LedgerFile: filePath,
				TxnDate:    txn.Date.Format("2006-01-02"),
				Amount:     txn.Postings[1].Amount.String(),
			})
		}
		logger.Info("Updated file", "path", filePath, "count", len(groups[month]))
	}

	run := db.ImportRun{
		Profile:       im.Name(),
		SourceFile:    path,
		ContentSHA256: digest,
		TxnCount:      len(records),
	}
	if date, ok, err := im.FileDate(f); err == nil && ok {
		run.MaxDate = date.Format("2006-01-02")
	}
	runID, err := history.RecordRun(ctx, run, records)
	if err != nil {
		return 0, err
	}
	logger.Debug("Recorded import run", "run_id", runID)

	return len(fresh), nil
}
