package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/georgecao/Beancount-CSVImporter/pkg/db"
	"github.com/georgecao/Beancount-CSVImporter/pkg/importer"
	"github.com/spf13/cobra"
)

var fileDryRun bool

// fileCmd represents the file command.
var fileCmd = &cobra.Command{
	Use:   "file FILE...",
	Short: "File statements into the documents tree",
	Long: `Copy statement files into the documents tree of the ledger.

Each file is stored under the directory of its profile's account, named
after the latest date found in the statement:

  documents/Assets/WeChat/Pocket/2021-06-30.微信支付账单.csv

Example:
  csv-import file ~/Downloads/微信支付账单.csv
  csv-import file ~/Downloads/*.csv --dry-run`,
	Args: cobra.MinimumNArgs(1),
	Run:  runFile,
}

func init() {
	fileCmd.Flags().BoolVar(&fileDryRun, "dry-run", false, "Dry run mode (no file writes)")
}

func runFile(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	a, err := loadApp()
	exitOnError(err, "failed to initialize")

	conn, history, err := a.openHistory()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	filed := 0
	for _, path := range args {
		f := importer.OpenFile(path)
		im := a.match(f)
		if im == nil {
			slog.Warn("No importer matches file", "file", path)
			continue
		}
		if im.FileAccount() == "" {
			slog.Warn("Profile has no account to file under", "file", path, "profile", im.Name())
			continue
		}

		date, ok, err := im.FileDate(f)
		if err != nil {
			slog.Error("Failed to read file date", "file", path, "error", err)
			continue
		}
		if !ok {
			slog.Warn("File has no dated rows, skipping", "file", path)
			continue
		}

		dest, err := a.paths.GetDocumentPath(im.FileAccount(), date, filepath.Base(path))
		if err != nil {
			slog.Error("Failed to resolve document path", "file", path, "error", err)
			continue
		}

		if fileDryRun {
			fmt.Printf("[DRY RUN] Would copy %s to %s\n", path, dest)
			continue
		}

		done, err := history.IsDocumentFiled(ctx, dest)
		if err != nil {
			slog.Error("Failed to check document history", "file", path, "error", err)
			continue
		}
		if done || a.paths.FileExists(dest) {
			slog.Info("Document already filed", "file", path, "path", dest)
			continue
		}
		if err := copyFile(path, dest, a.paths.EnsureParentDir); err != nil {
			slog.Error("Failed to file document", "file", path, "error", err)
			continue
		}
		if err := history.RecordDocument(ctx, db.FiledDocument{
			SourceFile:   path,
			DocumentPath: dest,
			FileDate:     date.Format("2006-01-02"),
		}); err != nil {
			slog.Error("Failed to record document", "file", path, "error", err)
		}

		filed++
		slog.Info("Filed document", "file", path, "path", dest)
	}

	slog.Info("Filing completed", "files", len(args), "filed", filed)
}

func copyFile(src, dest string, ensureParent func(string) error) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := ensureParent(dest); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
