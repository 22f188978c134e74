package cmd

import (
	"fmt"
	"log/slog"

	"github.com/georgecao/Beancount-CSVImporter/pkg/importer"
	"github.com/spf13/cobra"
)

// identifyCmd represents the identify command.
var identifyCmd = &cobra.Command{
	Use:   "identify FILE...",
	Short: "Show which importer profile handles each file",
	Long: `Show which importer profile handles each statement file.

A profile matches when the file is CSV, its name starts with the profile's
file prefix, and every configured column is found. Files whose content is
already in the import history are marked "imported".

Example:
  csv-import identify ~/Downloads/*.csv`,
	Args: cobra.MinimumNArgs(1),
	Run:  runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()

	a, err := loadApp()
	exitOnError(err, "failed to initialize")

	conn, history, err := a.openHistory()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	matched := 0
	for _, path := range args {
		f := importer.OpenFile(path)
		im := a.match(f)
		if im == nil {
			slog.Debug("No importer matches file", "file", path, "mime", f.MimeType())
			fmt.Printf("%s\t-\n", path)
			continue
		}
		matched++

		status := "new"
		if digest, err := contentDigest(path); err != nil {
			slog.Warn("Failed to read file", "file", path, "error", err)
		} else if imported, err := history.IsImported(ctx, digest); err != nil {
			slog.Warn("Failed to check import history", "file", path, "error", err)
		} else if imported {
			status = "imported"
		}
		fmt.Printf("%s\t%s\t%s\n", path, im.Name(), status)
	}

	slog.Info("Identification completed", "files", len(args), "matched", matched)
}
