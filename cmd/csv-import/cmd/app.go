package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/georgecao/Beancount-CSVImporter/pkg/beancount"
	"github.com/georgecao/Beancount-CSVImporter/pkg/config"
	"github.com/georgecao/Beancount-CSVImporter/pkg/db"
	"github.com/georgecao/Beancount-CSVImporter/pkg/importer"
	"github.com/georgecao/Beancount-CSVImporter/pkg/pathutil"
)

// lastExtractKey is the history metadata key of the last extract run.
const lastExtractKey = "last_extract_at"

// app holds what every command needs: configuration, paths and importers.
type app struct {
	cfg       *config.Config
	paths     *pathutil.PathResolver
	importers []*importer.Importer
}

// loadApp loads the environment and the importer profiles.
func loadApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Debug {
		logLevel.Set(slog.LevelDebug)
	}

	if profilesFile != "" {
		cfg.ProfilesPath = profilesFile
	}
	if err := cfg.Validate([]string{"ledger", "root"}, []string{"profiles"}); err != nil {
		return nil, err
	}

	slog.Debug("Loading importer profiles", "path", cfg.ProfilesPath)
	profiles, err := config.LoadProfiles(cfg.ProfilesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	importers, err := profiles.Build(importer.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to build importers: %w", err)
	}

	paths := pathutil.New(pathutil.Config{
		LedgerRoot:   cfg.Ledger.Root,
		DatabasePath: cfg.Ledger.DBPath,
		DocumentsDir: cfg.Ledger.DocumentsDir,
	})

	return &app{cfg: cfg, paths: paths, importers: importers}, nil
}

// match returns the first importer that identifies the file.
func (a *app) match(f importer.File) *importer.Importer {
	for _, im := range a.importers {
		if im.Identify(f) {
			return im
		}
	}
	return nil
}

// byName returns the importer with the given profile name.
func (a *app) byName(name string) (*importer.Importer, error) {
	for _, im := range a.importers {
		if im.Name() == name {
			return im, nil
		}
	}
	return nil, fmt.Errorf("no importer profile named %q", name)
}

// openHistory opens the import history database.
func (a *app) openHistory() (*db.Connection, *db.History, error) {
	dbPath := a.paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return conn, db.NewHistory(conn), nil
}

// contentDigest returns the SHA-256 of a file's bytes.
func contentDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// txnKey identifies a transaction by its ledger text, so overlapping
// statements do not write the same transaction twice.
func txnKey(txn beancount.Transaction) string {
	sum := sha256.Sum256([]byte(beancount.Format(txn)))
	return hex.EncodeToString(sum[:])
}
