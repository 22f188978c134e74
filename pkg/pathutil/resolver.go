// Package pathutil provides centralized path management for ledger files,
// the import history database and filed source documents.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PathResolver manages paths for ledger files, database, and documents.
type PathResolver struct {
	ledgerRoot   string
	databasePath string
	documentsDir string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// LedgerRoot is the root directory for all Beancount files (e.g., ~/accounting/ledger)
	LedgerRoot string
	// DatabasePath is the path to the SQLite database file for import history
	DatabasePath string
	// DocumentsDir is the directory source statements are filed into
	DocumentsDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {LedgerRoot}/.import/history.db
// If DocumentsDir is empty, it defaults to {LedgerRoot}/documents
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.LedgerRoot, ".import", "history.db")
	}

	documentsDir := config.DocumentsDir
	if documentsDir == "" {
		documentsDir = filepath.Join(config.LedgerRoot, "documents")
	}

	return &PathResolver{
		ledgerRoot:   config.LedgerRoot,
		databasePath: dbPath,
		documentsDir: documentsDir,
	}
}

// GetLedgerRoot returns the ledger root directory.
func (p *PathResolver) GetLedgerRoot() string {
	return p.ledgerRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetDocumentsDir returns the documents directory.
func (p *PathResolver) GetDocumentsDir() string {
	return p.documentsDir
}

// GetYearDir returns the directory path for a year.
// Example: ~/accounting/ledger/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.ledgerRoot, year)
}

// GetMonthFilePath returns the file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ~/accounting/ledger/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	filename := fmt.Sprintf("%s.beancount", yearMonth)

	return filepath.Join(p.GetYearDir(year), filename), nil
}

// GetDocumentPath returns where a source document is filed: one directory
// per account component, the file prefixed with its date.
// Example: documents/Assets/WeChat/Pocket/2024-01-31.statement.csv
func (p *PathResolver) GetDocumentPath(account string, date time.Time, filename string) (string, error) {
	if account == "" {
		return "", fmt.Errorf("account is required to file %s", filename)
	}

	parts := strings.Split(account, ":")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid account name: %s", account)
		}
	}

	name := fmt.Sprintf("%s.%s", date.Format("2006-01-02"), filepath.Base(filename))
	elems := append([]string{p.documentsDir}, parts...)
	elems = append(elems, name)

	return filepath.Join(elems...), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
