// Package db provides SQLite storage for the import history: which statement
// files and transactions have already been written to the ledger.
package db

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per imported statement file
CREATE TABLE IF NOT EXISTS import_runs (
    run_id TEXT PRIMARY KEY,           -- UUID
    profile TEXT NOT NULL,             -- importer name
    source_file TEXT NOT NULL,
    content_sha256 TEXT NOT NULL UNIQUE,
    txn_count INTEGER NOT NULL,
    max_date TEXT,                     -- YYYY-MM-DD, latest date in the file
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_runs_profile
    ON import_runs(profile);

-- Transactions written to the ledger, keyed by a digest of their text
CREATE TABLE IF NOT EXISTS imported_txns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES import_runs(run_id) ON DELETE CASCADE,
    profile TEXT NOT NULL,
    txn_key TEXT NOT NULL,
    ledger_file TEXT NOT NULL,
    txn_date TEXT NOT NULL,            -- YYYY-MM-DD
    amount TEXT NOT NULL,              -- decimal string
    imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(profile, txn_key)
);

CREATE INDEX IF NOT EXISTS idx_imported_txns_date
    ON imported_txns(txn_date);

-- Statement files copied into the documents tree
CREATE TABLE IF NOT EXISTS filed_documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_file TEXT NOT NULL,
    document_path TEXT NOT NULL UNIQUE,
    file_date TEXT NOT NULL,           -- YYYY-MM-DD
    filed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS import_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(context.Background(), Schema); err != nil {
		return err
	}
	return nil
}
