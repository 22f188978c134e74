package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportRun is one imported statement file.
type ImportRun struct {
	RunID         string
	Profile       string
	SourceFile    string
	ContentSHA256 string
	TxnCount      int
	MaxDate       string
	ImportedAt    time.Time
}

// ImportedTxn is one transaction written to the ledger.
type ImportedTxn struct {
	RunID      string
	Profile    string
	TxnKey     string
	LedgerFile string
	TxnDate    string
	Amount     string
}

// FiledDocument is a statement file copied into the documents tree.
type FiledDocument struct {
	SourceFile   string
	DocumentPath string
	FileDate     string
	FiledAt      time.Time
}

// History manages the import history.
type History struct {
	conn *Connection
}

// NewHistory creates a new History instance.
func NewHistory(conn *Connection) *History {
	return &History{conn: conn}
}

// RecordRun stores an import run together with its transactions and returns
// the run id. A run id is generated when run.RunID is empty. A previous run
// of the same content is replaced.
func (h *History) RecordRun(ctx context.Context, run ImportRun, txns []ImportedTxn) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}

	err := h.conn.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM import_runs WHERE content_sha256 = ?`, run.ContentSHA256); err != nil {
			return fmt.Errorf("failed to replace previous run: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO import_runs (run_id, profile, source_file, content_sha256, txn_count, max_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID,
			run.Profile,
			run.SourceFile,
			run.ContentSHA256,
			run.TxnCount,
			run.MaxDate,
		); err != nil {
			return fmt.Errorf("failed to record import run: %w", err)
		}

		for _, txn := range txns {
			txn.RunID = run.RunID
			if err := recordTxn(ctx, tx, txn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return run.RunID, nil
}

// recordTxn records a transaction of a run. A transaction already recorded
// for the profile is moved to the run.
func recordTxn(ctx context.Context, tx *sql.Tx, txn ImportedTxn) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO imported_txns (run_id, profile, txn_key, ledger_file, txn_date, amount)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile, txn_key) DO UPDATE SET
			run_id = excluded.run_id,
			ledger_file = excluded.ledger_file,
			txn_date = excluded.txn_date,
			amount = excluded.amount,
			imported_at = CURRENT_TIMESTAMP`,
		txn.RunID,
		txn.Profile,
		txn.TxnKey,
		txn.LedgerFile,
		txn.TxnDate,
		txn.Amount,
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction %s: %w", txn.TxnKey, err)
	}
	return nil
}

// IsImported checks if a file with the given content digest has been imported.
func (h *History) IsImported(ctx context.Context, contentSHA256 string) (bool, error) {
	var count int
	err := h.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM import_runs WHERE content_sha256 = ?`, contentSHA256).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if imported: %w", err)
	}
	return count > 0, nil
}

// GetRun retrieves an import run by content digest. It returns nil when the
// content has not been imported.
func (h *History) GetRun(ctx context.Context, contentSHA256 string) (*ImportRun, error) {
	query := `
		SELECT run_id, profile, source_file, content_sha256, txn_count, COALESCE(max_date, ''), imported_at
		FROM import_runs
		WHERE content_sha256 = ?
	`

	var run ImportRun
	err := h.conn.QueryRow(ctx, query, contentSHA256).Scan(
		&run.RunID,
		&run.Profile,
		&run.SourceFile,
		&run.ContentSHA256,
		&run.TxnCount,
		&run.MaxDate,
		&run.ImportedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import run: %w", err)
	}
	return &run, nil
}

// GetImportedKeys returns the keys of every transaction imported for a
// profile. This is useful for bulk filtering.
func (h *History) GetImportedKeys(ctx context.Context, profile string) (map[string]bool, error) {
	rows, err := h.conn.Query(ctx, `SELECT txn_key FROM imported_txns WHERE profile = ?`, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to get imported keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan transaction key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// DeleteRun deletes an import run and its transactions.
// Use case: force re-import of a statement.
func (h *History) DeleteRun(ctx context.Context, runID string) (bool, error) {
	result, err := h.conn.Exec(ctx, `DELETE FROM import_runs WHERE run_id = ?`, runID)
	if err != nil {
		return false, fmt.Errorf("failed to delete import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// RecordDocument records a filed statement document.
// If the document path is already recorded, it updates it.
func (h *History) RecordDocument(ctx context.Context, doc FiledDocument) error {
	_, err := h.conn.Exec(ctx, `
		INSERT INTO filed_documents (source_file, document_path, file_date)
		VALUES (?, ?, ?)
		ON CONFLICT(document_path) DO UPDATE SET
			source_file = excluded.source_file,
			file_date = excluded.file_date,
			filed_at = CURRENT_TIMESTAMP`,
		doc.SourceFile,
		doc.DocumentPath,
		doc.FileDate,
	)
	if err != nil {
		return fmt.Errorf("failed to record document: %w", err)
	}
	return nil
}

// IsDocumentFiled checks if a document path has been recorded.
func (h *History) IsDocumentFiled(ctx context.Context, documentPath string) (bool, error) {
	var count int
	err := h.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM filed_documents WHERE document_path = ?`, documentPath).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if document filed: %w", err)
	}
	return count > 0, nil
}

// ProfileStats counts the history of one importer.
type ProfileStats struct {
	Profile      string
	Runs         int
	Transactions int
}

// Stats represents import statistics.
type Stats struct {
	TotalRuns         int
	TotalTransactions int
	TotalDocuments    int
	LastImport        sql.NullString
	Profiles          []ProfileStats
}

// GetStats retrieves import statistics.
func (h *History) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := h.conn.QueryRow(ctx, `SELECT COUNT(*) FROM import_runs`).Scan(&stats.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get run count: %w", err)
	}

	err = h.conn.QueryRow(ctx, `SELECT COUNT(*) FROM imported_txns`).Scan(&stats.TotalTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction count: %w", err)
	}

	err = h.conn.QueryRow(ctx, `SELECT COUNT(*) FROM filed_documents`).Scan(&stats.TotalDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to get document count: %w", err)
	}

	err = h.conn.QueryRow(ctx, `SELECT MAX(imported_at) FROM import_runs`).Scan(&stats.LastImport)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last import time: %w", err)
	}

	rows, err := h.conn.Query(ctx, `
		SELECT r.profile, COUNT(DISTINCT r.run_id), COUNT(t.id)
		FROM import_runs r
		LEFT JOIN imported_txns t ON t.run_id = r.run_id
		GROUP BY r.profile
		ORDER BY r.profile`)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps ProfileStats
		if err := rows.Scan(&ps.Profile, &ps.Runs, &ps.Transactions); err != nil {
			return nil, fmt.Errorf("failed to scan profile stats: %w", err)
		}
		stats.Profiles = append(stats.Profiles, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profile stats: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *History) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := h.conn.QueryRow(ctx, `SELECT value FROM import_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// SetMetadata sets a metadata value.
func (h *History) SetMetadata(ctx context.Context, key, value string) error {
	_, err := h.conn.Exec(ctx, `
		INSERT INTO import_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}
