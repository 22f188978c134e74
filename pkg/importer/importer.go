// Package importer extracts Beancount transactions from payment platform
// CSV statements.
package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/beancount"
	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
)

// Config describes one statement source.
type Config struct {
	// Name identifies the importer in logs and import history.
	Name string
	// Account is the account statement files are filed under.
	Account string
	// FilePrefix is the basename prefix of files this importer accepts.
	FilePrefix string
	Currency   string
	// SkipLines is the number of preamble lines before the header.
	SkipLines int
	Fields    schema.Config
	Policy    Policy
	Accounts  *converter.AccountMap
}

// Importer converts the statements of one source.
type Importer struct {
	cfg       Config
	converter *converter.Converter
	dates     DateParser
	logger    *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithDateParser replaces the default LiberalDateParser.
func WithDateParser(p DateParser) Option {
	return func(im *Importer) {
		im.dates = p
	}
}

// WithLogger sets the logger used for omissions and defects.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		im.logger = logger
	}
}

// New creates an Importer. Account tables are not checked for a DEFAULT
// entry here; a missing one fails the first extraction that needs it.
func New(cfg Config, opts ...Option) (*Importer, error) {
	if cfg.Accounts == nil {
		return nil, configError(errors.New("account map is required"))
	}
	if len(cfg.Fields) == 0 {
		return nil, configError(errors.New("no fields configured"))
	}
	if cfg.SkipLines < 0 {
		return nil, configError(fmt.Errorf("negative skip_lines %d", cfg.SkipLines))
	}
	if cfg.Name == "" {
		cfg.Name = cfg.FilePrefix
	}

	im := &Importer{
		cfg:    cfg,
		dates:  LiberalDateParser{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = im.logger.With("profile", cfg.Name)
	im.converter = converter.NewConverter(cfg.Accounts, cfg.Currency).WithLogger(im.logger)
	return im, nil
}

// Name returns the importer name.
func (im *Importer) Name() string {
	return im.cfg.Name
}

// Currency returns the currency postings are written in.
func (im *Importer) Currency() string {
	return im.converter.Currency()
}

// Accounts returns the account tables.
func (im *Importer) Accounts() *converter.AccountMap {
	return im.cfg.Accounts
}

// FileAccount returns the account the statement files are filed under.
func (im *Importer) FileAccount() string {
	return im.cfg.Account
}

// Identify reports whether the importer can handle the file.
func (im *Importer) Identify(f File) bool {
	if f.MimeType() != MimeCSV {
		return false
	}
	if !strings.HasPrefix(filepath.Base(f.Name()), im.cfg.FilePrefix) {
		return false
	}

	contents, err := f.Contents()
	if err != nil {
		return false
	}
	fields, _, err := schema.Normalize(im.cfg.Fields, contents, im.cfg.SkipLines)
	if err != nil {
		im.logger.Debug("File does not match configuration", "file", f.Name(), "error", err)
		return false
	}
	return len(fields) == len(im.cfg.Fields)
}

// FileDate returns the latest settlement date in the file. The boolean is
// false when no date column is configured or the file has no data rows.
func (im *Importer) FileDate(f File) (time.Time, bool, error) {
	fields, rows, err := im.parse(f)
	if err != nil {
		return time.Time{}, false, err
	}

	field := schema.SettlementDate
	idx, ok := fields.Index(field)
	if !ok {
		field = schema.TxnDate
		if idx, ok = fields.Index(field); !ok {
			return time.Time{}, false, nil
		}
	}

	var latest time.Time
	found := false
	for i, row := range rows {
		if idx >= len(row) {
			return time.Time{}, false, &RowError{Line: i + 1, Field: field, Err: fmt.Errorf("%w: column %d out of range", ErrMalformedRow, idx)}
		}
		if row[idx] == "" {
			continue
		}
		date, err := im.dates.ParseDate(row[idx])
		if err != nil {
			return time.Time{}, false, &RowError{Line: i + 1, Field: field, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		if !found || date.After(latest) {
			latest, found = date, true
		}
	}
	return latest, found, nil
}

// Extract converts every data row of the file. Any error aborts the whole
// file and no transactions are returned.
func (im *Importer) Extract(f File) ([]beancount.Transaction, error) {
	fields, rows, err := im.parse(f)
	if err != nil {
		return nil, err
	}

	c := &canonicalizer{fields: fields, policy: im.cfg.Policy, dates: im.dates}
	store, err := c.load(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	ordered := store.Ordered()
	refunds := newRefundResolver(im.cfg.Policy, store, ordered)

	var txns []beancount.Transaction
	for _, rec := range ordered {
		if refunds.isSuppressed(rec) {
			im.logger.Debug("Skipping transaction without money movement",
				"file", f.Name(), "line", rec.LineNo, "txn_id", rec.TxnID, "status", rec.Status)
			continue
		}

		mirror, err := refunds.original(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name(), err)
		}

		txn, err := im.converter.Convert(im.entry(f, rec, mirror))
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", f.Name(), rec.LineNo, configError(err))
		}
		if txn == nil {
			im.logger.Debug("Skipping transaction without amount",
				"file", f.Name(), "line", rec.LineNo, "txn_id", rec.TxnID, "amount", rec.RawAmount)
			continue
		}
		if sum := txn.Balance(); !sum.IsZero() {
			return nil, fmt.Errorf("%s: row %d: postings do not balance: %s", f.Name(), rec.LineNo, sum)
		}

		refunds.remember(rec, txn)
		txns = append(txns, *txn)
	}

	im.logger.Debug("Extracted transactions", "file", f.Name(), "rows", store.Len(), "count", len(txns))
	return txns, nil
}

func (im *Importer) entry(f File, rec *Record, mirror *beancount.Transaction) converter.Entry {
	dir := rec.Direction
	if dir == converter.Uncertain {
		dir = im.cfg.Policy.ResolveUncertain(rec.Status)
	}

	e := converter.Entry{
		Date:       rec.Date,
		Payee:      rec.Payee,
		Narration:  rec.Narration,
		Category:   rec.Category,
		OwnAccount: rec.OwnAccount,
		Amount:     rec.Amount,
		HasAmount:  rec.HasAmount,
		Direction:  dir,
		Source:     beancount.Source{Filename: f.Name(), Line: rec.LineNo},
		TxnTime:    rec.TimeOfDay,
		Mirror:     mirror,
	}
	if rec.TxnDate != "" {
		txnDate := rec.TxnAt
		e.TxnDate = &txnDate
	}
	return e
}

// parse resolves the configured fields against the file and returns its
// data rows.
func (im *Importer) parse(f File) (schema.FieldMap, [][]string, error) {
	contents, err := f.Contents()
	if err != nil {
		return nil, nil, err
	}

	fields, hasHeader, err := schema.Normalize(im.cfg.Fields, contents, im.cfg.SkipLines)
	if err != nil {
		if errors.Is(err, schema.ErrConfig) {
			return nil, nil, fmt.Errorf("%s: %w", f.Name(), configError(err))
		}
		return nil, nil, fmt.Errorf("%s: %w: %w", f.Name(), ErrMalformedRow, err)
	}

	rows, err := schema.ReadRows(strings.NewReader(schema.SkipLines(contents, im.cfg.SkipLines)))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %w", f.Name(), ErrMalformedRow, err)
	}
	return fields, dataRows(rows, hasHeader), nil
}
