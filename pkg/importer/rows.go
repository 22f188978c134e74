package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
)

const timeOfDayLayout = "15:04:05"

var clockLayouts = []string{"15:04:05", "15:04"}

// canonicalizer turns the data rows of one statement into records.
type canonicalizer struct {
	fields schema.FieldMap
	policy Policy
	dates  DateParser
}

// dataRows drops the header, comments and blank rows and stops at the
// terminator line.
func dataRows(rows [][]string, hasHeader bool) [][]string {
	if hasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	var out [][]string
	for _, row := range rows {
		if schema.IsTerminator(row) {
			break
		}
		if schema.IsComment(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// load canonicalizes every data row into a new store.
func (c *canonicalizer) load(rows [][]string) (*Store, error) {
	store := NewStore()
	for i, row := range rows {
		record, err := c.record(row, i+1)
		if err != nil {
			return nil, err
		}
		if err := store.Insert(record); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (c *canonicalizer) record(row []string, lineNo int) (*Record, error) {
	cells := make(map[schema.Field]string, len(c.fields))
	for _, f := range schema.AllFields {
		idx, ok := c.fields[f]
		if !ok {
			continue
		}
		if idx < 0 || idx >= len(row) {
			return nil, &RowError{
				Line:  lineNo,
				Field: f,
				Err:   fmt.Errorf("%w: column %d out of range for %d cells", ErrMalformedRow, idx, len(row)),
			}
		}
		cells[f] = row[idx]
	}

	r := &Record{
		TxnID:          cells[schema.TxnID],
		MerchantRef:    cells[schema.MerchantRef],
		Status:         cells[schema.Status],
		Payee:          cells[schema.Payee],
		Narration:      cells[schema.Narration],
		Category:       cells[schema.Category],
		OwnAccount:     cells[schema.OwnAccount],
		Balance:        cells[schema.Balance],
		SettlementDate: cells[schema.SettlementDate],
		TxnDate:        cells[schema.TxnDate],
		TxnTime:        cells[schema.TxnTime],
		LineNo:         lineNo,
		cells:          cells,
	}
	if _, ok := cells[schema.TxnID]; !ok || r.TxnID == "" {
		r.TxnID = "line-" + strconv.Itoa(lineNo)
	}

	r.Direction = c.policy.ClassifyDirection(r)

	if err := c.amount(r); err != nil {
		return nil, err
	}
	if err := c.datesOf(r); err != nil {
		return nil, err
	}
	return r, nil
}

// amount reads the AMOUNT column, or the debit or credit column when the
// statement splits amounts by direction.
func (c *canonicalizer) amount(r *Record) error {
	field := schema.Amount
	if _, ok := r.cells[schema.Amount]; !ok {
		field = ""
		for _, f := range []schema.Field{schema.AmountDebit, schema.AmountCredit} {
			if v, ok := r.cells[f]; ok && v != "" {
				field = f
				break
			}
		}
		if field == "" {
			return nil
		}
	}

	r.RawAmount = r.cells[field]
	amount, ok, err := ParseAmount(r.RawAmount, c.policy.AllowZeroAmounts)
	if err != nil {
		return &RowError{Line: r.LineNo, Field: field, Err: err}
	}
	r.Amount, r.HasAmount = amount, ok
	return nil
}

func (c *canonicalizer) datesOf(r *Record) error {
	if r.TxnDate != "" {
		t, err := c.dates.ParseDate(r.TxnDate)
		if err != nil {
			return &RowError{Line: r.LineNo, Field: schema.TxnDate, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		r.TxnAt = t
	}

	switch {
	case r.SettlementDate != "":
		t, err := c.dates.ParseDate(r.SettlementDate)
		if err != nil {
			return &RowError{Line: r.LineNo, Field: schema.SettlementDate, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		r.Date = t
		if r.TxnDate == "" {
			r.TxnAt = t
		}
	case r.TxnDate != "":
		r.Date = r.TxnAt
	default:
		return &RowError{Line: r.LineNo, Field: schema.SettlementDate, Err: fmt.Errorf("%w: no date", ErrMalformedRow)}
	}

	if r.TxnTime != "" {
		clock, err := c.timeOfDay(r.TxnTime)
		if err != nil {
			return &RowError{Line: r.LineNo, Field: schema.TxnTime, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		r.TimeOfDay = clock
	}
	return nil
}

// timeOfDay accepts a bare clock time or a full timestamp.
func (c *canonicalizer) timeOfDay(s string) (string, error) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.Format(timeOfDayLayout), nil
		}
	}
	t, err := c.dates.ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(timeOfDayLayout), nil
}
