package importer

import (
	"fmt"
	"sort"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
	"github.com/shopspring/decimal"
)

// Record is one canonicalized statement row. Records are not modified once
// they are inserted into a Store.
type Record struct {
	TxnID       string
	MerchantRef string
	Status      string
	Payee       string
	Narration   string
	Category    string
	OwnAccount  string
	Balance     string

	SettlementDate string
	TxnDate        string
	TxnTime        string
	RawAmount      string

	Amount    decimal.Decimal
	HasAmount bool
	Direction converter.Direction
	LineNo    int

	// Date is the parsed settlement date.
	Date time.Time
	// TxnAt orders records; the parsed transaction date, or the settlement
	// date when the statement has no transaction date.
	TxnAt time.Time
	// TimeOfDay is the parsed HH:MM:SS of the transaction time, if any.
	TimeOfDay string

	cells map[schema.Field]string
}

// Has reports whether the field was configured for the row's statement.
func (r *Record) Has(f schema.Field) bool {
	_, ok := r.cells[f]
	return ok
}

// Value returns a field's trimmed cell and whether the field was configured.
func (r *Record) Value(f schema.Field) (string, bool) {
	v, ok := r.cells[f]
	return v, ok
}

// Store is an in-memory collection of records keyed by transaction id.
type Store struct {
	records []*Record
	byID    map[string]*Record
	byRef   map[string][]*Record
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byID:  make(map[string]*Record),
		byRef: make(map[string][]*Record),
	}
}

// Insert adds a record. Transaction ids must be unique.
func (s *Store) Insert(r *Record) error {
	if existing, ok := s.byID[r.TxnID]; ok {
		return &RowError{
			Line:  r.LineNo,
			Field: schema.TxnID,
			Err:   fmt.Errorf("%w %q (first seen on row %d)", ErrDuplicateTxnID, r.TxnID, existing.LineNo),
		}
	}
	s.records = append(s.records, r)
	s.byID[r.TxnID] = r
	if r.MerchantRef != "" {
		s.byRef[r.MerchantRef] = append(s.byRef[r.MerchantRef], r)
	}
	return nil
}

// Get looks a record up by transaction id.
func (s *Store) Get(id string) (*Record, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// ByMerchantRef returns the records carrying a merchant reference, in
// insertion order, leaving out the record with excludeID.
func (s *Store) ByMerchantRef(ref, excludeID string) []*Record {
	var out []*Record
	for _, r := range s.byRef[ref] {
		if r.TxnID != excludeID {
			out = append(out, r)
		}
	}
	return out
}

// Ordered returns all records by ascending transaction time; records with
// the same time keep their insertion order.
func (s *Store) Ordered() []*Record {
	out := append([]*Record(nil), s.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TxnAt.Before(out[j].TxnAt)
	})
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}
