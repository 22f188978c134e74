package importer

import (
	"errors"
	"fmt"

	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
)

var (
	// ErrConfiguration wraps every configuration failure.
	ErrConfiguration = errors.New("importer configuration error")
	// ErrMalformedRow is returned for rows that cannot be canonicalized.
	ErrMalformedRow = errors.New("malformed row")
	// ErrAmbiguousRefund is returned when a refund correlates with more
	// than one earlier transaction.
	ErrAmbiguousRefund = errors.New("ambiguous refund correlation")
	// ErrDuplicateTxnID is returned when two rows share a transaction id.
	ErrDuplicateTxnID = errors.New("duplicate transaction id")
)

// RowError reports a failure tied to one data row.
type RowError struct {
	Line  int
	Field schema.Field
	Err   error
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("row %d: field %s: %v", e.Line, e.Field, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func configError(err error) error {
	if errors.Is(err, ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}
