package importer

import (
	"sort"
	"strings"

	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
	"github.com/georgecao/Beancount-CSVImporter/pkg/schema"
)

// DefaultNonFulfillmentStatus is the status of a transaction closed
// without payment.
const DefaultNonFulfillmentStatus = "交易关闭"

// Policy holds the per-platform rules for classifying rows and handling
// refunds.
type Policy struct {
	// DirectionTable maps direction-mark and status texts to a direction.
	DirectionTable map[string]converter.Direction
	// RefundKeyword marks refund statuses, e.g. "退款".
	RefundKeyword string
	// NonFulfillmentStatus is the status of rows where no money moved.
	NonFulfillmentStatus string
	// SuppressCreditRefunds drops credit-side refund rows, for exports that
	// record a refund on both the purchase row and a separate credit row.
	SuppressCreditRefunds bool
	// NarrationMarksDirection also consults the narration column.
	NarrationMarksDirection bool
	// UncertainDefault applies when nothing else decides an uncertain row.
	UncertainDefault converter.Direction
	// AllowZeroAmounts keeps rows with a zero amount.
	AllowZeroAmounts bool
}

// ClassifyDirection decides whether a record is a debit or a credit. The
// direction mark, the status and optionally the narration are looked up in
// the direction table; an uncertain hit does not stop the scan. Separate
// debit and credit amount columns come last.
func (p Policy) ClassifyDirection(r *Record) converter.Direction {
	sources := []schema.Field{schema.DirectionMark, schema.Status}
	if p.NarrationMarksDirection {
		sources = append(sources, schema.Narration)
	}

	for _, f := range sources {
		value, ok := r.Value(f)
		if !ok {
			continue
		}
		if dir, ok := p.DirectionTable[value]; ok && dir != converter.Uncertain {
			return dir
		}
	}

	if v, ok := r.Value(schema.AmountDebit); ok && v != "" {
		return converter.Debit
	}
	if v, ok := r.Value(schema.AmountCredit); ok && v != "" {
		return converter.Credit
	}
	return converter.Uncertain
}

// ResolveUncertain picks a direction for an uncertain row from the
// direction-table keys found in its status text, the longest key winning,
// and falls back to UncertainDefault.
func (p Policy) ResolveUncertain(status string) converter.Direction {
	keys := make([]string, 0, len(p.DirectionTable))
	for k := range p.DirectionTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestLen := converter.Direction(""), 0
	for _, k := range keys {
		dir := p.DirectionTable[k]
		if dir == converter.Uncertain || k == "" || !strings.Contains(status, k) {
			continue
		}
		if len(k) > bestLen {
			best, bestLen = dir, len(k)
		}
	}
	if best != "" {
		return best
	}

	if p.UncertainDefault == converter.Credit {
		return converter.Credit
	}
	return converter.Debit
}

// isRefund reports whether the status carries the refund keyword.
func (p Policy) isRefund(status string) bool {
	return p.RefundKeyword != "" && strings.Contains(status, p.RefundKeyword)
}

// suppressed reports whether no money moved for the record.
func (p Policy) suppressed(r *Record) bool {
	if p.NonFulfillmentStatus != "" && r.Status == p.NonFulfillmentStatus {
		return true
	}
	return p.SuppressCreditRefunds && p.isRefund(r.Status) && r.Direction == converter.Credit
}
