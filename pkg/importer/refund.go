package importer

import (
	"fmt"

	"github.com/georgecao/Beancount-CSVImporter/pkg/beancount"
	"github.com/georgecao/Beancount-CSVImporter/pkg/converter"
)

// refundResolver decides what happens to refund and non-fulfillment rows.
// Records must be visited in ascending time order so that an original is
// materialized before its refund is looked at.
type refundResolver struct {
	policy Policy
	store  *Store

	materialized map[string]*beancount.Transaction
	suppressed   map[string]bool
}

func newRefundResolver(policy Policy, store *Store, records []*Record) *refundResolver {
	r := &refundResolver{
		policy:       policy,
		store:        store,
		materialized: make(map[string]*beancount.Transaction),
		suppressed:   make(map[string]bool),
	}
	for _, rec := range records {
		if policy.suppressed(rec) {
			r.suppressed[rec.TxnID] = true
		}
	}
	return r
}

func (r *refundResolver) isSuppressed(rec *Record) bool {
	return r.suppressed[rec.TxnID]
}

// original returns the transaction a refund reverses, or nil when the
// record is no refund or nothing earlier correlates with it.
func (r *refundResolver) original(rec *Record) (*beancount.Transaction, error) {
	if !r.policy.isRefund(rec.Status) || rec.Direction == converter.Credit {
		return nil, nil
	}

	key := rec.MerchantRef
	if key == "" {
		key = rec.TxnID
	}

	var candidates []*Record
	for _, c := range r.store.ByMerchantRef(key, rec.TxnID) {
		if r.suppressed[c.TxnID] || !c.TxnAt.Before(rec.TxnAt) {
			continue
		}
		candidates = append(candidates, c)
	}

	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return r.materialized[candidates[0].TxnID], nil
	default:
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.TxnID
		}
		return nil, &RowError{
			Line: rec.LineNo,
			Err:  fmt.Errorf("%w: refund %s matches %v", ErrAmbiguousRefund, rec.TxnID, ids),
		}
	}
}

// remember records the transaction synthesized for a record.
func (r *refundResolver) remember(rec *Record, txn *beancount.Transaction) {
	if txn != nil {
		r.materialized[rec.TxnID] = txn
	}
}
