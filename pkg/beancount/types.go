// Package beancount provides Beancount transaction types, text formatting
// and a repository for monthly ledger files.
package beancount

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FlagOK      = "*"
	FlagWarning = "!"
)

// Transaction represents a Beancount transaction.
type Transaction struct {
	Date      time.Time
	Flag      string            // "*" or "!"
	Payee     string            // Payee name (optional)
	Narration string            // Transaction description
	Tags      []string          // Tags (optional)
	Links     []string          // Links (optional)
	Metadata  map[string]string // Metadata key-value pairs, printed in key order
	Source    Source            // Where the transaction came from
	Postings  []Posting
}

// Source locates the statement row a transaction was built from.
type Source struct {
	Filename string
	Line     int
}

// Posting represents a posting in a Beancount transaction.
type Posting struct {
	Account  string          // Account name (e.g., "Assets:WeChat:Pocket")
	Amount   decimal.Decimal // Signed amount
	Currency string          // Currency code (e.g., "CNY")
	Comment  string          // Posting comment (optional)
}

// Balance returns the sum of all posting amounts.
func (t Transaction) Balance() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range t.Postings {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// MonthKey returns the YYYY-MM key of the transaction date.
func (t Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}
