package converter

import (
	"log/slog"
	"time"

	"github.com/georgecao/Beancount-CSVImporter/pkg/beancount"
	"github.com/shopspring/decimal"
)

// Entry is a canonical statement row ready for conversion.
type Entry struct {
	Date       time.Time
	Payee      string
	Narration  string
	Category   string
	OwnAccount string
	Amount     decimal.Decimal
	HasAmount  bool
	Direction  Direction // Debit or Credit; Uncertain is treated as Debit

	Source  beancount.Source
	TxnDate *time.Time // recorded as "date" metadata
	TxnTime string     // recorded as "time" metadata, HH:MM:SS

	// Mirror is the transaction a refund reverses. When set, the accounts
	// are taken from it with the legs swapped.
	Mirror *beancount.Transaction
}

// Converter converts canonical entries to Beancount transactions.
type Converter struct {
	accounts *AccountMap
	currency string
	logger   *slog.Logger
}

// NewConverter creates a new Converter.
func NewConverter(accounts *AccountMap, currency string) *Converter {
	if currency == "" {
		currency = "CNY"
	}
	return &Converter{
		accounts: accounts,
		currency: currency,
		logger:   slog.Default(),
	}
}

// WithLogger returns a copy of the converter that logs to logger.
func (c *Converter) WithLogger(logger *slog.Logger) *Converter {
	cp := *c
	cp.logger = logger
	return &cp
}

// Currency returns the currency postings are written in.
func (c *Converter) Currency() string {
	return c.currency
}

// Convert builds a two-posting transaction. It returns nil when the entry
// carries no amount.
func (c *Converter) Convert(e Entry) (*beancount.Transaction, error) {
	if !e.HasAmount || e.Amount.IsZero() {
		return nil, nil
	}
	amount := e.Amount.Abs()

	primary, secondary, err := c.accountsFor(e)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	if e.TxnDate != nil {
		meta["date"] = e.TxnDate.Format("2006-01-02")
	}
	if e.TxnTime != "" {
		meta["time"] = e.TxnTime
	}

	txn := &beancount.Transaction{
		Date:      e.Date,
		Flag:      beancount.FlagOK,
		Payee:     e.Payee,
		Narration: e.Narration,
		Metadata:  meta,
		Source:    e.Source,
		Postings: []beancount.Posting{
			{Account: primary, Amount: amount.Neg(), Currency: c.currency},
			{Account: secondary, Amount: amount, Currency: c.currency},
		},
	}

	if primary == "" || secondary == "" || primary == secondary {
		txn.Flag = beancount.FlagWarning
		c.logger.Warn("Transaction accounts unresolved or identical",
			"file", e.Source.Filename,
			"line", e.Source.Line,
			"primary", primary,
			"secondary", secondary,
		)
	}

	return txn, nil
}

// accountsFor returns the accounts of the negative and positive legs.
func (c *Converter) accountsFor(e Entry) (string, string, error) {
	if e.Mirror != nil && len(e.Mirror.Postings) == 2 {
		return e.Mirror.Postings[1].Account, e.Mirror.Postings[0].Account, nil
	}

	counterparty := []string{e.Payee, e.Narration, e.Category}
	own := []string{e.OwnAccount}

	if e.Direction == Credit {
		primary, err := c.accounts.Resolve(Credit, own)
		if err != nil {
			return "", "", err
		}
		secondary, err := c.accounts.Resolve(Debit, counterparty)
		if err != nil {
			return "", "", err
		}
		return primary, secondary, nil
	}

	primary, err := c.accounts.Resolve(Credit, counterparty)
	if err != nil {
		return "", "", err
	}
	secondary, err := c.accounts.Resolve(Debit, own)
	if err != nil {
		return "", "", err
	}
	return primary, secondary, nil
}
