package beancount

import (
	"sort"
	"strings"
)

// amountColumn is the column amounts are right-aligned against.
const amountColumn = 60

// UnresolvedAccount is written in place of an empty posting account so the
// ledger still parses.
const UnresolvedAccount = "Equity:Unresolved"

// dateMetaKeys are printed as bare dates instead of quoted strings.
var dateMetaKeys = map[string]bool{"date": true}

// Format renders a transaction as Beancount text.
func Format(txn Transaction) string {
	var sb strings.Builder

	// Transaction header
	sb.WriteString(txn.Date.Format("2006-01-02"))
	flag := txn.Flag
	if flag == "" {
		flag = FlagOK
	}
	sb.WriteString(" ")
	sb.WriteString(flag)
	if txn.Payee != "" {
		sb.WriteString(" ")
		sb.WriteString(quote(txn.Payee))
	}
	sb.WriteString(" ")
	sb.WriteString(quote(txn.Narration))
	for _, tag := range txn.Tags {
		sb.WriteString(" #")
		sb.WriteString(tag)
	}
	for _, link := range txn.Links {
		sb.WriteString(" ^")
		sb.WriteString(link)
	}
	sb.WriteString("\n")

	keys := make([]string, 0, len(txn.Metadata))
	for k := range txn.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString("  ")
		sb.WriteString(k)
		sb.WriteString(": ")
		if dateMetaKeys[k] {
			sb.WriteString(txn.Metadata[k])
		} else {
			sb.WriteString(quote(txn.Metadata[k]))
		}
		sb.WriteString("\n")
	}

	for _, posting := range txn.Postings {
		account := posting.Account
		if account == "" {
			account = UnresolvedAccount
		}
		sb.WriteString("  ")
		sb.WriteString(account)

		amount := FormatAmount(posting)
		spaces := amountColumn - len(account) - len(amount)
		if spaces < 2 {
			spaces = 2
		}
		sb.WriteString(strings.Repeat(" ", spaces))
		sb.WriteString(amount)

		if posting.Comment != "" {
			sb.WriteString(" ; ")
			sb.WriteString(posting.Comment)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatAmount renders a posting amount with at least two decimals.
func FormatAmount(p Posting) string {
	places := int32(2)
	if exp := -p.Amount.Exponent(); exp > places {
		places = exp
	}
	return p.Amount.StringFixed(places) + " " + p.Currency
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
