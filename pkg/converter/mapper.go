// Package converter resolves ledger accounts and converts canonical
// statement rows into balanced Beancount transactions.
package converter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultKey is the mandatory fallback entry of every role table.
const DefaultKey = "DEFAULT"

var (
	// ErrMissingDefault is returned when a role table has no DEFAULT entry.
	ErrMissingDefault = errors.New("account table has no DEFAULT entry")
	// ErrInvalidPattern is returned when a keyword is not a valid pattern.
	ErrInvalidPattern = errors.New("invalid account keyword pattern")
)

// Direction is the flow of money from the owner's perspective.
type Direction string

const (
	Debit     Direction = "debit"
	Credit    Direction = "credit"
	Uncertain Direction = "uncertain"
)

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Debit:
		return Debit, nil
	case Credit:
		return Credit, nil
	case Uncertain, "uncertainty":
		return Uncertain, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Role selects one of the three account tables.
func (d Direction) Role() Role {
	switch d {
	case Debit:
		return RoleDebit
	case Credit:
		return RoleCredit
	default:
		return RoleAsset
	}
}

// Role names an account table.
type Role string

const (
	RoleAsset  Role = "asset"
	RoleDebit  Role = "debit"
	RoleCredit Role = "credit"
)

// ParseRole parses a role name; "assets" is accepted for asset.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asset", "assets":
		return RoleAsset, nil
	case "debit":
		return RoleDebit, nil
	case "credit":
		return RoleCredit, nil
	}
	return "", fmt.Errorf("unknown account role %q", s)
}

// rule maps a keyword pattern to an account.
type rule struct {
	Key     string
	Pattern *regexp.Regexp
	Account string
}

// RuleTable is one role's keyword to account table.
type RuleTable struct {
	fallback   string
	hasDefault bool
	exact      map[string]string
	rules      []rule
}

// NewRuleTable compiles a keyword to account mapping. Every key other than
// DEFAULT is also treated as a regular expression.
func NewRuleTable(entries map[string]string) (*RuleTable, error) {
	t := &RuleTable{exact: make(map[string]string, len(entries))}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		account := entries[k]
		if k == DefaultKey {
			t.fallback = account
			t.hasDefault = true
			continue
		}
		pattern, err := regexp.Compile(k)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, k, err)
		}
		t.exact[k] = account
		t.rules = append(t.rules, rule{Key: k, Pattern: pattern, Account: account})
	}
	return t, nil
}

// Default returns the DEFAULT account.
func (t *RuleTable) Default() (string, error) {
	if !t.hasDefault {
		return "", ErrMissingDefault
	}
	return t.fallback, nil
}

// Match finds the account for a single keyword. An exact key wins outright;
// otherwise the pattern with the longest match in the keyword wins, ties
// going to the smallest key. The returned length counts characters.
func (t *RuleTable) Match(keyword string) (string, int, bool) {
	if keyword == "" {
		return "", 0, false
	}
	if account, ok := t.exact[keyword]; ok {
		return account, utf8.RuneCountInString(keyword), true
	}

	var (
		best    string
		bestLen int
		found   bool
	)
	for _, r := range t.rules {
		loc := r.Pattern.FindStringIndex(keyword)
		if loc == nil {
			continue
		}
		length := utf8.RuneCountInString(keyword[loc[0]:loc[1]])
		if length > bestLen {
			best = r.Account
			bestLen = length
			found = true
		}
	}
	return best, bestLen, found
}

// AccountMap holds the asset, debit and credit tables.
type AccountMap struct {
	tables map[Role]*RuleTable
}

// NewAccountMap compiles the tables of every role. A missing DEFAULT entry
// is not checked here; it surfaces when the table is consulted.
func NewAccountMap(roles map[Role]map[string]string) (*AccountMap, error) {
	m := &AccountMap{tables: make(map[Role]*RuleTable, len(roles))}
	for role, entries := range roles {
		table, err := NewRuleTable(entries)
		if err != nil {
			return nil, fmt.Errorf("%s table: %w", role, err)
		}
		m.tables[role] = table
	}
	return m, nil
}

// Table returns the table of a role.
func (m *AccountMap) Table(role Role) (*RuleTable, error) {
	table, ok := m.tables[role]
	if !ok {
		return nil, fmt.Errorf("%s table: %w", role, ErrMissingDefault)
	}
	if !table.hasDefault {
		return nil, fmt.Errorf("%s table: %w", role, ErrMissingDefault)
	}
	return table, nil
}

// Resolve returns the account for a direction given keywords in priority
// order. The first keyword that matches wins. Unresolved debit and credit
// lookups are retried against the asset table before falling back to the
// role's DEFAULT account.
func (m *AccountMap) Resolve(dir Direction, keywords []string) (string, error) {
	table, err := m.Table(dir.Role())
	if err != nil {
		return "", err
	}
	if account, ok := matchFirst(table, keywords); ok {
		return account, nil
	}

	if dir != Uncertain {
		backup, err := m.Table(RoleAsset)
		if err != nil {
			return "", err
		}
		if account, ok := matchFirst(backup, keywords); ok {
			return account, nil
		}
	}

	return table.fallback, nil
}

func matchFirst(table *RuleTable, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if account, _, ok := table.Match(keyword); ok {
			return account, true
		}
	}
	return "", false
}
