// Package schema maps semantic statement fields to CSV column indexes.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a semantic column of a statement export.
type Field string

const (
	TxnID          Field = "TXN_ID"
	MerchantRef    Field = "MERCHANT_REF"
	SettlementDate Field = "SETTLEMENT_DATE"
	TxnDate        Field = "TXN_DATE"
	TxnTime        Field = "TXN_TIME"
	Payee          Field = "PAYEE"
	Narration      Field = "NARRATION"
	Amount         Field = "AMOUNT"
	AmountDebit    Field = "AMOUNT_DEBIT"
	AmountCredit   Field = "AMOUNT_CREDIT"
	Status         Field = "STATUS"
	Category       Field = "CATEGORY"
	Balance        Field = "BALANCE"
	DirectionMark  Field = "DIRECTION_MARK"
	OwnAccount     Field = "OWN_ACCOUNT"
	LineNo         Field = "LINE_NO"
)

// AllFields lists every known field in declaration order.
var AllFields = []Field{
	TxnID, MerchantRef, SettlementDate, TxnDate, TxnTime, Payee, Narration,
	Amount, AmountDebit, AmountCredit, Status, Category, Balance,
	DirectionMark, OwnAccount, LineNo,
}

// ParseField parses a field name case-insensitively.
func ParseField(s string) (Field, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, f := range AllFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Column references a CSV column either by header name or by zero-based index.
type Column struct {
	Name  string
	Index int
	named bool
}

// ByName references a column by its header name.
func ByName(name string) Column {
	return Column{Name: name, named: true}
}

// ByIndex references a column by position.
func ByIndex(index int) Column {
	return Column{Index: index}
}

// IsName reports whether the column is referenced by header name.
func (c Column) IsName() bool {
	return c.named
}

func (c Column) String() string {
	if c.named {
		return strconv.Quote(c.Name)
	}
	return strconv.Itoa(c.Index)
}

// UnmarshalYAML decodes an integer scalar as an index and anything else as a name.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: column must be a scalar", node.Line)
	}
	if node.Tag == "!!int" {
		idx, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: invalid column index %q: %w", node.Line, node.Value, err)
		}
		*c = ByIndex(idx)
		return nil
	}
	*c = ByName(node.Value)
	return nil
}

// Config is the raw field configuration of one statement format.
type Config map[Field]Column

// UnmarshalYAML accepts field names in any case.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]Column
	if err := node.Decode(&raw); err != nil {
		return err
	}
	out := make(Config, len(raw))
	for k, v := range raw {
		f, err := ParseField(k)
		if err != nil {
			return err
		}
		out[f] = v
	}
	*c = out
	return nil
}

// Fields returns the configured fields in a stable order.
func (c Config) Fields() []Field {
	fields := make([]Field, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// FieldMap is a resolved field to column index table.
type FieldMap map[Field]int

// Index returns the column index of a field and whether the field is configured.
func (m FieldMap) Index(f Field) (int, bool) {
	idx, ok := m[f]
	return idx, ok
}

// ErrConfig marks configuration errors.
var ErrConfig = errors.New("configuration error")

// ConfigError reports a field whose configuration cannot be resolved.
type ConfigError struct {
	Field  Field
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: field %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}
