package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var numeral = regexp.MustCompile(`\d+\.?\d*`)

// ParseAmount extracts the single numeral of an amount cell such as
// "¥1,200.00". The boolean is false when the cell is empty, or zero and
// allowZero is not set. Cells with no numeral or several are malformed.
func ParseAmount(cell string, allowZero bool) (decimal.Decimal, bool, error) {
	if cell == "" {
		return decimal.Zero, false, nil
	}

	cleaned := strings.ReplaceAll(cell, ",", "")
	numbers := numeral.FindAllString(cleaned, -1)
	if len(numbers) != 1 {
		return decimal.Zero, false, fmt.Errorf("%w: amount %q has %d numerals", ErrMalformedRow, cell, len(numbers))
	}

	amount, err := decimal.NewFromString(strings.TrimSuffix(numbers[0], "."))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: amount %q: %v", ErrMalformedRow, cell, err)
	}

	if amount.IsZero() && !allowZero {
		return decimal.Zero, false, nil
	}
	return amount, true, nil
}
