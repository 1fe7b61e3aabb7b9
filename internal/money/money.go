// Package money converts between user-entered rand amounts and integer cents.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vouchersplit/backend/internal/errs"
)

// ParseToCents converts a decimal string such as "12.50" or "12,5" to cents.
// An empty (or all-whitespace) input is 0, meaning unset. Values are rounded
// half away from zero to the nearest cent.
func ParseToCents(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")

	if strings.HasPrefix(s, "-") {
		return 0, errs.Markf(errs.ErrParse, "negative amount %q", input)
	}
	if strings.Count(s, ".") > 1 {
		return 0, errs.Markf(errs.ErrParse, "amount %q has more than one decimal point", input)
	}

	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		default:
			return 0, errs.Markf(errs.ErrParse, "invalid character %q in amount %q", r, input)
		}
	}
	if digits == 0 {
		return 0, errs.Markf(errs.ErrParse, "amount %q has no digits", input)
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errs.Mark(errs.Wrapf(err, "parse amount %q", input), errs.ErrParse)
	}

	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, errs.Markf(errs.ErrParse, "amount %q out of range", input)
	}
	return cents.IntPart(), nil
}

// MaxCents is the largest amount accepted anywhere. It keeps values well
// inside int64 so sums of a bounded number of slots cannot overflow.
const MaxCents = 1 << 53

// FormatCents renders cents with exactly two decimals and no separators.
// Negative input is a programming error.
func FormatCents(cents int64) string {
	if cents < 0 {
		panic(fmt.Sprintf("money: FormatCents called with negative value %d", cents))
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// FormatRand is FormatCents with the currency prefix, e.g. "R25.00".
func FormatRand(cents int64) string {
	return "R" + FormatCents(cents)
}

// FormatSigned formats a possibly negative amount such as a remaining
// balance, e.g. "-R0.01" when over-allocated.
func FormatSigned(cents int64) string {
	if cents < 0 {
		return "-" + FormatRand(-cents)
	}
	return FormatRand(cents)
}
