// Package money is the single entry point for monetary arithmetic. All
// ledger and balance math routes through here; amounts are fixed-point
// decimals at scale 2 and are never handled as native floats.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every amount is kept at.
const Scale = 2

var ErrInvalidMonetaryValue = errors.New("invalid monetary value")

var valuePattern = regexp.MustCompile(`^[-+]?\d+(\.\d+)?$`)

// currency symbols for display formatting
var currencySymbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Parse converts a decimal string into a normalized amount. Thousand
// separators are tolerated; anything else malformed is rejected.
func Parse(value string) (decimal.Decimal, error) {
	sanitized := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if !valuePattern.MatchString(sanitized) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidMonetaryValue, value)
	}
	d, err := decimal.NewFromString(sanitized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidMonetaryValue, value)
	}
	return Normalize(d), nil
}

// FromFloat converts a float into a normalized amount, rejecting
// non-finite values.
func FromFloat(value float64) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, fmt.Errorf("%w: value must be finite", ErrInvalidMonetaryValue)
	}
	return Normalize(decimal.NewFromFloat(value)), nil
}

// Normalize rounds to scale 2, half-up on the first excluded digit.
func Normalize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FormatForStorage renders an amount as the canonical 2dp string used for
// the encrypted balance field.
func FormatForStorage(d decimal.Decimal) string {
	return Normalize(d).StringFixed(Scale)
}

// FormatForDisplay renders an amount as a grouped currency string,
// e.g. "₦1,500.75".
func FormatForDisplay(d decimal.Decimal, currency string) string {
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency + " "
	}

	fixed := Normalize(d).StringFixed(Scale)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	parts := strings.SplitN(fixed, ".", 2)
	return sign + symbol + groupDigits(parts[0]) + "." + parts[1]
}

// ToMinorUnits converts an amount to integer cents. The amount is
// normalized first, so the shift itself is exact.
func ToMinorUnits(d decimal.Decimal) int64 {
	return Normalize(d).Shift(Scale).IntPart()
}

// FromMinorUnits converts integer cents back to an amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
