// Package core provides money parsing and formatting utilities.
//
// Amounts are entered and displayed in the Brazilian convention: "." groups
// thousands and "," separates the two decimal digits ("1.520,00").
package core

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CurrencySymbol = "R$"
	// Placeholder is rendered in place of a missing amount.
	Placeholder = "—"
)

const nbsp = "\u00a0"

// ParseCurrencyInput converts user-typed text such as "1.520,00" to a decimal.
//
// Grouping dots are removed and the first decimal comma becomes a point.
// A leading currency symbol and surrounding spaces are tolerated so that
// formatted values parse back. Anything that still does not parse yields
// zero: callers treat unparsable input as a zero amount, not as an error, and
// must validate beforehand when they need to reject it.
//
// Examples:
//   ParseCurrencyInput("1.520,00")   -> 1520
//   ParseCurrencyInput("R$ 12,34")   -> 12.34
//   ParseCurrencyInput("abc")        -> 0
func ParseCurrencyInput(text string) decimal.Decimal {
	s := strings.ReplaceAll(text, nbsp, " ")
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, CurrencySymbol))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		return v.Neg()
	}
	return v
}

// FormatAmount renders v as "R$ 1.234,56" with exactly two fraction digits.
func FormatAmount(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	out := CurrencySymbol + nbsp + groupThousands(intPart) + "," + fracPart
	if v.Round(2).IsNegative() {
		return "-" + out
	}
	return out
}

// FormatCurrency is FormatAmount for optional values; nil renders the placeholder.
func FormatCurrency(v *decimal.Decimal) string {
	if v == nil {
		return Placeholder
	}
	return FormatAmount(*v)
}

// FormatFloat formats a float amount, rendering the placeholder for NaN and infinities.
func FormatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Placeholder
	}
	return FormatAmount(decimal.NewFromFloat(f))
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
