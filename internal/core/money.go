// Package core provides the ledger's value types, money handling and error kinds.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrencySymbol is prefixed to amounts rendered for people.
const DefaultCurrencySymbol = "₦"

var amountPrinter = message.NewPrinter(language.English)

// ParseAmount parses a finite, non-negative decimal. Surrounding spaces are
// ignored and a single decimal comma is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount that also rejects zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// CoerceAmount never fails: non-numeric input becomes zero and negatives are clamped.
func CoerceAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return ClampZero(d)
}

// ClampZero returns max(0, d).
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders d with two decimals and thousands grouping, e.g. "1,234.50".
func FormatAmount(d decimal.Decimal) string {
	rounded := d.Round(2)
	neg := rounded.IsNegative()
	whole := rounded.Abs().Truncate(0)
	frac := rounded.Abs().Sub(whole).Shift(2).IntPart()

	out := amountPrinter.Sprintf("%d", whole.IntPart()) + fmt.Sprintf(".%02d", frac)
	if neg {
		return "-" + out
	}
	return out
}

// FormatCurrency prefixes FormatAmount with symbol.
func FormatCurrency(symbol string, d decimal.Decimal) string {
	s := FormatAmount(d)
	if strings.HasPrefix(s, "-") {
		return "-" + symbol + s[1:]
	}
	return symbol + s
}
