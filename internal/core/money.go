// Package core provides money parsing and formatting utilities.
//
// Amounts are float64 throughout the ledger; decimal is used only at the
// edges, to parse user input and to render two-decimal strings.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "R$"

// ParseAmount converts a user-typed decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs, zero, and anything that is not a plain decimal number are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.ContainsAny(s, "eE") {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	v, _ := d.Float64()
	if !validAmount(v) {
		return 0, invalid("amount", ErrInvalidAmount)
	}
	return v, nil
}

// ParseGoalValue is ParseAmount for goals, where zero is allowed.
func ParseGoalValue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, invalid("goal", ErrInvalidGoal)
	}
	v, _ := d.Float64()
	return v, ValidateGoal(v)
}

// FixedAmount renders v with exactly two decimals.
func FixedAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatAmount renders v for display, e.g. "R$ 1234.50" or "R$ -3.00".
func FormatAmount(v float64) string {
	return CurrencySymbol + " " + FixedAmount(v)
}
