// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and formatting them for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxAmountFracDigits is the finest precision an amount may carry.
	MaxAmountFracDigits = 2
	// MaxAmountIntDigits bounds the integer part so a single entry cannot
	// blow up the scale of every balance computed afterwards.
	MaxAmountIntDigits = 12
)

// ParseAmount converts a plain decimal string to a positive amount.
//
// Only digits and a single separator are allowed: no signs, exponents or
// thousands grouping. A comma is read as the decimal separator, so it must
// be followed by at most two digits; "1,000" is rejected rather than read
// as one.
//
// Examples:
//   ParseAmount("12.34") -> 12.34, nil
//   ParseAmount("12,34") -> 12.34, nil
//   ParseAmount("1,000") -> 0, ErrInvalidAmount
//   ParseAmount("1e3")   -> 0, ErrInvalidAmount
//   ParseAmount("0")     -> 0, ErrInvalidAmount
//   ParseAmount("-50")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	intPart, fracPart, hasSep := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasSep && fracPart == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if len(intPart) > MaxAmountIntDigits || len(fracPart) > MaxAmountFracDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return decimal.Zero, ErrInvalidAmount
	}

	if hasSep {
		intPart += "." + fracPart
	}
	d, err := decimal.NewFromString(intPart)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatMoney renders an amount with two decimals and comma thousands
// separators, e.g. FormatMoney(d, "₹") -> "₹1,234.50" or "-₹12.00".
func FormatMoney(d decimal.Decimal, symbol string) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := symbol + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
