// Package core holds the wallet domain: money parsing, transactions, goals
// and the pure aggregations the dashboard is projected from.
//
// Amounts travel as display strings with a leading sign and currency marker
// ("-₹500", "+₹1,250.50"). This file converts between those strings and the
// integer paise representation used for all arithmetic.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in paise. Negative values are expenses.
type Money struct {
	Paise int64
}

// ParseAmount converts a signed display string to Money.
//
// Accepted forms: optional leading + or -, optional "₹" or "Rs." marker,
// thousands separators, and up to two decimal places with half-up rounding
// on the third. A bare number parses as positive.
//
// Examples:
//
//	ParseAmount("-₹500")      -> {-50000}, nil
//	ParseAmount("+₹1,250.50") -> {125050}, nil
//	ParseAmount("Rs. 20")     -> {2000}, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	// Strip the currency marker and separators.
	s = strings.TrimSpace(strings.TrimPrefix(s, "Rs."))
	s = strings.ReplaceAll(s, "₹", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Money{}, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var fracPaise int64
	if len(fracPart) > 0 {
		fracPaise = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPaise += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}

	paise := iv*100 + fracPaise
	if negative {
		paise = -paise
	}
	return Money{Paise: paise}, nil
}

// RupeesFromInt builds a Money from whole rupees.
func RupeesFromInt(r int64) Money {
	return Money{Paise: r * 100}
}

// Abs returns the magnitude of the amount.
func (m Money) Abs() Money {
	if m.Paise < 0 {
		return Money{Paise: -m.Paise}
	}
	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Paise: m.Paise + other.Paise}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Paise: m.Paise - other.Paise}
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Paise: -m.Paise}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Paise == 0
}

// Rupees returns the rupee value as a float64 for display purposes.
// Use paise for calculations to avoid floating-point precision issues.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// Display renders the amount as a signed string with the rupee glyph,
// the form transaction amount strings are stored in. Whole-rupee amounts
// omit the decimals.
func (m Money) Display() string {
	sign := "+"
	p := m.Paise
	if p < 0 {
		sign = "-"
		p = -p
	}
	if p%100 == 0 {
		return fmt.Sprintf("%s₹%d", sign, p/100)
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, p/100, p%100)
}

// DisplayPlain renders the magnitude without sign or glyph ("500", "1250.50"),
// the form used in CSV exports.
func (m Money) DisplayPlain() string {
	p := m.Paise
	if p < 0 {
		p = -p
	}
	if p%100 == 0 {
		return strconv.FormatInt(p/100, 10)
	}
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// DisplayASCII renders the amount with the "Rs." prefix used in PDF output,
// where the rupee glyph would trip over font encoding.
func (m Money) DisplayASCII() string {
	sign := ""
	p := m.Paise
	if p < 0 {
		sign = "-"
		p = -p
	}
	if p%100 == 0 {
		return fmt.Sprintf("%sRs. %d", sign, p/100)
	}
	return fmt.Sprintf("%sRs. %d.%02d", sign, p/100, p%100)
}
