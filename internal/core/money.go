// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents. Parsing and formatting go through
// shopspring/decimal so that rounding is exact and half-up.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

const maxSafeCents = (1<<63 - 1) / 100

// Exponent bounds for parsed amounts. Rounding rescales to exponent zero, so
// anything outside this range is rejected before any arithmetic.
const (
	maxAmountExponent = 16
	minAmountExponent = -32
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero is accepted; negative values
// and anything that is not a number are rejected. Exponent notation is accepted
// only within a small exponent range.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("-1") -> 0, ErrInvalidAmount
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if d.IsZero() {
		return 0, nil
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(maxSafeCents)) {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// MustMoney builds Money from a decimal literal and panics on bad input.
// Intended for tests and constants.
func MustMoney(s string) Money {
	c, err := ParseDecimalToCents(s)
	if err != nil {
		panic(err)
	}
	return Money{Cents: c}
}

// Validate requires a strictly positive amount.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) IsNegative() bool { return m.Cents < 0 }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return ErrInvalidAmount
		}
	}
	cents, err := ParseDecimalToCents(raw)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
