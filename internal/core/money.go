// Package core provides money parsing and handling utilities.
//
// This file contains the Money type used for every amount in the store and
// the parser for user-entered amount strings.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest amount accepted for a single expense or goal.
var MaxAmount = decimal.NewFromInt(10_000_000)

// Money is a decimal amount. It is stored as REAL in SQLite and encoded as a
// bare JSON number so backups stay compatible with the historical format.
type Money struct {
	decimal.Decimal
}

// NewMoney builds a Money from a float, mostly for tests and fixtures.
func NewMoney(v float64) Money {
	return Money{decimal.NewFromFloat(v)}
}

func MoneyFromInt(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// Plus returns m + o.
func (m Money) Plus(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

// Minus returns m - o.
func (m Money) Minus(o Money) Money {
	return Money{m.Decimal.Sub(o.Decimal)}
}

// Rounded returns the amount rounded half-up to two decimal places.
func (m Money) Rounded() Money {
	return Money{m.Decimal.Round(2)}
}

func (m Money) Float() float64 {
	return m.Decimal.InexactFloat64()
}

// Validate checks that the amount is strictly positive and within MaxAmount.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	if m.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// MarshalJSON encodes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// ParseAmount converts user input to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// grouping characters and anything that is not a plain decimal number are
// rejected. Zero and negative amounts are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,5")  -> 12.5, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{d}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}
