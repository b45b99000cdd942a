// Package core provides the domain primitives shared by storage, services and
// the HTTP layer.
//
// This file contains the Money type. Amounts are held as integer minor units
// (two decimal places) so sums and comparisons are exact; decimal text is only
// used at the edges (JSON, query strings, alert messages).
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money is an exact amount with two decimal places, stored in cents.
type Money struct {
	Cents int64
}

var maxMoney = decimal.New(1<<63-1, -2)

// Zero is the additive identity; sums over empty sets return it.
var Zero = Money{}

// MoneyFromDecimal converts a decimal to Money, rounding half-up on the third
// decimal place.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	r := d.Round(2)
	if r.Abs().GreaterThan(maxMoney) {
		return Money{}, fmt.Errorf("%w: amount out of range", ErrInvalidArgument)
	}
	return Money{Cents: r.Shift(2).IntPart()}, nil
}

// ParseMoney parses a decimal string. Both dot (12.34) and comma (12,34)
// decimal separators are accepted.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents (half-up)
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// Decimal returns the amount as a decimal with two places.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) GreaterThan(o Money) bool { return m.Cents > o.Cents }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Validate reports ErrInvalidAmount unless the amount is strictly positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String returns the plain decimal form, e.g. "400000.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format returns the amount with a thousands separator and exactly two
// decimal places, e.g. "400,000.00".
func (m Money) Format() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(cents/100), cents%100)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return errors.Join(ErrInvalidAmount, err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
