// Package money implements the fixed-point amount type used throughout the
// accounting core. Amounts are stored as int64 minor units (cents); binary
// floating point is never used for monetary arithmetic. Rounding, where a
// computation produces sub-minor-unit precision, is half away from zero at
// two decimal places.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyKES Currency = "KES"
	CurrencyUSD Currency = "USD"
)

// minorUnitScale is the number of decimal places in one major unit.
const minorUnitScale = 2

var minorUnitFactor = decimal.New(1, minorUnitScale)

// Money is an exact amount in minor units of a single currency.
// The zero value is zero units of the empty currency and compares equal to
// any zero amount via IsZero.
type Money struct {
	Units    int64    `json:"units"`
	Currency Currency `json:"currency"`
}

func New(units int64, currency Currency) Money {
	return Money{Units: units, Currency: currency}
}

func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

// FromDecimal converts a major-unit decimal into Money, rounding half away
// from zero to minor-unit precision.
func FromDecimal(d decimal.Decimal, currency Currency) Money {
	return Money{
		Units:    d.Mul(minorUnitFactor).Round(0).IntPart(),
		Currency: currency,
	}
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Units, -minorUnitScale)
}

func (m Money) IsZero() bool     { return m.Units == 0 }
func (m Money) IsPositive() bool { return m.Units > 0 }
func (m Money) IsNegative() bool { return m.Units < 0 }

// sameCurrency panics on mismatch: the core runs in a single base currency
// and mixing currencies in arithmetic is a programming error, not a
// recoverable condition.
func (m Money) sameCurrency(other Money) {
	if m.Currency != other.Currency && !m.IsZero() && !other.IsZero() {
		panic(fmt.Sprintf("money: currency mismatch: %s vs %s", m.Currency, other.Currency))
	}
}

func (m Money) currencyOr(other Money) Currency {
	if m.Currency != "" {
		return m.Currency
	}
	return other.Currency
}

func (m Money) Add(other Money) Money {
	m.sameCurrency(other)
	return Money{Units: m.Units + other.Units, Currency: m.currencyOr(other)}
}

func (m Money) Sub(other Money) Money {
	m.sameCurrency(other)
	return Money{Units: m.Units - other.Units, Currency: m.currencyOr(other)}
}

func (m Money) Neg() Money {
	return Money{Units: -m.Units, Currency: m.Currency}
}

// Cmp returns -1, 0 or +1 comparing m against other.
func (m Money) Cmp(other Money) int {
	m.sameCurrency(other)
	switch {
	case m.Units < other.Units:
		return -1
	case m.Units > other.Units:
		return 1
	default:
		return 0
	}
}

func (m Money) LessThan(other Money) bool    { return m.Cmp(other) < 0 }
func (m Money) GreaterThan(other Money) bool { return m.Cmp(other) > 0 }
func (m Money) Equal(other Money) bool       { return m.Cmp(other) == 0 }

func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// MulBasisPoints applies a rate expressed in basis points (100 bps = 1%),
// rounding the result half away from zero to minor units.
func (m Money) MulBasisPoints(bps int64) Money {
	d := m.Decimal().Mul(decimal.New(bps, -4))
	return FromDecimal(d, m.Currency)
}

// DivInt splits the amount into n equal parts, rounding half away from zero;
// callers that need the parts to sum exactly assign the residual to one part.
func (m Money) DivInt(n int64) Money {
	d := m.Decimal().Div(decimal.NewFromInt(n))
	return FromDecimal(d.Round(minorUnitScale), m.Currency)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(minorUnitScale), m.Currency)
}
