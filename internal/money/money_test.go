package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantUnits int64
	}{
		{name: "exact", input: "100.00", wantUnits: 10000},
		{name: "rounds half up", input: "0.125", wantUnits: 13},
		{name: "rounds half away from zero when negative", input: "-0.125", wantUnits: -13},
		{name: "rounds down below half", input: "0.124", wantUnits: 12},
		{name: "zero", input: "0", wantUnits: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := FromDecimal(decimal.RequireFromString(tc.input), CurrencyKES)
			assert.Equal(t, tc.wantUnits, m.Units)
			assert.Equal(t, CurrencyKES, m.Currency)
		})
	}
}

func TestAddSub(t *testing.T) {
	a := New(1500, CurrencyKES)
	b := New(500, CurrencyKES)

	assert.Equal(t, New(2000, CurrencyKES), a.Add(b))
	assert.Equal(t, New(1000, CurrencyKES), a.Sub(b))
	assert.Equal(t, New(-1000, CurrencyKES), b.Sub(a))
}

func TestArithmeticWithZeroValue(t *testing.T) {
	// The zero Money has no currency; arithmetic adopts the other operand's.
	var zero Money
	a := New(100, CurrencyKES)

	sum := zero.Add(a)
	assert.Equal(t, int64(100), sum.Units)
	assert.Equal(t, CurrencyKES, sum.Currency)
}

func TestCurrencyMismatchPanics(t *testing.T) {
	a := New(100, CurrencyKES)
	b := New(100, CurrencyUSD)

	assert.Panics(t, func() { a.Add(b) })
	assert.Panics(t, func() { a.Sub(b) })
	assert.Panics(t, func() { a.Cmp(b) })
}

func TestMulBasisPoints(t *testing.T) {
	tests := []struct {
		name      string
		units     int64
		bps       int64
		wantUnits int64
	}{
		{name: "5 percent of 100000.00", units: 10000000, bps: 500, wantUnits: 500000},
		{name: "zero rate", units: 10000000, bps: 0, wantUnits: 0},
		{name: "rounds half away from zero", units: 1250, bps: 100, wantUnits: 13},
		{name: "one basis point", units: 1000000, bps: 1, wantUnits: 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := New(tc.units, CurrencyKES).MulBasisPoints(tc.bps)
			assert.Equal(t, tc.wantUnits, got.Units)
		})
	}
}

func TestDivInt(t *testing.T) {
	// 130000.00 / 6 = 21666.666..., rounds to 21666.67.
	got := New(13000000, CurrencyKES).DivInt(6)
	assert.Equal(t, int64(2166667), got.Units)
}

func TestComparisons(t *testing.T) {
	a := New(100, CurrencyKES)
	b := New(200, CurrencyKES)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.Equal(New(100, CurrencyKES)))
	assert.Equal(t, a, Min(a, b))
	assert.Equal(t, a, Min(b, a))
}

func TestString(t *testing.T) {
	require.Equal(t, "21666.67 KES", New(2166667, CurrencyKES).String())
	require.Equal(t, "-0.05 KES", New(-5, CurrencyKES).String())
}
