package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopesha/loan-core/internal/money"
)

func kes(units int64) money.Money {
	return money.New(units, money.CurrencyKES)
}

func TestJournalEntryValidate(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		lines   []JournalLine
		wantErr error
	}{
		{
			name: "balanced two-line entry",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(1000)},
				{AccountID: b, Credit: kes(1000)},
			},
		},
		{
			name: "balanced multi-line entry",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(1000)},
				{AccountID: b, Credit: kes(700)},
				{AccountID: b, Credit: kes(300)},
			},
		},
		{
			name: "unequal totals",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(1000)},
				{AccountID: b, Credit: kes(999)},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name: "line with both sides set",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(1000), Credit: kes(1000)},
				{AccountID: b, Credit: kes(0), Debit: kes(1000)},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name: "line with neither side set",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(1000)},
				{AccountID: b},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name: "negative amount",
			lines: []JournalLine{
				{AccountID: a, Debit: kes(-1000)},
				{AccountID: b, Credit: kes(-1000)},
			},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name:    "single line",
			lines:   []JournalLine{{AccountID: a, Debit: kes(1000)}},
			wantErr: ErrUnbalancedEntry,
		},
		{
			name:    "no lines",
			wantErr: ErrUnbalancedEntry,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry := &JournalEntry{Lines: tc.lines}
			err := entry.Validate()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestJournalEntryMirror(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entry := &JournalEntry{Lines: []JournalLine{
		{AccountID: a, Debit: kes(1000), Position: 0},
		{AccountID: b, Credit: kes(1000), Position: 1},
	}}

	mirrored := entry.Mirror()
	require.Len(t, mirrored, 2)

	assert.Equal(t, a, mirrored[0].AccountID)
	assert.Equal(t, kes(1000), mirrored[0].Credit)
	assert.True(t, mirrored[0].Debit.IsZero())

	assert.Equal(t, b, mirrored[1].AccountID)
	assert.Equal(t, kes(1000), mirrored[1].Debit)
	assert.True(t, mirrored[1].Credit.IsZero())

	// A mirrored balanced entry is itself balanced.
	contra := &JournalEntry{Lines: mirrored}
	require.NoError(t, contra.Validate())
}
