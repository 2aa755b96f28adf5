package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

func kes(units int64) money.Money {
	return money.New(units, money.CurrencyKES)
}

func TestComputeFlat(t *testing.T) {
	// 100,000.00 at 5% per period over 6 periods.
	sched, err := Compute(kes(10000000), 500, 6, domain.InterestTypeFlat)
	require.NoError(t, err)

	assert.Equal(t, kes(3000000), sched.TotalInterest, "total interest should be 30,000.00")
	assert.Equal(t, kes(13000000), sched.TotalPayable)
	assert.Equal(t, kes(2166667), sched.MonthlyInstallment, "installment should be 21,666.67")
	require.Len(t, sched.Entries, 6)

	// First five periods carry the rounded per-period split.
	for _, e := range sched.Entries[:5] {
		assert.Equal(t, kes(1666667), e.PrincipalDue, "period %d", e.Period)
		assert.Equal(t, kes(500000), e.InterestDue, "period %d", e.Period)
	}

	// Final period absorbs the residual so the totals close exactly.
	last := sched.Entries[5]
	assert.Equal(t, kes(1666665), last.PrincipalDue)
	assert.Equal(t, kes(500000), last.InterestDue)
	assert.True(t, last.ClosingBalance.IsZero())

	assertScheduleSums(t, sched, kes(10000000))
}

func TestComputeReducing(t *testing.T) {
	sched, err := Compute(kes(10000000), 500, 6, domain.InterestTypeReducing)
	require.NoError(t, err)
	require.Len(t, sched.Entries, 6)

	// Annuity on 100,000.00 at 5% over 6 periods is 19,701.75.
	assert.Equal(t, kes(1970175), sched.MonthlyInstallment)

	// First period interest is on the full balance.
	assert.Equal(t, kes(500000), sched.Entries[0].InterestDue)

	// Interest declines with the balance.
	for i := 1; i < len(sched.Entries); i++ {
		assert.True(t, sched.Entries[i].InterestDue.LessThan(sched.Entries[i-1].InterestDue),
			"period %d interest should be below period %d", i+1, i)
	}

	last := sched.Entries[len(sched.Entries)-1]
	assert.True(t, last.ClosingBalance.IsZero(), "final closing balance must be exactly zero")

	assertScheduleSums(t, sched, kes(10000000))
}

func TestComputeReducingZeroRate(t *testing.T) {
	sched, err := Compute(kes(10000000), 0, 6, domain.InterestTypeReducing)
	require.NoError(t, err)

	assert.True(t, sched.TotalInterest.IsZero())
	assert.Equal(t, kes(10000000), sched.TotalPayable)
	assertScheduleSums(t, sched, kes(10000000))
}

func TestComputeSinglePeriod(t *testing.T) {
	sched, err := Compute(kes(10000000), 500, 1, domain.InterestTypeFlat)
	require.NoError(t, err)

	require.Len(t, sched.Entries, 1)
	assert.Equal(t, kes(10000000), sched.Entries[0].PrincipalDue)
	assert.Equal(t, kes(500000), sched.Entries[0].InterestDue)
	assert.True(t, sched.Entries[0].ClosingBalance.IsZero())
}

func TestComputeInvalidInput(t *testing.T) {
	tests := []struct {
		name         string
		principal    money.Money
		rateBps      int64
		term         int
		interestType domain.InterestType
		wantErr      error
	}{
		{name: "zero term", principal: kes(10000000), rateBps: 500, term: 0, interestType: domain.InterestTypeFlat, wantErr: domain.ErrInvalidTerm},
		{name: "negative term", principal: kes(10000000), rateBps: 500, term: -3, interestType: domain.InterestTypeFlat, wantErr: domain.ErrInvalidTerm},
		{name: "zero principal", principal: kes(0), rateBps: 500, term: 6, interestType: domain.InterestTypeFlat, wantErr: domain.ErrInvalidAmount},
		{name: "negative principal", principal: kes(-100), rateBps: 500, term: 6, interestType: domain.InterestTypeFlat, wantErr: domain.ErrInvalidAmount},
		{name: "negative rate", principal: kes(10000000), rateBps: -1, term: 6, interestType: domain.InterestTypeFlat, wantErr: domain.ErrInvalidRequest},
		{name: "unknown interest type", principal: kes(10000000), rateBps: 500, term: 6, interestType: domain.InterestType("balloon"), wantErr: domain.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.principal, tc.rateBps, tc.term, tc.interestType)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

// assertScheduleSums checks the closing invariants shared by both methods:
// scheduled principal sums to the principal, installments equal principal
// plus interest per period, and the totals agree with the entries.
func assertScheduleSums(t *testing.T, sched *Schedule, principal money.Money) {
	t.Helper()

	principalSum := money.Zero(principal.Currency)
	interestSum := money.Zero(principal.Currency)
	for _, e := range sched.Entries {
		assert.Equal(t, e.PrincipalDue.Add(e.InterestDue), e.Installment, "period %d", e.Period)
		principalSum = principalSum.Add(e.PrincipalDue)
		interestSum = interestSum.Add(e.InterestDue)
	}

	assert.Equal(t, principal, principalSum, "scheduled principal must sum to the loan principal")
	assert.Equal(t, sched.TotalInterest, interestSum)
	assert.Equal(t, principal.Add(sched.TotalInterest), sched.TotalPayable)
}
