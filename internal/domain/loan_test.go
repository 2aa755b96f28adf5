package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoanCanTransitionTo(t *testing.T) {
	tests := []struct {
		from LoanStatus
		to   LoanStatus
		want bool
	}{
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusPending, LoanStatusReassess, true},
		{LoanStatusPending, LoanStatusActive, false}, // approval has its own path
		{LoanStatusPending, LoanStatusCompleted, false},
		{LoanStatusReassess, LoanStatusPending, true},
		{LoanStatusReassess, LoanStatusRejected, true},
		{LoanStatusReassess, LoanStatusActive, false},
		{LoanStatusActive, LoanStatusDefaulted, true},
		{LoanStatusActive, LoanStatusCompleted, false}, // completion is driven by settlement
		{LoanStatusCompleted, LoanStatusActive, false},
		{LoanStatusRejected, LoanStatusPending, false},
		{LoanStatusDefaulted, LoanStatusActive, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			loan := &Loan{Status: tc.from}
			assert.Equal(t, tc.want, loan.CanTransitionTo(tc.to))
		})
	}
}

func TestLoanSettlement(t *testing.T) {
	loan := &Loan{
		OutstandingPrincipal: kes(1000),
		OutstandingInterest:  kes(200),
		OutstandingPenalty:   kes(50),
	}

	assert.Equal(t, kes(1250), loan.TotalOutstanding())
	assert.False(t, loan.IsSettled())

	loan.OutstandingPrincipal = kes(0)
	loan.OutstandingInterest = kes(0)
	loan.OutstandingPenalty = kes(0)
	assert.True(t, loan.IsSettled())
}

func TestAccountCategorySignedDelta(t *testing.T) {
	tests := []struct {
		category AccountCategory
		debit    int64
		credit   int64
		want     int64
	}{
		{AccountCategoryAsset, 1000, 0, 1000},
		{AccountCategoryAsset, 0, 1000, -1000},
		{AccountCategoryExpense, 1000, 0, 1000},
		{AccountCategoryLiability, 0, 1000, 1000},
		{AccountCategoryEquity, 0, 1000, 1000},
		{AccountCategoryIncome, 0, 1000, 1000},
		{AccountCategoryIncome, 1000, 0, -1000},
	}

	for _, tc := range tests {
		t.Run(string(tc.category), func(t *testing.T) {
			got := tc.category.SignedDelta(kes(tc.debit), kes(tc.credit))
			assert.Equal(t, tc.want, got.Units)
		})
	}
}
