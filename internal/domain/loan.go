package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/money"
)

type InterestType string

const (
	InterestTypeFlat     InterestType = "flat"
	InterestTypeReducing InterestType = "reducing"
)

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusReassess  LoanStatus = "reassess"
)

// Loan terms are fixed at creation; MonthlyInstallment and TotalPayable are
// computed once at approval and never change afterwards. The three
// outstanding balances are mutated only by repayment allocation and reversal,
// always inside the same transaction as the matching journal entry.
type Loan struct {
	ID                  uuid.UUID
	BorrowerName        string
	Principal           money.Money
	InterestRateBps     int64 // basis points per period
	InterestType        InterestType
	TermPeriods         int
	DisbursementDate    *time.Time
	Status              LoanStatus
	OutstandingPrincipal money.Money
	OutstandingInterest  money.Money
	OutstandingPenalty   money.Money
	MonthlyInstallment   money.Money
	TotalPayable         money.Money
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TotalOutstanding is the sum of the three outstanding buckets.
func (l *Loan) TotalOutstanding() money.Money {
	return l.OutstandingPrincipal.Add(l.OutstandingInterest).Add(l.OutstandingPenalty)
}

// IsSettled reports whether every outstanding bucket has reached zero.
func (l *Loan) IsSettled() bool {
	return l.OutstandingPrincipal.IsZero() &&
		l.OutstandingInterest.IsZero() &&
		l.OutstandingPenalty.IsZero()
}

// CanTransitionTo enforces the loan status machine. Approval
// (pending -> active) goes through its own disbursement path and is excluded
// here on purpose.
func (l *Loan) CanTransitionTo(next LoanStatus) bool {
	switch l.Status {
	case LoanStatusPending:
		return next == LoanStatusRejected || next == LoanStatusReassess
	case LoanStatusReassess:
		return next == LoanStatusPending || next == LoanStatusRejected
	case LoanStatusActive:
		return next == LoanStatusDefaulted
	default:
		return false
	}
}
