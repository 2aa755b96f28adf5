package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/money"
)

// Repayment records one payment event against a loan. AmountPaid always
// equals PenaltyPaid + InterestPaid + PrincipalPaid by construction. The row
// is immutable after insert except for the Reversed flag, which may be set
// exactly once and never cleared.
type Repayment struct {
	ID            uuid.UUID
	LoanID        uuid.UUID
	AmountPaid    money.Money
	PrincipalPaid money.Money
	InterestPaid  money.Money
	PenaltyPaid   money.Money
	PaymentDate   time.Time
	Reversed      bool
	CreatedAt     time.Time
}
