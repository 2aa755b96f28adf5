// Package allocation splits an incoming payment across a loan's outstanding
// penalty, interest and principal buckets. The split is a pure function over
// (outstanding, amount); persisting the result and posting the matching
// journal entry happen elsewhere, in the same transaction.
package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

// Outstanding is a snapshot of a loan's unpaid buckets.
type Outstanding struct {
	Principal money.Money
	Interest  money.Money
	Penalty   money.Money
}

func (o Outstanding) Total() money.Money {
	return o.Principal.Add(o.Interest).Add(o.Penalty)
}

func (o Outstanding) IsSettled() bool {
	return o.Principal.IsZero() && o.Interest.IsZero() && o.Penalty.IsZero()
}

// Result is the outcome of allocating one payment.
type Result struct {
	PenaltyPaid   money.Money
	InterestPaid  money.Money
	PrincipalPaid money.Money
	Remaining     Outstanding
	Settled       bool
}

// Allocator applies the fixed waterfall: penalty first, then interest, then
// principal. tolerancePct bounds accepted overpayment; a payment of up to
// (100+tolerancePct)% of the total outstanding is accepted with the excess
// applied to principal, anything beyond is rejected.
type Allocator struct {
	tolerancePct int64
}

func New(tolerancePct int64) *Allocator {
	if tolerancePct < 0 {
		tolerancePct = 0
	}
	return &Allocator{tolerancePct: tolerancePct}
}

func (a *Allocator) maxAccepted(total money.Money) money.Money {
	factor := decimal.NewFromInt(100 + a.tolerancePct).Div(decimal.NewFromInt(100))
	return money.FromDecimal(total.Decimal().Mul(factor), total.Currency)
}

// Allocate splits amount across the outstanding buckets.
func (a *Allocator) Allocate(out Outstanding, amount money.Money) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, fmt.Errorf("allocation.Allocate: %w", domain.ErrInvalidAmount)
	}

	total := out.Total()
	if amount.GreaterThan(a.maxAccepted(total)) {
		return Result{}, fmt.Errorf("allocation.Allocate: paid %s against outstanding %s: %w",
			amount, total, domain.ErrOverpaymentRejected)
	}

	remaining := amount

	penaltyPaid := money.Min(remaining, out.Penalty)
	remaining = remaining.Sub(penaltyPaid)

	interestPaid := money.Min(remaining, out.Interest)
	remaining = remaining.Sub(interestPaid)

	// Whatever is left, tolerated excess included, goes to principal.
	principalPaid := remaining

	res := Result{
		PenaltyPaid:   penaltyPaid,
		InterestPaid:  interestPaid,
		PrincipalPaid: principalPaid,
		Remaining: Outstanding{
			Penalty:  out.Penalty.Sub(penaltyPaid),
			Interest: out.Interest.Sub(interestPaid),
			Principal: maxZero(out.Principal.Sub(principalPaid)),
		},
	}
	res.Settled = res.Remaining.IsSettled()
	return res, nil
}

func maxZero(m money.Money) money.Money {
	if m.IsNegative() {
		return money.Zero(m.Currency)
	}
	return m
}
