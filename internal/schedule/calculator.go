// Package schedule computes repayment schedules from loan terms. The
// calculation is pure: identical inputs always yield an identical schedule,
// so schedules are recomputed on demand rather than stored as mutable state.
package schedule

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

// Entry is one period of an amortization schedule.
type Entry struct {
	Period         int         `json:"period"`
	PrincipalDue   money.Money `json:"principal_due"`
	InterestDue    money.Money `json:"interest_due"`
	Installment    money.Money `json:"installment"`
	ClosingBalance money.Money `json:"closing_balance"`
}

// Schedule is the full output of the calculator: the per-period entries plus
// the totals frozen onto the loan at approval.
type Schedule struct {
	Entries            []Entry     `json:"entries"`
	MonthlyInstallment money.Money `json:"monthly_installment"`
	TotalInterest      money.Money `json:"total_interest"`
	TotalPayable       money.Money `json:"total_payable"`
}

// Compute builds the schedule for the given terms. rateBps is the interest
// rate in basis points per period (500 = 5%). The final period absorbs any
// rounding residual so that scheduled principal sums to the principal exactly
// and, for reducing balance, the closing balance reaches exactly zero.
func Compute(principal money.Money, rateBps int64, termPeriods int, interestType domain.InterestType) (*Schedule, error) {
	if termPeriods < 1 {
		return nil, fmt.Errorf("schedule.Compute: %w", domain.ErrInvalidTerm)
	}
	if !principal.IsPositive() {
		return nil, fmt.Errorf("schedule.Compute: %w", domain.ErrInvalidAmount)
	}
	if rateBps < 0 {
		return nil, fmt.Errorf("schedule.Compute: negative rate: %w", domain.ErrInvalidRequest)
	}

	switch interestType {
	case domain.InterestTypeFlat:
		return computeFlat(principal, rateBps, termPeriods), nil
	case domain.InterestTypeReducing:
		return computeReducing(principal, rateBps, termPeriods), nil
	default:
		return nil, fmt.Errorf("schedule.Compute: unknown interest type %q: %w", interestType, domain.ErrInvalidRequest)
	}
}

// computeFlat applies the rate to the original principal every period.
func computeFlat(principal money.Money, rateBps int64, term int) *Schedule {
	n := int64(term)
	totalInterest := principal.MulBasisPoints(rateBps * n)
	totalPayable := principal.Add(totalInterest)

	installment := totalPayable.DivInt(n)
	principalPerPeriod := principal.DivInt(n)
	interestPerPeriod := totalInterest.DivInt(n)

	entries := make([]Entry, 0, term)
	balance := principal
	var principalPaid, interestPaid money.Money

	for period := 1; period <= term; period++ {
		principalDue := principalPerPeriod
		interestDue := interestPerPeriod
		if period == term {
			// Final period absorbs the rounding residual.
			principalDue = principal.Sub(principalPaid)
			interestDue = totalInterest.Sub(interestPaid)
		}
		principalPaid = principalPaid.Add(principalDue)
		interestPaid = interestPaid.Add(interestDue)
		balance = balance.Sub(principalDue)

		entries = append(entries, Entry{
			Period:         period,
			PrincipalDue:   principalDue,
			InterestDue:    interestDue,
			Installment:    principalDue.Add(interestDue),
			ClosingBalance: balance,
		})
	}

	return &Schedule{
		Entries:            entries,
		MonthlyInstallment: installment,
		TotalInterest:      totalInterest,
		TotalPayable:       totalPayable,
	}
}

// computeReducing uses the standard annuity formula on the declining balance:
// installment = P * r * (1+r)^n / ((1+r)^n - 1).
func computeReducing(principal money.Money, rateBps int64, term int) *Schedule {
	if rateBps == 0 {
		// Zero rate degenerates to equal-principal installments.
		return computeFlat(principal, 0, term)
	}

	rate := decimal.New(rateBps, -4)
	one := decimal.NewFromInt(1)
	factor := one.Add(rate).Pow(decimal.NewFromInt(int64(term)))
	installmentDec := principal.Decimal().Mul(rate).Mul(factor).Div(factor.Sub(one))
	installment := money.FromDecimal(installmentDec, principal.Currency)

	entries := make([]Entry, 0, term)
	balance := principal
	totalInterest := money.Zero(principal.Currency)

	for period := 1; period <= term; period++ {
		interestDue := balance.MulBasisPoints(rateBps)
		principalDue := installment.Sub(interestDue)
		if period == term {
			// Force the last principal portion to clear the balance exactly.
			principalDue = balance
		}
		balance = balance.Sub(principalDue)
		totalInterest = totalInterest.Add(interestDue)

		entries = append(entries, Entry{
			Period:         period,
			PrincipalDue:   principalDue,
			InterestDue:    interestDue,
			Installment:    principalDue.Add(interestDue),
			ClosingBalance: balance,
		})
	}

	return &Schedule{
		Entries:            entries,
		MonthlyInstallment: installment,
		TotalInterest:      totalInterest,
		TotalPayable:       principal.Add(totalInterest),
	}
}
