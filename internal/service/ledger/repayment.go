package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/allocation"
	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
	"github.com/kopesha/loan-core/internal/money"
)

type RepaymentRequest struct {
	LoanID        uuid.UUID
	Amount        money.Money
	CashAccountID uuid.UUID
	PaymentDate   time.Time
}

// RecordRepayment allocates a payment across penalty, interest and principal
// and posts the matching journal entry, all in one transaction. The loan row
// is locked for the duration so concurrent payments against the same loan
// serialize rather than allocate from the same stale snapshot.
func (s *Service) RecordRepayment(ctx context.Context, req RepaymentRequest) (*domain.Repayment, error) {
	log := logging.FromContext(ctx)

	if req.PaymentDate.IsZero() {
		req.PaymentDate = time.Now().UTC()
	}

	var repayment *domain.Repayment
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			loan, err := s.loans.GetForUpdate(ctx, tx, req.LoanID)
			if err != nil {
				return err
			}
			if loan.Status != domain.LoanStatusActive {
				return fmt.Errorf("loan %s is %s: %w", loan.ID, loan.Status, domain.ErrLoanNotActive)
			}

			result, err := s.allocator.Allocate(allocation.Outstanding{
				Principal: loan.OutstandingPrincipal,
				Interest:  loan.OutstandingInterest,
				Penalty:   loan.OutstandingPenalty,
			}, req.Amount)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			rp := &domain.Repayment{
				ID:            uuid.New(),
				LoanID:        loan.ID,
				AmountPaid:    req.Amount,
				PrincipalPaid: result.PrincipalPaid,
				InterestPaid:  result.InterestPaid,
				PenaltyPaid:   result.PenaltyPaid,
				PaymentDate:   req.PaymentDate.UTC(),
				CreatedAt:     now,
			}
			if err := s.repayments.Create(ctx, tx, rp); err != nil {
				return err
			}

			// Debit cash for the full amount; credit the portfolio and the
			// two income accounts for their allocated slices.
			_, err = s.postEntry(ctx, tx, rp.PaymentDate, domain.ReferenceTypeRepayment, rp.ID,
				fmt.Sprintf("repayment on loan %s", loan.ID),
				[]line{
					debitLine(req.CashAccountID, rp.AmountPaid),
					creditLine(LoanPortfolioAccountID, rp.PrincipalPaid),
					creditLine(InterestIncomeAccountID, rp.InterestPaid),
					creditLine(PenaltyIncomeAccountID, rp.PenaltyPaid),
				}, false)
			if err != nil {
				return err
			}

			loan.OutstandingPrincipal = result.Remaining.Principal
			loan.OutstandingInterest = result.Remaining.Interest
			loan.OutstandingPenalty = result.Remaining.Penalty
			if result.Settled {
				loan.Status = domain.LoanStatusCompleted
			}
			loan.Version++
			if err := s.loans.UpdateOutstanding(ctx, tx, loan); err != nil {
				return err
			}

			repayment = rp
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("RecordRepayment: %w", err)
	}

	log.Info("repayment recorded",
		"repayment_id", repayment.ID,
		"loan_id", repayment.LoanID,
		"amount", repayment.AmountPaid,
		"principal_paid", repayment.PrincipalPaid,
		"interest_paid", repayment.InterestPaid,
		"penalty_paid", repayment.PenaltyPaid,
	)

	s.audit(ctx, domain.AuditActionRepaymentPosted, "repayment", repayment.ID)
	return repayment, nil
}

func (s *Service) GetRepayment(ctx context.Context, id uuid.UUID) (*domain.Repayment, error) {
	rp, err := s.repayments.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetRepayment: %w", err)
	}
	return rp, nil
}

func (s *Service) ListRepayments(ctx context.Context, loanID uuid.UUID) ([]domain.Repayment, error) {
	rps, err := s.repayments.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("ListRepayments: %w", err)
	}
	return rps, nil
}
