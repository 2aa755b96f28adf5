package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
)

// ReverseRepayment undoes a posted repayment: it restores the loan's
// outstanding balances, posts a contra entry mirroring the original lines
// (debit and credit swapped), and sets the one-way reversed flag. The ledger
// itself is never edited; history is only appended to. A repayment dated in
// a closed period cannot be reversed.
func (s *Service) ReverseRepayment(ctx context.Context, repaymentID uuid.UUID) (*domain.JournalEntry, error) {
	log := logging.FromContext(ctx)

	rp, err := s.repayments.GetByID(ctx, repaymentID)
	if err != nil {
		return nil, fmt.Errorf("ReverseRepayment: %w", err)
	}
	if rp.Reversed {
		return nil, fmt.Errorf("ReverseRepayment: %w", domain.ErrAlreadyReversed)
	}

	original, err := s.journal.GetByReference(ctx, domain.ReferenceTypeRepayment, rp.ID)
	if err != nil {
		return nil, fmt.Errorf("ReverseRepayment: original entry: %w", err)
	}

	var contra *domain.JournalEntry
	err = s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			loan, err := s.loans.GetForUpdate(ctx, tx, rp.LoanID)
			if err != nil {
				return err
			}

			// Closed periods are immutable even to reversal.
			originalMonth := domain.MonthOf(rp.PaymentDate)
			if err := s.periods.LockMonth(ctx, tx, originalMonth, false); err != nil {
				return err
			}
			closed, err := s.periods.IsClosed(ctx, tx, rp.PaymentDate)
			if err != nil {
				return err
			}
			if closed {
				return fmt.Errorf("repayment dated %s: %w", originalMonth, domain.ErrPeriodClosed)
			}

			if err := s.repayments.MarkReversed(ctx, tx, rp.ID); err != nil {
				return err
			}

			lines := make([]line, 0, len(original.Lines))
			for _, l := range original.Mirror() {
				lines = append(lines, line{accountID: l.AccountID, debit: l.Debit, credit: l.Credit})
			}
			contra, err = s.postEntry(ctx, tx, time.Now().UTC(), domain.ReferenceTypeReversal, rp.ID,
				fmt.Sprintf("reversal of repayment %s", rp.ID), lines, false)
			if err != nil {
				return err
			}

			loan.OutstandingPrincipal = loan.OutstandingPrincipal.Add(rp.PrincipalPaid)
			loan.OutstandingInterest = loan.OutstandingInterest.Add(rp.InterestPaid)
			loan.OutstandingPenalty = loan.OutstandingPenalty.Add(rp.PenaltyPaid)
			if loan.Status == domain.LoanStatusCompleted && !loan.IsSettled() {
				loan.Status = domain.LoanStatusActive
			}
			loan.Version++
			return s.loans.UpdateOutstanding(ctx, tx, loan)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ReverseRepayment: %w", err)
	}

	log.Info("repayment reversed",
		"repayment_id", rp.ID,
		"loan_id", rp.LoanID,
		"amount", rp.AmountPaid,
		"reversal_entry_id", contra.ID,
	)

	s.audit(ctx, domain.AuditActionRepaymentReversed, "repayment", rp.ID)
	return contra, nil
}
