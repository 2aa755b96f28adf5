package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/auth"
	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
)

// CloseBooks locks a month's books: it computes the period P&L, snapshots
// assets and liabilities, records the ClosedPeriod row, and transfers the
// net profit (or loss) from the income summary to the target equity account.
// The whole close runs under an exclusive month lock so no posting dated in
// the month can land concurrently; any step failing aborts the entire close.
// Calling it again for the same month fails with ErrPeriodAlreadyClosed.
func (s *Service) CloseBooks(ctx context.Context, month domain.Month, targetEquityAccountID uuid.UUID) (*domain.ClosedPeriod, error) {
	log := logging.FromContext(ctx)
	currency := s.baseCurrency()

	var period *domain.ClosedPeriod
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			if err := s.periods.LockMonth(ctx, tx, month, true); err != nil {
				return err
			}
			closed, err := s.periods.IsClosed(ctx, tx, month.Start())
			if err != nil {
				return err
			}
			if closed {
				return fmt.Errorf("%s: %w", month, domain.ErrPeriodAlreadyClosed)
			}

			interest, penalty, err := s.repayments.SumPaidInRange(ctx, tx, month.Start(), month.End(), currency)
			if err != nil {
				return err
			}
			expenses, err := s.journal.SumExpensesInRange(ctx, tx, month.Start(), month.End(), currency)
			if err != nil {
				return err
			}
			revenue := interest.Add(penalty)
			netProfit := revenue.Sub(expenses)

			assets, err := s.accounts.SumByCategory(ctx, tx, domain.AccountCategoryAsset, currency)
			if err != nil {
				return err
			}
			liabilities, err := s.accounts.SumByCategory(ctx, tx, domain.AccountCategoryLiability, currency)
			if err != nil {
				return err
			}

			p := &domain.ClosedPeriod{
				ID:               uuid.New(),
				Month:            month,
				NetProfit:        netProfit,
				TotalAssets:      assets,
				TotalLiabilities: liabilities,
				ClosedAt:         time.Now().UTC(),
				ClosedBy:         auth.ActorLabel(ctx),
			}
			if err := s.periods.Create(ctx, tx, p); err != nil {
				return err
			}

			if !netProfit.IsZero() {
				lines := []line{
					debitLine(IncomeSummaryAccountID, netProfit),
					creditLine(targetEquityAccountID, netProfit),
				}
				if netProfit.IsNegative() {
					loss := netProfit.Neg()
					lines = []line{
						debitLine(targetEquityAccountID, loss),
						creditLine(IncomeSummaryAccountID, loss),
					}
				}
				// The closing transfer is the one posting allowed into the
				// month being locked.
				if _, err := s.postEntry(ctx, tx, month.LastDay(), domain.ReferenceTypeTransfer, p.ID,
					fmt.Sprintf("period close %s", month), lines, true); err != nil {
					return err
				}
			}

			period = p
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("CloseBooks: %w", err)
	}

	log.Info("period closed",
		"month", period.Month,
		"net_profit", period.NetProfit,
		"total_assets", period.TotalAssets,
		"total_liabilities", period.TotalLiabilities,
	)

	s.audit(ctx, domain.AuditActionPeriodClosed, "closed_period", period.ID)
	return period, nil
}

func (s *Service) GetClosedPeriod(ctx context.Context, month domain.Month) (*domain.ClosedPeriod, error) {
	p, err := s.periods.Get(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("GetClosedPeriod: %w", err)
	}
	return p, nil
}

func (s *Service) ListClosedPeriods(ctx context.Context) ([]domain.ClosedPeriod, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListClosedPeriods: %w", err)
	}
	return periods, nil
}
