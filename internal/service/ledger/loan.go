package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/schedule"
)

type CreateLoanRequest struct {
	BorrowerName    string
	Principal       money.Money
	InterestRateBps int64
	InterestType    domain.InterestType
	TermPeriods     int
}

// CreateLoan registers a pending loan application. Nothing touches the ledger
// until approval; the terms are validated by running the calculator once.
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (*domain.Loan, error) {
	if _, err := schedule.Compute(req.Principal, req.InterestRateBps, req.TermPeriods, req.InterestType); err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:                   uuid.New(),
		BorrowerName:         req.BorrowerName,
		Principal:            req.Principal,
		InterestRateBps:      req.InterestRateBps,
		InterestType:         req.InterestType,
		TermPeriods:          req.TermPeriods,
		Status:               domain.LoanStatusPending,
		OutstandingPrincipal: money.Zero(req.Principal.Currency),
		OutstandingInterest:  money.Zero(req.Principal.Currency),
		OutstandingPenalty:   money.Zero(req.Principal.Currency),
		MonthlyInstallment:   money.Zero(req.Principal.Currency),
		TotalPayable:         money.Zero(req.Principal.Currency),
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.loans.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("CreateLoan: %w", err)
	}

	s.audit(ctx, domain.AuditActionLoanCreated, "loan", loan.ID)
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetLoan: %w", err)
	}
	return loan, nil
}

func (s *Service) ListLoans(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error) {
	loans, err := s.loans.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListLoans: %w", err)
	}
	return loans, nil
}

// LoanSchedule recomputes the loan's amortization schedule from its stored
// terms; the schedule is deterministic so it is never persisted.
func (s *Service) LoanSchedule(ctx context.Context, id uuid.UUID) (*schedule.Schedule, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("LoanSchedule: %w", err)
	}
	sched, err := schedule.Compute(loan.Principal, loan.InterestRateBps, loan.TermPeriods, loan.InterestType)
	if err != nil {
		return nil, fmt.Errorf("LoanSchedule: %w", err)
	}
	return sched, nil
}

type ApproveLoanRequest struct {
	LoanID          uuid.UUID
	SourceAccountID uuid.UUID
	DisbursementDate time.Time
}

// ApproveLoan activates a pending loan: it freezes the computed installment
// and totals, seeds the outstanding balances, and posts the disbursement
// entry (debit loan portfolio, credit the disbursing cash account) in the
// same transaction.
func (s *Service) ApproveLoan(ctx context.Context, req ApproveLoanRequest) (*domain.Loan, error) {
	log := logging.FromContext(ctx)

	if req.DisbursementDate.IsZero() {
		req.DisbursementDate = time.Now().UTC()
	}

	var approved *domain.Loan
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			loan, err := s.loans.GetForUpdate(ctx, tx, req.LoanID)
			if err != nil {
				return err
			}
			if loan.Status != domain.LoanStatusPending {
				return fmt.Errorf("loan %s is %s: %w", loan.ID, loan.Status, domain.ErrLoanNotPending)
			}

			sched, err := schedule.Compute(loan.Principal, loan.InterestRateBps, loan.TermPeriods, loan.InterestType)
			if err != nil {
				return err
			}

			date := req.DisbursementDate.UTC()
			loan.Status = domain.LoanStatusActive
			loan.DisbursementDate = &date
			loan.OutstandingPrincipal = loan.Principal
			loan.OutstandingInterest = sched.TotalInterest
			loan.OutstandingPenalty = money.Zero(loan.Principal.Currency)
			loan.MonthlyInstallment = sched.MonthlyInstallment
			loan.TotalPayable = sched.TotalPayable
			loan.Version++

			if err := s.loans.Approve(ctx, tx, loan); err != nil {
				return err
			}

			_, err = s.postEntry(ctx, tx, date, domain.ReferenceTypeDisbursement, loan.ID,
				fmt.Sprintf("disbursement for %s", loan.BorrowerName),
				[]line{
					debitLine(LoanPortfolioAccountID, loan.Principal),
					creditLine(req.SourceAccountID, loan.Principal),
				}, false)
			if err != nil {
				return err
			}

			approved = loan
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ApproveLoan: %w", err)
	}

	log.Info("loan approved and disbursed",
		"loan_id", approved.ID,
		"principal", approved.Principal,
		"installment", approved.MonthlyInstallment,
		"total_payable", approved.TotalPayable,
	)

	s.audit(ctx, domain.AuditActionLoanApproved, "loan", approved.ID)
	return approved, nil
}

// SetLoanStatus performs the externally-decided transitions: rejection and
// reassessment of pending applications, default of active loans.
func (s *Service) SetLoanStatus(ctx context.Context, id uuid.UUID, next domain.LoanStatus) (*domain.Loan, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("SetLoanStatus: %w", err)
	}
	if !loan.CanTransitionTo(next) {
		return nil, fmt.Errorf("SetLoanStatus: %s -> %s: %w", loan.Status, next, domain.ErrInvalidTransition)
	}
	if err := s.loans.UpdateStatus(ctx, id, loan.Status, next); err != nil {
		return nil, fmt.Errorf("SetLoanStatus: %w", err)
	}

	loan.Status = next
	s.audit(ctx, domain.AuditActionLoanStatusSet, "loan", id)
	return loan, nil
}
