package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

const loanColumns = `id, borrower_name, principal_units, currency, interest_rate_bps, interest_type,
	term_periods, disbursement_date, status, outstanding_principal_units, outstanding_interest_units,
	outstanding_penalty_units, monthly_installment_units, total_payable_units, version, created_at, updated_at`

type LoanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO loans (
			id, borrower_name, principal_units, currency, interest_rate_bps, interest_type,
			term_periods, disbursement_date, status, outstanding_principal_units,
			outstanding_interest_units, outstanding_penalty_units,
			monthly_installment_units, total_payable_units, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		loan.ID, loan.BorrowerName, loan.Principal.Units, loan.Principal.Currency,
		loan.InterestRateBps, loan.InterestType, loan.TermPeriods, loan.DisbursementDate,
		loan.Status, loan.OutstandingPrincipal.Units, loan.OutstandingInterest.Units,
		loan.OutstandingPenalty.Units, loan.MonthlyInstallment.Units, loan.TotalPayable.Units,
		loan.Version, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

func (r *LoanRepository) List(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return loans, nil
}

// GetForUpdate serializes concurrent repayments against the same loan.
func (r *LoanRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id,
	)
	l, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapConcurrencyError(err))
	}
	return l, nil
}

// Approve freezes the computed totals onto the loan and activates it.
func (r *LoanRepository) Approve(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET
			status = $1, disbursement_date = $2,
			outstanding_principal_units = $3, outstanding_interest_units = $4,
			outstanding_penalty_units = $5, monthly_installment_units = $6,
			total_payable_units = $7, version = $8, updated_at = now()
		 WHERE id = $9 AND version = $10 AND status = 'pending'`,
		loan.Status, loan.DisbursementDate,
		loan.OutstandingPrincipal.Units, loan.OutstandingInterest.Units,
		loan.OutstandingPenalty.Units, loan.MonthlyInstallment.Units,
		loan.TotalPayable.Units, loan.Version, loan.ID, loan.Version-1,
	)
	if err != nil {
		return fmt.Errorf("Approve: %w", mapConcurrencyError(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Approve: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Approve: %w", domain.ErrConcurrencyConflict)
	}
	return nil
}

// UpdateOutstanding applies a repayment or reversal to the loan's balances.
func (r *LoanRepository) UpdateOutstanding(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE loans SET
			outstanding_principal_units = $1, outstanding_interest_units = $2,
			outstanding_penalty_units = $3, status = $4, version = $5, updated_at = now()
		 WHERE id = $6 AND version = $7`,
		loan.OutstandingPrincipal.Units, loan.OutstandingInterest.Units,
		loan.OutstandingPenalty.Units, loan.Status, loan.Version,
		loan.ID, loan.Version-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateOutstanding: %w", mapConcurrencyError(err))
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateOutstanding: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateOutstanding: %w", domain.ErrConcurrencyConflict)
	}
	return nil
}

// UpdateStatus performs a guarded status transition; expectedCurrent protects
// against races with approval and repayment.
func (r *LoanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedCurrent, next domain.LoanStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE loans SET status = $1, version = version + 1, updated_at = now()
		 WHERE id = $2 AND status = $3`,
		next, id, expectedCurrent,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrInvalidTransition)
	}
	return nil
}

func scanLoan(s scanner) (*domain.Loan, error) {
	var (
		l        domain.Loan
		currency string

		principalUnits, outPrincipal, outInterest, outPenalty int64
		installmentUnits, totalPayableUnits                   int64
	)
	err := s.Scan(
		&l.ID, &l.BorrowerName, &principalUnits, &currency, &l.InterestRateBps, &l.InterestType,
		&l.TermPeriods, &l.DisbursementDate, &l.Status, &outPrincipal, &outInterest,
		&outPenalty, &installmentUnits, &totalPayableUnits, &l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cur := money.Currency(currency)
	l.Principal = money.New(principalUnits, cur)
	l.OutstandingPrincipal = money.New(outPrincipal, cur)
	l.OutstandingInterest = money.New(outInterest, cur)
	l.OutstandingPenalty = money.New(outPenalty, cur)
	l.MonthlyInstallment = money.New(installmentUnits, cur)
	l.TotalPayable = money.New(totalPayableUnits, cur)
	return &l, nil
}
