package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

const repaymentColumns = `id, loan_id, amount_units, principal_units, interest_units,
	penalty_units, currency, payment_date, reversed, created_at`

type RepaymentRepository struct {
	db *sql.DB
}

func NewRepaymentRepository(db *sql.DB) *RepaymentRepository {
	return &RepaymentRepository{db: db}
}

func (r *RepaymentRepository) Create(ctx context.Context, tx *sql.Tx, rp *domain.Repayment) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO repayments (
			id, loan_id, amount_units, principal_units, interest_units,
			penalty_units, currency, payment_date, reversed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rp.ID, rp.LoanID, rp.AmountPaid.Units, rp.PrincipalPaid.Units,
		rp.InterestPaid.Units, rp.PenaltyPaid.Units, rp.AmountPaid.Currency,
		rp.PaymentDate, rp.Reversed, rp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RepaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Repayment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+repaymentColumns+` FROM repayments WHERE id = $1`, id,
	)
	rp, err := scanRepayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rp, nil
}

func (r *RepaymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.Repayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+repaymentColumns+` FROM repayments WHERE loan_id = $1 ORDER BY payment_date, created_at`,
		loanID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByLoan: %w", err)
	}
	defer rows.Close()

	var repayments []domain.Repayment
	for rows.Next() {
		rp, err := scanRepayment(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByLoan: scan: %w", err)
		}
		repayments = append(repayments, *rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByLoan: rows: %w", err)
	}
	return repayments, nil
}

// MarkReversed flips the one-way reversed flag. The guard on reversed=false
// makes a double reversal lose the race instead of silently re-applying.
func (r *RepaymentRepository) MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE repayments SET reversed = true WHERE id = $1 AND reversed = false`, id,
	)
	if err != nil {
		return fmt.Errorf("MarkReversed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkReversed: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkReversed: %w", domain.ErrAlreadyReversed)
	}
	return nil
}

// SumPaidInRange totals interest and penalty collected on non-reversed
// repayments dated in [start, end); the revenue side of period close.
func (r *RepaymentRepository) SumPaidInRange(ctx context.Context, tx *sql.Tx, start, end time.Time, currency money.Currency) (interest, penalty money.Money, err error) {
	var interestUnits, penaltyUnits int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(interest_units), 0), COALESCE(SUM(penalty_units), 0)
		 FROM repayments
		 WHERE reversed = false AND payment_date >= $1 AND payment_date < $2`,
		start, end,
	).Scan(&interestUnits, &penaltyUnits)
	if err != nil {
		return money.Money{}, money.Money{}, fmt.Errorf("SumPaidInRange: %w", err)
	}
	return money.New(interestUnits, currency), money.New(penaltyUnits, currency), nil
}

func scanRepayment(s scanner) (*domain.Repayment, error) {
	var (
		rp       domain.Repayment
		currency string

		amount, principal, interest, penalty int64
	)
	err := s.Scan(
		&rp.ID, &rp.LoanID, &amount, &principal, &interest, &penalty,
		&currency, &rp.PaymentDate, &rp.Reversed, &rp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	cur := money.Currency(currency)
	rp.AmountPaid = money.New(amount, cur)
	rp.PrincipalPaid = money.New(principal, cur)
	rp.InterestPaid = money.New(interest, cur)
	rp.PenaltyPaid = money.New(penalty, cur)
	return &rp, nil
}
