package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

type PeriodRepository struct {
	db *sql.DB
}

func NewPeriodRepository(db *sql.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// LockMonth takes a transaction-scoped advisory lock on the month key:
// exclusive for period close, shared for every posting dated in the month.
// A close and a posting in the same month therefore serialize instead of
// both succeeding.
func (r *PeriodRepository) LockMonth(ctx context.Context, tx *sql.Tx, month domain.Month, exclusive bool) error {
	fn := `pg_advisory_xact_lock_shared`
	if exclusive {
		fn = `pg_advisory_xact_lock`
	}
	if _, err := tx.ExecContext(ctx, `SELECT `+fn+`(hashtext($1))`, month.String()); err != nil {
		return fmt.Errorf("LockMonth: %w", mapConcurrencyError(err))
	}
	return nil
}

// IsClosed reports whether the month containing date has been closed.
func (r *PeriodRepository) IsClosed(ctx context.Context, tx *sql.Tx, date time.Time) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM closed_periods WHERE month = $1)`,
		domain.MonthOf(date.UTC()).String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("IsClosed: %w", err)
	}
	return exists, nil
}

func (r *PeriodRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.ClosedPeriod) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO closed_periods (id, month, net_profit_units, total_assets_units,
			total_liabilities_units, currency, closed_at, closed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Month.String(), p.NetProfit.Units, p.TotalAssets.Units,
		p.TotalLiabilities.Units, p.NetProfit.Currency, p.ClosedAt, p.ClosedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrPeriodAlreadyClosed)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *PeriodRepository) Get(ctx context.Context, month domain.Month) (*domain.ClosedPeriod, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, month, net_profit_units, total_assets_units, total_liabilities_units,
			currency, closed_at, closed_by
		 FROM closed_periods WHERE month = $1`, month.String(),
	)
	p, err := scanClosedPeriod(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (r *PeriodRepository) List(ctx context.Context) ([]domain.ClosedPeriod, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, net_profit_units, total_assets_units, total_liabilities_units,
			currency, closed_at, closed_by
		 FROM closed_periods ORDER BY month DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var periods []domain.ClosedPeriod
	for rows.Next() {
		p, err := scanClosedPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		periods = append(periods, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return periods, nil
}

func scanClosedPeriod(s scanner) (*domain.ClosedPeriod, error) {
	var (
		p        domain.ClosedPeriod
		monthStr string
		currency string

		netProfit, assets, liabilities int64
	)
	err := s.Scan(&p.ID, &monthStr, &netProfit, &assets, &liabilities, &currency, &p.ClosedAt, &p.ClosedBy)
	if err != nil {
		return nil, err
	}
	month, err := domain.ParseMonth(monthStr)
	if err != nil {
		return nil, fmt.Errorf("bad month %q: %w", monthStr, err)
	}
	p.Month = month
	cur := money.Currency(currency)
	p.NetProfit = money.New(netProfit, cur)
	p.TotalAssets = money.New(assets, cur)
	p.TotalLiabilities = money.New(liabilities, cur)
	return &p, nil
}
