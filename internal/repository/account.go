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

const accountColumns = `id, name, category, balance_units, currency, is_system, version, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY category, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, category, balance_units, currency, is_system, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.Name, account.Category,
		account.Balance.Units, account.Balance.Currency,
		account.IsSystem, account.Version, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Delete removes a user-defined account. System accounts are protected.
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND is_system = false`, id,
	)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		// Either missing or a system account; distinguish for the caller.
		var isSystem bool
		err := r.db.QueryRowContext(ctx, `SELECT is_system FROM accounts WHERE id = $1`, id).Scan(&isSystem)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("Delete: %w", domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("Delete: %w", err)
		}
		return fmt.Errorf("Delete: %w", domain.ErrSystemAccount)
	}
	return nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", mapConcurrencyError(err))
	}
	return a, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance money.Money, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_units = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance.Units, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", mapConcurrencyError(err))
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrConcurrencyConflict)
	}
	return nil
}

// SumByCategory totals cached balances for one category; used for the
// assets/liabilities snapshot at period close.
func (r *AccountRepository) SumByCategory(ctx context.Context, tx *sql.Tx, category domain.AccountCategory, currency money.Currency) (money.Money, error) {
	var units int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance_units), 0) FROM accounts WHERE category = $1`, category,
	).Scan(&units)
	if err != nil {
		return money.Money{}, fmt.Errorf("SumByCategory: %w", err)
	}
	return money.New(units, currency), nil
}

// ComputedBalance is an account's cached balance next to the balance
// recomputed from its journal lines.
type ComputedBalance struct {
	Account  domain.Account
	Computed money.Money
}

// ListWithComputedBalances recomputes every account balance from the journal
// and returns it beside the cached value. The signed sum respects the
// account's normal side: debits increase assets and expenses, credits
// increase everything else.
func (r *AccountRepository) ListWithComputedBalances(ctx context.Context) ([]ComputedBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.category, a.balance_units, a.currency, a.is_system, a.version, a.created_at,
		        COALESCE(SUM(
		            CASE WHEN a.category IN ('asset', 'expense')
		                 THEN l.debit_units - l.credit_units
		                 ELSE l.credit_units - l.debit_units
		            END
		        ), 0) AS computed_units
		 FROM accounts a
		 LEFT JOIN journal_lines l ON l.account_id = a.id
		 GROUP BY a.id
		 ORDER BY a.category, a.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("ListWithComputedBalances: %w", err)
	}
	defer rows.Close()

	var result []ComputedBalance
	for rows.Next() {
		var (
			a             domain.Account
			units         int64
			currency      string
			computedUnits int64
		)
		err := rows.Scan(
			&a.ID, &a.Name, &a.Category, &units, &currency,
			&a.IsSystem, &a.Version, &a.CreatedAt, &computedUnits,
		)
		if err != nil {
			return nil, fmt.Errorf("ListWithComputedBalances: scan: %w", err)
		}
		a.Balance = money.New(units, money.Currency(currency))
		result = append(result, ComputedBalance{
			Account:  a,
			Computed: money.New(computedUnits, money.Currency(currency)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWithComputedBalances: rows: %w", err)
	}
	return result, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		a        domain.Account
		units    int64
		currency string
	)
	err := s.Scan(&a.ID, &a.Name, &a.Category, &units, &currency, &a.IsSystem, &a.Version, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Balance = money.New(units, money.Currency(currency))
	return &a, nil
}
