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

// JournalRepository is append-only by construction: it exposes no update or
// delete for entries. Corrections are new entries.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, entry_date, reference_type, reference_id, memo, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.EntryDate, entry.ReferenceType, entry.ReferenceID, entry.Memo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("CreateEntry: %w", err)
	}

	for _, l := range entry.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journal_lines (id, entry_id, account_id, debit_units, credit_units, currency, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, entry.ID, l.AccountID, l.Debit.Units, l.Credit.Units,
			lineCurrency(l), l.Position,
		)
		if err != nil {
			return fmt.Errorf("CreateEntry: line %d: %w", l.Position, err)
		}
	}
	return nil
}

func (r *JournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, entry_date, reference_type, reference_id, memo, created_at
		 FROM journal_entries WHERE id = $1`, id,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	if err := r.loadLines(ctx, e); err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// GetByReference finds the entry posted for one business event, e.g. the
// repayment entry that a reversal must mirror.
func (r *JournalRepository) GetByReference(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID) (*domain.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, entry_date, reference_type, reference_id, memo, created_at
		 FROM journal_entries WHERE reference_type = $1 AND reference_id = $2
		 ORDER BY created_at LIMIT 1`,
		refType, refID,
	)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByReference: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	if err := r.loadLines(ctx, e); err != nil {
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return e, nil
}

func (r *JournalRepository) loadLines(ctx context.Context, e *domain.JournalEntry) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, account_id, debit_units, credit_units, currency, position
		 FROM journal_lines WHERE entry_id = $1 ORDER BY position`, e.ID,
	)
	if err != nil {
		return fmt.Errorf("loadLines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return fmt.Errorf("loadLines: scan: %w", err)
		}
		e.Lines = append(e.Lines, *l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loadLines: rows: %w", err)
	}
	return nil
}

// ListLinesByAccount returns an account's journal lines, newest first.
func (r *JournalRepository) ListLinesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.JournalLine, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_lines WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListLinesByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT l.id, l.entry_id, l.account_id, l.debit_units, l.credit_units, l.currency, l.position
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id
		 WHERE l.account_id = $1
		 ORDER BY e.entry_date DESC, l.position LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListLinesByAccount: %w", err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListLinesByAccount: scan: %w", err)
		}
		lines = append(lines, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListLinesByAccount: rows: %w", err)
	}
	return lines, total, nil
}

// SumExpensesInRange totals the expense-account debits of expense entries
// dated in [start, end); reversals net out because mirrored credits subtract.
func (r *JournalRepository) SumExpensesInRange(ctx context.Context, tx *sql.Tx, start, end time.Time, currency money.Currency) (money.Money, error) {
	var units int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(l.debit_units - l.credit_units), 0)
		 FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id
		 JOIN accounts a ON a.id = l.account_id
		 WHERE a.category = 'expense' AND e.entry_date >= $1 AND e.entry_date < $2`,
		start, end,
	).Scan(&units)
	if err != nil {
		return money.Money{}, fmt.Errorf("SumExpensesInRange: %w", err)
	}
	return money.New(units, currency), nil
}

// UnbalancedEntryIDs scans the whole journal for entries whose debits and
// credits disagree. Any hit is a system error.
func (r *JournalRepository) UnbalancedEntryIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id FROM journal_lines
		 GROUP BY entry_id
		 HAVING SUM(debit_units) <> SUM(credit_units)`,
	)
	if err != nil {
		return nil, fmt.Errorf("UnbalancedEntryIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("UnbalancedEntryIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("UnbalancedEntryIDs: rows: %w", err)
	}
	return ids, nil
}

func lineCurrency(l domain.JournalLine) money.Currency {
	if l.Debit.Currency != "" {
		return l.Debit.Currency
	}
	return l.Credit.Currency
}

func scanEntry(s scanner) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := s.Scan(&e.ID, &e.EntryDate, &e.ReferenceType, &e.ReferenceID, &e.Memo, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanLine(s scanner) (*domain.JournalLine, error) {
	var (
		l            domain.JournalLine
		debit, credit int64
		currency     string
	)
	err := s.Scan(&l.ID, &l.EntryID, &l.AccountID, &debit, &credit, &currency, &l.Position)
	if err != nil {
		return nil, err
	}
	cur := money.Currency(currency)
	l.Debit = money.New(debit, cur)
	l.Credit = money.New(credit, cur)
	return &l, nil
}
