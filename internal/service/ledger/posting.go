package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
	"github.com/kopesha/loan-core/internal/money"
)

// line is one side of an entry under construction; zero-amount lines are
// dropped before posting.
type line struct {
	accountID uuid.UUID
	debit     money.Money
	credit    money.Money
}

func debitLine(accountID uuid.UUID, amount money.Money) line {
	return line{accountID: accountID, debit: amount, credit: money.Zero(amount.Currency)}
}

func creditLine(accountID uuid.UUID, amount money.Money) line {
	return line{accountID: accountID, debit: money.Zero(amount.Currency), credit: amount}
}

// postEntry translates one business event into a balanced journal entry and
// applies it to the cached account balances, all inside the caller's
// transaction. allowClosed is set only by the period close itself, which
// posts its transfer into the month it is locking.
func (s *Service) postEntry(
	ctx context.Context,
	tx *sql.Tx,
	entryDate time.Time,
	refType domain.ReferenceType,
	refID uuid.UUID,
	memo string,
	lines []line,
	allowClosed bool,
) (*domain.JournalEntry, error) {
	now := time.Now().UTC()
	entry := &domain.JournalEntry{
		ID:            uuid.New(),
		EntryDate:     entryDate.UTC(),
		ReferenceType: refType,
		ReferenceID:   refID,
		Memo:          memo,
		CreatedAt:     now,
	}
	for _, l := range lines {
		if l.debit.IsZero() && l.credit.IsZero() {
			continue
		}
		entry.Lines = append(entry.Lines, domain.JournalLine{
			ID:        uuid.New(),
			EntryID:   entry.ID,
			AccountID: l.accountID,
			Debit:     l.debit,
			Credit:    l.credit,
			Position:  len(entry.Lines),
		})
	}

	if err := entry.Validate(); err != nil {
		// An unbalanced entry is a bug in entry construction, never user
		// input; abort loudly.
		logging.FromContext(ctx).Error("refusing to post unbalanced journal entry",
			"reference_type", refType,
			"reference_id", refID,
		)
		return nil, fmt.Errorf("postEntry: %w", err)
	}

	if !allowClosed {
		month := domain.MonthOf(entry.EntryDate)
		if err := s.periods.LockMonth(ctx, tx, month, false); err != nil {
			return nil, fmt.Errorf("postEntry: %w", err)
		}
		closed, err := s.periods.IsClosed(ctx, tx, entry.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("postEntry: %w", err)
		}
		if closed {
			return nil, fmt.Errorf("postEntry: %s: %w", month, domain.ErrPeriodClosed)
		}
	}

	if err := s.journal.CreateEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("postEntry: %w", err)
	}

	if err := s.applyToBalances(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("postEntry: %w", err)
	}

	return entry, nil
}

// applyToBalances locks the touched accounts in a stable order and moves each
// cached balance by the entry's signed effect.
func (s *Service) applyToBalances(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error {
	deltas := make(map[uuid.UUID]money.Money)
	var order []uuid.UUID
	for _, l := range entry.Lines {
		if _, seen := deltas[l.AccountID]; !seen {
			order = append(order, l.AccountID)
			deltas[l.AccountID] = money.Zero(s.baseCurrency())
		}
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].String() < order[j].String()
	})

	locked := make(map[uuid.UUID]*domain.Account, len(order))
	for _, id := range order {
		acct, err := s.accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("applyToBalances: %w", err)
		}
		locked[id] = acct
	}

	for _, l := range entry.Lines {
		acct := locked[l.AccountID]
		deltas[l.AccountID] = deltas[l.AccountID].Add(acct.Category.SignedDelta(l.Debit, l.Credit))
	}

	for _, id := range order {
		acct := locked[id]
		newBalance := acct.Balance.Add(deltas[id])
		if err := s.accounts.UpdateBalance(ctx, tx, id, newBalance, acct.Version+1); err != nil {
			return fmt.Errorf("applyToBalances: update %s: %w", id, err)
		}
	}
	return nil
}

type ExpenseRequest struct {
	ExpenseAccountID uuid.UUID
	CashAccountID    uuid.UUID
	Amount           money.Money
	Date             time.Time
	Memo             string
}

// PostExpense records an approved operating expense: debit the expense
// category, credit cash.
func (s *Service) PostExpense(ctx context.Context, req ExpenseRequest) (*domain.JournalEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("PostExpense: %w", domain.ErrInvalidAmount)
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	var entry *domain.JournalEntry
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			var err error
			entry, err = s.postEntry(ctx, tx, req.Date, domain.ReferenceTypeExpense, uuid.New(), req.Memo,
				[]line{
					debitLine(req.ExpenseAccountID, req.Amount),
					creditLine(req.CashAccountID, req.Amount),
				}, false)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("PostExpense: %w", err)
	}

	s.audit(ctx, domain.AuditActionExpensePosted, "journal_entry", entry.ID)
	return entry, nil
}

type EquityInjectionRequest struct {
	EquityAccountID uuid.UUID
	CashAccountID   uuid.UUID
	Amount          money.Money
	Date            time.Time
	Memo            string
}

// PostEquityInjection records owner capital coming in: debit cash, credit
// equity.
func (s *Service) PostEquityInjection(ctx context.Context, req EquityInjectionRequest) (*domain.JournalEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("PostEquityInjection: %w", domain.ErrInvalidAmount)
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	var entry *domain.JournalEntry
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			var err error
			entry, err = s.postEntry(ctx, tx, req.Date, domain.ReferenceTypeInjection, uuid.New(), req.Memo,
				[]line{
					debitLine(req.CashAccountID, req.Amount),
					creditLine(req.EquityAccountID, req.Amount),
				}, false)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("PostEquityInjection: %w", err)
	}

	s.audit(ctx, domain.AuditActionEquityInjected, "journal_entry", entry.ID)
	return entry, nil
}

// inTx runs fn inside one transaction, committing on success.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inTx: begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("inTx: commit: %w", err)
	}
	return nil
}
