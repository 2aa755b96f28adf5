package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

type CreateAccountRequest struct {
	Name     string
	Category domain.AccountCategory
}

// CreateAccount adds a user-defined account to the chart. It opens with a
// zero balance; only postings move it afterwards.
func (s *Service) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	switch req.Category {
	case domain.AccountCategoryAsset, domain.AccountCategoryLiability,
		domain.AccountCategoryEquity, domain.AccountCategoryIncome,
		domain.AccountCategoryExpense:
	default:
		return nil, fmt.Errorf("CreateAccount: category %q: %w", req.Category, domain.ErrInvalidRequest)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("CreateAccount: empty name: %w", domain.ErrInvalidRequest)
	}

	account := &domain.Account{
		ID:        uuid.New(),
		Name:      req.Name,
		Category:  req.Category,
		Balance:   money.Zero(s.baseCurrency()),
		IsSystem:  false,
		Version:   0,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}

	s.audit(ctx, domain.AuditActionAccountCreated, "account", account.ID)
	return account, nil
}

func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	return nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// AccountLines returns an account's journal lines, newest first.
func (s *Service) AccountLines(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.JournalLine, int, error) {
	lines, total, err := s.journal.ListLinesByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("AccountLines: %w", err)
	}
	return lines, total, nil
}
