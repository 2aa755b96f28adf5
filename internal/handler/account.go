package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/service/ledger"
)

type accountService interface {
	CreateAccount(ctx context.Context, req ledger.CreateAccountRequest) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	AccountLines(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.JournalLine, int, error)
	Reconcile(ctx context.Context) (*ledger.ReconciliationReport, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

func (r createAccountRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	switch domain.AccountCategory(r.Category) {
	case domain.AccountCategoryAsset, domain.AccountCategoryLiability,
		domain.AccountCategoryEquity, domain.AccountCategoryIncome,
		domain.AccountCategoryExpense:
	default:
		errs = append(errs, FieldError{Field: "category", Message: "must be asset, liability, equity, income, or expense"})
	}
	return errs
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), ledger.CreateAccountRequest{
		Name:     req.Name,
		Category: domain.AccountCategory(req.Category),
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toAccountDTO(account))
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, nil)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]accountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toAccountDTO(&accounts[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *AccountHandler) Lines(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	limit, offset := paginationParams(r)
	lines, total, err := h.accounts.AccountLines(r.Context(), id, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]journalLineDTO, len(lines))
	for i := range lines {
		dtos[i] = toJournalLineDTO(&lines[i])
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"lines": dtos,
		"total": total,
	})
}

// Reconcile triggers an on-demand balance reconciliation sweep.
func (h *AccountHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.accounts.Reconcile(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}
