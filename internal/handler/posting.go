package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/service/ledger"
)

type postingService interface {
	PostExpense(ctx context.Context, req ledger.ExpenseRequest) (*domain.JournalEntry, error)
	PostEquityInjection(ctx context.Context, req ledger.EquityInjectionRequest) (*domain.JournalEntry, error)
}

type PostingHandler struct {
	postings     postingService
	baseCurrency money.Currency
}

func NewPostingHandler(postings postingService, baseCurrency money.Currency) *PostingHandler {
	return &PostingHandler{postings: postings, baseCurrency: baseCurrency}
}

type postExpenseRequest struct {
	ExpenseAccountID string `json:"expense_account_id"`
	CashAccountID    string `json:"cash_account_id"`
	AmountUnits      int64  `json:"amount_units"`
	Date             string `json:"date"`
	Memo             string `json:"memo"`
}

func (r postExpenseRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.ExpenseAccountID); err != nil {
		errs = append(errs, FieldError{Field: "expense_account_id", Message: "must be a UUID"})
	}
	if _, err := uuid.Parse(r.CashAccountID); err != nil {
		errs = append(errs, FieldError{Field: "cash_account_id", Message: "must be a UUID"})
	}
	if r.AmountUnits <= 0 {
		errs = append(errs, FieldError{Field: "amount_units", Message: "must be greater than 0"})
	}
	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
		}
	}
	return errs
}

func (h *PostingHandler) PostExpense(w http.ResponseWriter, r *http.Request) {
	var req postExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	expenseID, _ := uuid.Parse(req.ExpenseAccountID)
	cashID, _ := uuid.Parse(req.CashAccountID)
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}

	entry, err := h.postings.PostExpense(r.Context(), ledger.ExpenseRequest{
		ExpenseAccountID: expenseID,
		CashAccountID:    cashID,
		Amount:           money.New(req.AmountUnits, h.baseCurrency),
		Date:             date,
		Memo:             req.Memo,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toJournalEntryDTO(entry))
}

type equityInjectionRequest struct {
	EquityAccountID string `json:"equity_account_id"`
	CashAccountID   string `json:"cash_account_id"`
	AmountUnits     int64  `json:"amount_units"`
	Date            string `json:"date"`
	Memo            string `json:"memo"`
}

func (r equityInjectionRequest) Validate() []FieldError {
	var errs []FieldError
	if _, err := uuid.Parse(r.EquityAccountID); err != nil {
		errs = append(errs, FieldError{Field: "equity_account_id", Message: "must be a UUID"})
	}
	if _, err := uuid.Parse(r.CashAccountID); err != nil {
		errs = append(errs, FieldError{Field: "cash_account_id", Message: "must be a UUID"})
	}
	if r.AmountUnits <= 0 {
		errs = append(errs, FieldError{Field: "amount_units", Message: "must be greater than 0"})
	}
	if r.Date != "" {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
		}
	}
	return errs
}

func (h *PostingHandler) PostEquityInjection(w http.ResponseWriter, r *http.Request) {
	var req equityInjectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	equityID, _ := uuid.Parse(req.EquityAccountID)
	cashID, _ := uuid.Parse(req.CashAccountID)
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}

	entry, err := h.postings.PostEquityInjection(r.Context(), ledger.EquityInjectionRequest{
		EquityAccountID: equityID,
		CashAccountID:   cashID,
		Amount:          money.New(req.AmountUnits, h.baseCurrency),
		Date:            date,
		Memo:            req.Memo,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toJournalEntryDTO(entry))
}
