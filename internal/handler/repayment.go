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

type repaymentService interface {
	RecordRepayment(ctx context.Context, req ledger.RepaymentRequest) (*domain.Repayment, error)
	GetRepayment(ctx context.Context, id uuid.UUID) (*domain.Repayment, error)
	ListRepayments(ctx context.Context, loanID uuid.UUID) ([]domain.Repayment, error)
	ReverseRepayment(ctx context.Context, repaymentID uuid.UUID) (*domain.JournalEntry, error)
}

type RepaymentHandler struct {
	repayments   repaymentService
	baseCurrency money.Currency
}

func NewRepaymentHandler(repayments repaymentService, baseCurrency money.Currency) *RepaymentHandler {
	return &RepaymentHandler{repayments: repayments, baseCurrency: baseCurrency}
}

type recordRepaymentRequest struct {
	AmountUnits   int64  `json:"amount_units"`
	CashAccountID string `json:"cash_account_id"`
	PaymentDate   string `json:"payment_date"`
}

func (r recordRepaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AmountUnits <= 0 {
		errs = append(errs, FieldError{Field: "amount_units", Message: "must be greater than 0"})
	}
	if _, err := uuid.Parse(r.CashAccountID); err != nil {
		errs = append(errs, FieldError{Field: "cash_account_id", Message: "must be a UUID"})
	}
	if r.PaymentDate != "" {
		if _, err := time.Parse("2006-01-02", r.PaymentDate); err != nil {
			errs = append(errs, FieldError{Field: "payment_date", Message: "must be YYYY-MM-DD"})
		}
	}
	return errs
}

func (h *RepaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var req recordRepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	cashID, _ := uuid.Parse(req.CashAccountID)
	var paymentDate time.Time
	if req.PaymentDate != "" {
		paymentDate, _ = time.Parse("2006-01-02", req.PaymentDate)
	}

	repayment, err := h.repayments.RecordRepayment(r.Context(), ledger.RepaymentRequest{
		LoanID:        loanID,
		Amount:        money.New(req.AmountUnits, h.baseCurrency),
		CashAccountID: cashID,
		PaymentDate:   paymentDate,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toRepaymentDTO(repayment))
}

func (h *RepaymentHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	repayments, err := h.repayments.ListRepayments(r.Context(), loanID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]repaymentDTO, len(repayments))
	for i := range repayments {
		dtos[i] = toRepaymentDTO(&repayments[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *RepaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	repayment, err := h.repayments.GetRepayment(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toRepaymentDTO(repayment))
}

// Reverse posts the contra entry for a repayment and restores the loan's
// outstanding balances.
func (h *RepaymentHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	entry, err := h.repayments.ReverseRepayment(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toJournalEntryDTO(entry))
}
