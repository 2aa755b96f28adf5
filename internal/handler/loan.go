package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/schedule"
	"github.com/kopesha/loan-core/internal/service/ledger"
)

type loanService interface {
	CreateLoan(ctx context.Context, req ledger.CreateLoanRequest) (*domain.Loan, error)
	GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	ListLoans(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error)
	LoanSchedule(ctx context.Context, id uuid.UUID) (*schedule.Schedule, error)
	ApproveLoan(ctx context.Context, req ledger.ApproveLoanRequest) (*domain.Loan, error)
	SetLoanStatus(ctx context.Context, id uuid.UUID, next domain.LoanStatus) (*domain.Loan, error)
}

type LoanHandler struct {
	loans        loanService
	baseCurrency money.Currency
}

func NewLoanHandler(loans loanService, baseCurrency money.Currency) *LoanHandler {
	return &LoanHandler{loans: loans, baseCurrency: baseCurrency}
}

type loanTermsRequest struct {
	BorrowerName    string `json:"borrower_name"`
	PrincipalUnits  int64  `json:"principal_units"`
	InterestRateBps int64  `json:"interest_rate_bps"`
	InterestType    string `json:"interest_type"`
	TermPeriods     int    `json:"term_periods"`
}

func (r loanTermsRequest) Validate(requireBorrower bool) []FieldError {
	var errs []FieldError

	if requireBorrower && r.BorrowerName == "" {
		errs = append(errs, FieldError{Field: "borrower_name", Message: "required"})
	}
	if r.PrincipalUnits <= 0 {
		errs = append(errs, FieldError{Field: "principal_units", Message: "must be greater than 0"})
	}
	if r.InterestRateBps < 0 {
		errs = append(errs, FieldError{Field: "interest_rate_bps", Message: "must not be negative"})
	}
	switch domain.InterestType(r.InterestType) {
	case domain.InterestTypeFlat, domain.InterestTypeReducing:
	default:
		errs = append(errs, FieldError{Field: "interest_type", Message: "must be flat or reducing"})
	}
	if r.TermPeriods < 1 {
		errs = append(errs, FieldError{Field: "term_periods", Message: "must be at least 1"})
	}

	return errs
}

// Preview runs the calculator without persisting anything; the origination UI
// uses it to show the schedule before an application is submitted.
func (h *LoanHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req loanTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(false); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	sched, err := schedule.Compute(
		money.New(req.PrincipalUnits, h.baseCurrency),
		req.InterestRateBps,
		req.TermPeriods,
		domain.InterestType(req.InterestType),
	)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sched)
}

func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req loanTermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if errs := req.Validate(true); len(errs) > 0 {
		RespondValidationError(w, errs)
		return
	}

	loan, err := h.loans.CreateLoan(r.Context(), ledger.CreateLoanRequest{
		BorrowerName:    req.BorrowerName,
		Principal:       money.New(req.PrincipalUnits, h.baseCurrency),
		InterestRateBps: req.InterestRateBps,
		InterestType:    domain.InterestType(req.InterestType),
		TermPeriods:     req.TermPeriods,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toLoanDTO(loan))
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toLoanDTO(loan))
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	status := domain.LoanStatus(r.URL.Query().Get("status"))

	loans, err := h.loans.ListLoans(r.Context(), status, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]loanDTO, len(loans))
	for i := range loans {
		dtos[i] = toLoanDTO(&loans[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LoanHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sched, err := h.loans.LoanSchedule(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sched)
}

type approveLoanRequest struct {
	SourceAccountID  string `json:"source_account_id"`
	DisbursementDate string `json:"disbursement_date"`
}

func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var req approveLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sourceID, err := uuid.Parse(req.SourceAccountID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "source_account_id", Message: "must be a UUID"}})
		return
	}

	var disbursementDate time.Time
	if req.DisbursementDate != "" {
		disbursementDate, err = time.Parse("2006-01-02", req.DisbursementDate)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "disbursement_date", Message: "must be YYYY-MM-DD"}})
			return
		}
	}

	loan, err := h.loans.ApproveLoan(r.Context(), ledger.ApproveLoanRequest{
		LoanID:           id,
		SourceAccountID:  sourceID,
		DisbursementDate: disbursementDate,
	})
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toLoanDTO(loan))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *LoanHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	loan, err := h.loans.SetLoanStatus(r.Context(), id, domain.LoanStatus(req.Status))
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toLoanDTO(loan))
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
