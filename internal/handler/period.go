package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
)

type periodService interface {
	CloseBooks(ctx context.Context, month domain.Month, targetEquityAccountID uuid.UUID) (*domain.ClosedPeriod, error)
	GetClosedPeriod(ctx context.Context, month domain.Month) (*domain.ClosedPeriod, error)
	ListClosedPeriods(ctx context.Context) ([]domain.ClosedPeriod, error)
}

type PeriodHandler struct {
	periods periodService
}

func NewPeriodHandler(periods periodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

type closeBooksRequest struct {
	EquityAccountID string `json:"equity_account_id"`
}

// Close locks the month named in the path ("2026-07") and returns the
// resulting P&L snapshot.
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	month, err := domain.ParseMonth(r.PathValue("month"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be YYYY-MM"}})
		return
	}

	var req closeBooksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	equityID, err := uuid.Parse(req.EquityAccountID)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "equity_account_id", Message: "must be a UUID"}})
		return
	}

	period, err := h.periods.CloseBooks(r.Context(), month, equityID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toClosedPeriodDTO(period))
}

func (h *PeriodHandler) Get(w http.ResponseWriter, r *http.Request) {
	month, err := domain.ParseMonth(r.PathValue("month"))
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "month", Message: "must be YYYY-MM"}})
		return
	}

	period, err := h.periods.GetClosedPeriod(r.Context(), month)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toClosedPeriodDTO(period))
}

func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.periods.ListClosedPeriods(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]closedPeriodDTO, len(periods))
	for i := range periods {
		dtos[i] = toClosedPeriodDTO(&periods[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
