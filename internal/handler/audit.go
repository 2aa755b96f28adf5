package handler

import (
	"context"
	"net/http"

	"github.com/kopesha/loan-core/internal/domain"
)

type auditService interface {
	AuditTrail(ctx context.Context, entityType string, limit, offset int) ([]domain.AuditRecord, error)
}

type AuditHandler struct {
	audit auditService
}

func NewAuditHandler(audit auditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// Trail lists the audit records for one entity type, e.g. GET
// /audit?entity_type=loan.
func (h *AuditHandler) Trail(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		RespondValidationError(w, []FieldError{{Field: "entity_type", Message: "required"}})
		return
	}

	limit, offset := paginationParams(r)
	records, err := h.audit.AuditTrail(r.Context(), entityType, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]auditRecordDTO, len(records))
	for i := range records {
		dtos[i] = toAuditRecordDTO(&records[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
