package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/auth"
	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
)

// audit records the trail for a successful state change. Failures are logged
// and swallowed: the primary operation has already committed and must not be
// reported as failed because of the trail.
func (s *Service) audit(ctx context.Context, action domain.AuditAction, entityType string, entityID uuid.UUID) {
	rec := &domain.AuditRecord{
		ID:         uuid.New(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Actor:      auth.ActorLabel(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.auditLog.Record(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("audit record failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

// AuditTrail returns the recorded actions for one entity type, newest first.
func (s *Service) AuditTrail(ctx context.Context, entityType string, limit, offset int) ([]domain.AuditRecord, error) {
	records, err := s.auditLog.ListByEntity(ctx, entityType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("AuditTrail: %w", err)
	}
	return records, nil
}
