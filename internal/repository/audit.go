package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kopesha/loan-core/internal/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record writes one audit row. Deliberately outside any business
// transaction: audit failure must never roll back the primary operation.
func (r *AuditRepository) Record(ctx context.Context, rec *domain.AuditRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, entity_type, entity_id, actor, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Action, rec.EntityType, rec.EntityID, rec.Actor, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType string, limit, offset int) ([]domain.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, action, entity_type, entity_id, actor, created_at
		 FROM audit_log WHERE entity_type = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		entityType, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByEntity: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		err := rows.Scan(&rec.ID, &rec.Action, &rec.EntityType, &rec.EntityID, &rec.Actor, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ListByEntity: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByEntity: rows: %w", err)
	}
	return records, nil
}
