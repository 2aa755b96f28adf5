package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionLoanCreated     AuditAction = "loan.created"
	AuditActionLoanApproved    AuditAction = "loan.approved"
	AuditActionLoanStatusSet   AuditAction = "loan.status_set"
	AuditActionRepaymentPosted AuditAction = "repayment.posted"
	AuditActionRepaymentReversed AuditAction = "repayment.reversed"
	AuditActionExpensePosted   AuditAction = "expense.posted"
	AuditActionEquityInjected  AuditAction = "equity.injected"
	AuditActionPeriodClosed    AuditAction = "period.closed"
	AuditActionAccountCreated  AuditAction = "account.created"
)

// AuditRecord is a best-effort trail of who did what. Writing it must never
// fail the primary operation (log-and-continue).
type AuditRecord struct {
	ID         uuid.UUID
	Action     AuditAction
	EntityType string
	EntityID   uuid.UUID
	Actor      string
	CreatedAt  time.Time
}
