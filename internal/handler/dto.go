package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

type loanDTO struct {
	ID                   uuid.UUID   `json:"id"`
	BorrowerName         string      `json:"borrower_name"`
	Principal            money.Money `json:"principal"`
	InterestRateBps      int64       `json:"interest_rate_bps"`
	InterestType         string      `json:"interest_type"`
	TermPeriods          int         `json:"term_periods"`
	DisbursementDate     *time.Time  `json:"disbursement_date"`
	Status               string      `json:"status"`
	OutstandingPrincipal money.Money `json:"outstanding_principal"`
	OutstandingInterest  money.Money `json:"outstanding_interest"`
	OutstandingPenalty   money.Money `json:"outstanding_penalty"`
	MonthlyInstallment   money.Money `json:"monthly_installment"`
	TotalPayable         money.Money `json:"total_payable"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

func toLoanDTO(l *domain.Loan) loanDTO {
	return loanDTO{
		ID:                   l.ID,
		BorrowerName:         l.BorrowerName,
		Principal:            l.Principal,
		InterestRateBps:      l.InterestRateBps,
		InterestType:         string(l.InterestType),
		TermPeriods:          l.TermPeriods,
		DisbursementDate:     l.DisbursementDate,
		Status:               string(l.Status),
		OutstandingPrincipal: l.OutstandingPrincipal,
		OutstandingInterest:  l.OutstandingInterest,
		OutstandingPenalty:   l.OutstandingPenalty,
		MonthlyInstallment:   l.MonthlyInstallment,
		TotalPayable:         l.TotalPayable,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

type accountDTO struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Balance   money.Money `json:"balance"`
	IsSystem  bool        `json:"is_system"`
	CreatedAt time.Time   `json:"created_at"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Name:      a.Name,
		Category:  string(a.Category),
		Balance:   a.Balance,
		IsSystem:  a.IsSystem,
		CreatedAt: a.CreatedAt,
	}
}

type repaymentDTO struct {
	ID            uuid.UUID   `json:"id"`
	LoanID        uuid.UUID   `json:"loan_id"`
	Amount        money.Money `json:"amount"`
	PrincipalPaid money.Money `json:"principal_paid"`
	InterestPaid  money.Money `json:"interest_paid"`
	PenaltyPaid   money.Money `json:"penalty_paid"`
	PaymentDate   time.Time   `json:"payment_date"`
	Reversed      bool        `json:"reversed"`
	CreatedAt     time.Time   `json:"created_at"`
}

func toRepaymentDTO(rp *domain.Repayment) repaymentDTO {
	return repaymentDTO{
		ID:            rp.ID,
		LoanID:        rp.LoanID,
		Amount:        rp.AmountPaid,
		PrincipalPaid: rp.PrincipalPaid,
		InterestPaid:  rp.InterestPaid,
		PenaltyPaid:   rp.PenaltyPaid,
		PaymentDate:   rp.PaymentDate,
		Reversed:      rp.Reversed,
		CreatedAt:     rp.CreatedAt,
	}
}

type journalLineDTO struct {
	ID        uuid.UUID   `json:"id"`
	EntryID   uuid.UUID   `json:"entry_id"`
	AccountID uuid.UUID   `json:"account_id"`
	Debit     money.Money `json:"debit"`
	Credit    money.Money `json:"credit"`
	Position  int         `json:"position"`
}

func toJournalLineDTO(l *domain.JournalLine) journalLineDTO {
	return journalLineDTO{
		ID:        l.ID,
		EntryID:   l.EntryID,
		AccountID: l.AccountID,
		Debit:     l.Debit,
		Credit:    l.Credit,
		Position:  l.Position,
	}
}

type journalEntryDTO struct {
	ID            uuid.UUID        `json:"id"`
	EntryDate     time.Time        `json:"entry_date"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   uuid.UUID        `json:"reference_id"`
	Memo          string           `json:"memo"`
	Lines         []journalLineDTO `json:"lines"`
	CreatedAt     time.Time        `json:"created_at"`
}

func toJournalEntryDTO(e *domain.JournalEntry) journalEntryDTO {
	lines := make([]journalLineDTO, len(e.Lines))
	for i := range e.Lines {
		lines[i] = toJournalLineDTO(&e.Lines[i])
	}
	return journalEntryDTO{
		ID:            e.ID,
		EntryDate:     e.EntryDate,
		ReferenceType: string(e.ReferenceType),
		ReferenceID:   e.ReferenceID,
		Memo:          e.Memo,
		Lines:         lines,
		CreatedAt:     e.CreatedAt,
	}
}

type closedPeriodDTO struct {
	ID               uuid.UUID   `json:"id"`
	Month            string      `json:"month"`
	NetProfit        money.Money `json:"net_profit"`
	TotalAssets      money.Money `json:"total_assets"`
	TotalLiabilities money.Money `json:"total_liabilities"`
	ClosedAt         time.Time   `json:"closed_at"`
	ClosedBy         string      `json:"closed_by"`
}

func toClosedPeriodDTO(p *domain.ClosedPeriod) closedPeriodDTO {
	return closedPeriodDTO{
		ID:               p.ID,
		Month:            p.Month.String(),
		NetProfit:        p.NetProfit,
		TotalAssets:      p.TotalAssets,
		TotalLiabilities: p.TotalLiabilities,
		ClosedAt:         p.ClosedAt,
		ClosedBy:         p.ClosedBy,
	}
}

type auditRecordDTO struct {
	ID         uuid.UUID `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

func toAuditRecordDTO(rec *domain.AuditRecord) auditRecordDTO {
	return auditRecordDTO{
		ID:         rec.ID,
		Action:     string(rec.Action),
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		Actor:      rec.Actor,
		CreatedAt:  rec.CreatedAt,
	}
}
