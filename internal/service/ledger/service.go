// Package ledger implements the accounting core: journal posting, loan
// approval and disbursement, repayment allocation, period close, reversal
// and balance reconciliation. Every business event commits atomically with
// its balanced journal entry.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/allocation"
	"github.com/kopesha/loan-core/internal/config"
	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/repository"
)

// Seeded chart-of-accounts IDs; must match the migration seeds.
var (
	CashAccountID             = uuid.MustParse("00000000-0000-0000-0001-000000000001")
	LoanPortfolioAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000002")
	InterestIncomeAccountID   = uuid.MustParse("00000000-0000-0000-0001-000000000003")
	PenaltyIncomeAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000004")
	OperatingExpenseAccountID = uuid.MustParse("00000000-0000-0000-0001-000000000005")
	OwnerEquityAccountID      = uuid.MustParse("00000000-0000-0000-0001-000000000006")
	IncomeSummaryAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000007")
)

type loanRepo interface {
	Create(ctx context.Context, loan *domain.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	List(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Loan, error)
	Approve(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error
	UpdateOutstanding(ctx context.Context, tx *sql.Tx, loan *domain.Loan) error
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedCurrent, next domain.LoanStatus) error
}

type accountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Create(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance money.Money, newVersion int64) error
	SumByCategory(ctx context.Context, tx *sql.Tx, category domain.AccountCategory, currency money.Currency) (money.Money, error)
	ListWithComputedBalances(ctx context.Context) ([]repository.ComputedBalance, error)
}

type journalRepo interface {
	CreateEntry(ctx context.Context, tx *sql.Tx, entry *domain.JournalEntry) error
	GetByReference(ctx context.Context, refType domain.ReferenceType, refID uuid.UUID) (*domain.JournalEntry, error)
	ListLinesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.JournalLine, int, error)
	SumExpensesInRange(ctx context.Context, tx *sql.Tx, start, end time.Time, currency money.Currency) (money.Money, error)
	UnbalancedEntryIDs(ctx context.Context) ([]uuid.UUID, error)
}

type repaymentRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rp *domain.Repayment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Repayment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID) ([]domain.Repayment, error)
	MarkReversed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	SumPaidInRange(ctx context.Context, tx *sql.Tx, start, end time.Time, currency money.Currency) (interest, penalty money.Money, err error)
}

type periodRepo interface {
	LockMonth(ctx context.Context, tx *sql.Tx, month domain.Month, exclusive bool) error
	IsClosed(ctx context.Context, tx *sql.Tx, date time.Time) (bool, error)
	Create(ctx context.Context, tx *sql.Tx, p *domain.ClosedPeriod) error
	Get(ctx context.Context, month domain.Month) (*domain.ClosedPeriod, error)
	List(ctx context.Context) ([]domain.ClosedPeriod, error)
}

type auditRepo interface {
	Record(ctx context.Context, rec *domain.AuditRecord) error
	ListByEntity(ctx context.Context, entityType string, limit, offset int) ([]domain.AuditRecord, error)
}

type Service struct {
	loans      loanRepo
	accounts   accountRepo
	journal    journalRepo
	repayments repaymentRepo
	periods    periodRepo
	auditLog   auditRepo
	allocator  *allocation.Allocator
	db         *sql.DB
	config     *config.Config
}

func NewService(
	loans loanRepo,
	accounts accountRepo,
	journal journalRepo,
	repayments repaymentRepo,
	periods periodRepo,
	auditLog auditRepo,
	db *sql.DB,
	cfg *config.Config,
) *Service {
	return &Service{
		loans:      loans,
		accounts:   accounts,
		journal:    journal,
		repayments: repayments,
		periods:    periods,
		auditLog:   auditLog,
		allocator:  allocation.New(cfg.OverpayTolerancePct),
		db:         db,
		config:     cfg,
	}
}

func (s *Service) baseCurrency() money.Currency {
	return money.Currency(s.config.BaseCurrency)
}
