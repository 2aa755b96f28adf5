package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
)

// Seeded system accounts; IDs match migrations/002_seed_chart_of_accounts.
var (
	CashAccountID             = uuid.MustParse("00000000-0000-0000-0001-000000000001")
	LoanPortfolioAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000002")
	InterestIncomeAccountID   = uuid.MustParse("00000000-0000-0000-0001-000000000003")
	PenaltyIncomeAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000004")
	OperatingExpenseAccountID = uuid.MustParse("00000000-0000-0000-0001-000000000005")
	OwnerEquityAccountID      = uuid.MustParse("00000000-0000-0000-0001-000000000006")
	IncomeSummaryAccountID    = uuid.MustParse("00000000-0000-0000-0001-000000000007")
)

const TestCurrency = "KES"

// SeedPendingLoan inserts a loan awaiting approval.
func SeedPendingLoan(t *testing.T, db *sql.DB, principalUnits, rateBps int64, term int, interestType domain.InterestType) *domain.Loan {
	t.Helper()

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:                   uuid.New(),
		BorrowerName:         "Test Borrower",
		Principal:            money.New(principalUnits, TestCurrency),
		InterestRateBps:      rateBps,
		InterestType:         interestType,
		TermPeriods:          term,
		Status:               domain.LoanStatusPending,
		OutstandingPrincipal: money.Zero(TestCurrency),
		OutstandingInterest:  money.Zero(TestCurrency),
		OutstandingPenalty:   money.Zero(TestCurrency),
		MonthlyInstallment:   money.Zero(TestCurrency),
		TotalPayable:         money.Zero(TestCurrency),
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	_, err := db.Exec(
		`INSERT INTO loans (
			id, borrower_name, principal_units, currency, interest_rate_bps, interest_type,
			term_periods, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		loan.ID, loan.BorrowerName, principalUnits, TestCurrency, rateBps, interestType,
		term, loan.Status, loan.Version, now, now,
	)
	if err != nil {
		t.Fatalf("seed pending loan: %v", err)
	}
	return loan
}

// SetLoanPenalty adds a penalty balance onto an active loan directly; penalty
// assessment itself is outside the accounting core.
func SetLoanPenalty(t *testing.T, db *sql.DB, loanID uuid.UUID, penaltyUnits int64) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE loans SET outstanding_penalty_units = $1, version = version + 1 WHERE id = $2`,
		penaltyUnits, loanID,
	)
	if err != nil {
		t.Fatalf("set loan penalty: %v", err)
	}
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance_units FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

func GetLoanOutstanding(t *testing.T, db *sql.DB, loanID uuid.UUID) (principal, interest, penalty int64) {
	t.Helper()

	err := db.QueryRow(
		`SELECT outstanding_principal_units, outstanding_interest_units, outstanding_penalty_units
		 FROM loans WHERE id = $1`, loanID,
	).Scan(&principal, &interest, &penalty)
	if err != nil {
		t.Fatalf("get loan outstanding %s: %v", loanID, err)
	}
	return principal, interest, penalty
}

func GetLoanStatus(t *testing.T, db *sql.DB, loanID uuid.UUID) domain.LoanStatus {
	t.Helper()

	var status domain.LoanStatus
	err := db.QueryRow(`SELECT status FROM loans WHERE id = $1`, loanID).Scan(&status)
	if err != nil {
		t.Fatalf("get loan status %s: %v", loanID, err)
	}
	return status
}

func CountJournalLines(t *testing.T, db *sql.DB, refType domain.ReferenceType, refID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM journal_lines l
		 JOIN journal_entries e ON e.id = l.entry_id
		 WHERE e.reference_type = $1 AND e.reference_id = $2`,
		refType, refID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count journal lines for %s/%s: %v", refType, refID, err)
	}
	return count
}
