package ledger_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopesha/loan-core/internal/config"
	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/money"
	"github.com/kopesha/loan-core/internal/repository"
	"github.com/kopesha/loan-core/internal/service/ledger"
	"github.com/kopesha/loan-core/internal/testutil"
)

func kes(units int64) money.Money {
	return money.New(units, money.CurrencyKES)
}

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewLoanRepository(db),
		repository.NewAccountRepository(db),
		repository.NewJournalRepository(db),
		repository.NewRepaymentRepository(db),
		repository.NewPeriodRepository(db),
		repository.NewAuditRepository(db),
		db,
		&config.Config{
			BaseCurrency:        "KES",
			OverpayTolerancePct: 10,
			RetryAttempts:       3,
		},
	)
}

// fundCash books owner capital so disbursements do not drive cash negative.
func fundCash(t *testing.T, svc *ledger.Service, units int64) {
	t.Helper()
	_, err := svc.PostEquityInjection(context.Background(), ledger.EquityInjectionRequest{
		EquityAccountID: ledger.OwnerEquityAccountID,
		CashAccountID:   ledger.CashAccountID,
		Amount:          kes(units),
		Memo:            "opening capital",
	})
	require.NoError(t, err)
}

// approveTestLoan seeds a pending loan and approves it, disbursing from the
// system cash account.
func approveTestLoan(t *testing.T, db *sql.DB, svc *ledger.Service, principalUnits, rateBps int64, term int, disbursed time.Time) *domain.Loan {
	t.Helper()
	seeded := testutil.SeedPendingLoan(t, db, principalUnits, rateBps, term, domain.InterestTypeFlat)

	loan, err := svc.ApproveLoan(context.Background(), ledger.ApproveLoanRequest{
		LoanID:           seeded.ID,
		SourceAccountID:  ledger.CashAccountID,
		DisbursementDate: disbursed,
	})
	require.NoError(t, err)
	return loan
}

func TestApproveLoan_DisbursesAndFreezesTerms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)

	// 100,000.00 flat at 5% over 6 periods.
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Equal(t, kes(10000000), loan.OutstandingPrincipal)
	assert.Equal(t, kes(3000000), loan.OutstandingInterest)
	assert.Equal(t, kes(2166667), loan.MonthlyInstallment)
	assert.Equal(t, kes(13000000), loan.TotalPayable)
	require.NotNil(t, loan.DisbursementDate)

	// Disbursement moves principal from cash into the portfolio.
	assert.Equal(t, int64(40000000), testutil.GetAccountBalance(t, db, testutil.CashAccountID))
	assert.Equal(t, int64(10000000), testutil.GetAccountBalance(t, db, testutil.LoanPortfolioAccountID))
	assert.Equal(t, 2, testutil.CountJournalLines(t, db, domain.ReferenceTypeDisbursement, loan.ID))

	var auditCount int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM audit_log WHERE action = $1 AND entity_id = $2`,
		domain.AuditActionLoanApproved, loan.ID,
	).Scan(&auditCount)
	require.NoError(t, err)
	assert.Equal(t, 1, auditCount)

	// A second approval finds the loan already active.
	_, err = svc.ApproveLoan(ctx, ledger.ApproveLoanRequest{
		LoanID:          loan.ID,
		SourceAccountID: ledger.CashAccountID,
	})
	require.ErrorIs(t, err, domain.ErrLoanNotPending)
}

func TestSetLoanStatus_Transitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	seeded := testutil.SeedPendingLoan(t, db, 10000000, 500, 6, domain.InterestTypeFlat)

	// Pending applications cannot jump straight to active.
	_, err := svc.SetLoanStatus(ctx, seeded.ID, domain.LoanStatusActive)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	loan, err := svc.SetLoanStatus(ctx, seeded.ID, domain.LoanStatusReassess)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusReassess, loan.Status)

	loan, err = svc.SetLoanStatus(ctx, seeded.ID, domain.LoanStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusRejected, loan.Status)

	// Rejection is terminal.
	_, err = svc.SetLoanStatus(ctx, seeded.ID, domain.LoanStatusPending)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRecordRepayment_WaterfallAndLedger(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})
	testutil.SetLoanPenalty(t, db, loan.ID, 100000)

	// 8,000.00 covers the 1,000.00 penalty, then interest.
	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(800000),
		CashAccountID: ledger.CashAccountID,
	})
	require.NoError(t, err)

	assert.Equal(t, kes(100000), rp.PenaltyPaid)
	assert.Equal(t, kes(700000), rp.InterestPaid)
	assert.True(t, rp.PrincipalPaid.IsZero())

	principal, interest, penalty := testutil.GetLoanOutstanding(t, db, loan.ID)
	assert.Equal(t, int64(10000000), principal)
	assert.Equal(t, int64(2300000), interest)
	assert.Equal(t, int64(0), penalty)

	// Cash receives the full payment; income accounts take their slices.
	assert.Equal(t, int64(40800000), testutil.GetAccountBalance(t, db, testutil.CashAccountID))
	assert.Equal(t, int64(700000), testutil.GetAccountBalance(t, db, testutil.InterestIncomeAccountID))
	assert.Equal(t, int64(100000), testutil.GetAccountBalance(t, db, testutil.PenaltyIncomeAccountID))

	// Zero-amount principal line is dropped: cash debit + two income credits.
	assert.Equal(t, 3, testutil.CountJournalLines(t, db, domain.ReferenceTypeRepayment, rp.ID))

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestRecordRepayment_ExactPayoffCompletesLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(13000000),
		CashAccountID: ledger.CashAccountID,
	})
	require.NoError(t, err)
	assert.Equal(t, kes(10000000), rp.PrincipalPaid)
	assert.Equal(t, kes(3000000), rp.InterestPaid)

	assert.Equal(t, domain.LoanStatusCompleted, testutil.GetLoanStatus(t, db, loan.ID))
	assert.Equal(t, int64(0), testutil.GetAccountBalance(t, db, testutil.LoanPortfolioAccountID))

	// Completed loans accept no further payments.
	_, err = svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(100),
		CashAccountID: ledger.CashAccountID,
	})
	require.ErrorIs(t, err, domain.ErrLoanNotActive)
}

func TestRecordRepayment_OverpaymentRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	// Outstanding is 130,000.00; tolerance tops out at 143,000.00.
	_, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(14300001),
		CashAccountID: ledger.CashAccountID,
	})
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)

	// The rejected payment leaves no trace.
	rps, err := svc.ListRepayments(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, rps)
	principal, interest, _ := testutil.GetLoanOutstanding(t, db, loan.ID)
	assert.Equal(t, int64(10000000), principal)
	assert.Equal(t, int64(3000000), interest)

	// Within tolerance the excess pays down principal.
	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(14300000),
		CashAccountID: ledger.CashAccountID,
	})
	require.NoError(t, err)
	assert.Equal(t, kes(11300000), rp.PrincipalPaid)
	assert.Equal(t, domain.LoanStatusCompleted, testutil.GetLoanStatus(t, db, loan.ID))
}

func TestReverseRepayment_RestoresState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	cashBefore := testutil.GetAccountBalance(t, db, testutil.CashAccountID)
	interestBefore := testutil.GetAccountBalance(t, db, testutil.InterestIncomeAccountID)

	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(2166667),
		CashAccountID: ledger.CashAccountID,
	})
	require.NoError(t, err)

	contra, err := svc.ReverseRepayment(ctx, rp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReferenceTypeReversal, contra.ReferenceType)
	require.Len(t, contra.Lines, 2)

	// Balances and outstanding buckets are back where they started.
	assert.Equal(t, cashBefore, testutil.GetAccountBalance(t, db, testutil.CashAccountID))
	assert.Equal(t, interestBefore, testutil.GetAccountBalance(t, db, testutil.InterestIncomeAccountID))
	principal, interest, _ := testutil.GetLoanOutstanding(t, db, loan.ID)
	assert.Equal(t, int64(10000000), principal)
	assert.Equal(t, int64(3000000), interest)

	reversed, err := svc.GetRepayment(ctx, rp.ID)
	require.NoError(t, err)
	assert.True(t, reversed.Reversed)

	// The reversed flag is one-way; a second reversal is refused.
	_, err = svc.ReverseRepayment(ctx, rp.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyReversed)

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReverseRepayment_ReactivatesCompletedLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(13000000),
		CashAccountID: ledger.CashAccountID,
	})
	require.NoError(t, err)
	require.Equal(t, domain.LoanStatusCompleted, testutil.GetLoanStatus(t, db, loan.ID))

	_, err = svc.ReverseRepayment(ctx, rp.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.LoanStatusActive, testutil.GetLoanStatus(t, db, loan.ID))
	principal, interest, _ := testutil.GetLoanOutstanding(t, db, loan.ID)
	assert.Equal(t, int64(10000000), principal)
	assert.Equal(t, int64(3000000), interest)
}

func TestCloseBooks_LocksMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)

	march := domain.Month{Year: 2024, Month: time.March}
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6,
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	rp, err := svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(2166667),
		CashAccountID: ledger.CashAccountID,
		PaymentDate:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = svc.PostExpense(ctx, ledger.ExpenseRequest{
		ExpenseAccountID: ledger.OperatingExpenseAccountID,
		CashAccountID:    ledger.CashAccountID,
		Amount:           kes(500000),
		Date:             time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Memo:             "office rent",
	})
	require.NoError(t, err)

	equityBefore := testutil.GetAccountBalance(t, db, testutil.OwnerEquityAccountID)

	period, err := svc.CloseBooks(ctx, march, ledger.OwnerEquityAccountID)
	require.NoError(t, err)

	// 21,666.67 of interest received minus 5,000.00 of expenses.
	assert.Equal(t, kes(1666667), period.NetProfit)

	// The closing transfer moves the profit into equity and is dated inside
	// the closed month.
	assert.Equal(t, equityBefore+1666667, testutil.GetAccountBalance(t, db, testutil.OwnerEquityAccountID))
	assert.Equal(t, int64(-1666667), testutil.GetAccountBalance(t, db, testutil.IncomeSummaryAccountID))
	assert.Equal(t, 2, testutil.CountJournalLines(t, db, domain.ReferenceTypeTransfer, period.ID))

	// Closing the same month twice fails.
	_, err = svc.CloseBooks(ctx, march, ledger.OwnerEquityAccountID)
	require.ErrorIs(t, err, domain.ErrPeriodAlreadyClosed)

	// Nothing may be posted into the closed month anymore.
	_, err = svc.PostExpense(ctx, ledger.ExpenseRequest{
		ExpenseAccountID: ledger.OperatingExpenseAccountID,
		CashAccountID:    ledger.CashAccountID,
		Amount:           kes(100),
		Date:             time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, domain.ErrPeriodClosed)

	_, err = svc.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID:        loan.ID,
		Amount:        kes(100),
		CashAccountID: ledger.CashAccountID,
		PaymentDate:   time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, domain.ErrPeriodClosed)

	// The March repayment is frozen in the closed month; it cannot be
	// reversed either.
	_, err = svc.ReverseRepayment(ctx, rp.ID)
	require.ErrorIs(t, err, domain.ErrPeriodClosed)

	got, err := svc.GetClosedPeriod(ctx, march)
	require.NoError(t, err)
	assert.Equal(t, period.ID, got.ID)
}

func TestCloseBooks_ZeroActivityMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	month := domain.Month{Year: 2024, Month: time.January}
	period, err := svc.CloseBooks(ctx, month, ledger.OwnerEquityAccountID)
	require.NoError(t, err)

	assert.True(t, period.NetProfit.IsZero())
	// No closing transfer is posted for a zero result.
	assert.Equal(t, 0, testutil.CountJournalLines(t, db, domain.ReferenceTypeTransfer, period.ID))
}

func TestConcurrentRepayments_Serialize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)
	loan := approveTestLoan(t, db, svc, 10000000, 500, 6, time.Time{})

	// Two halves of the payoff racing; the row lock forces them to allocate
	// one after the other.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordRepayment(ctx, ledger.RepaymentRequest{
				LoanID:        loan.ID,
				Amount:        kes(6500000),
				CashAccountID: ledger.CashAccountID,
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, domain.LoanStatusCompleted, testutil.GetLoanStatus(t, db, loan.ID))
	principal, interest, penalty := testutil.GetLoanOutstanding(t, db, loan.ID)
	assert.Equal(t, int64(0), principal+interest+penalty)

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestReconcile_DetectsDriftAndUnbalancedEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	fundCash(t, svc, 50000000)

	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	require.True(t, report.Clean())

	// Corrupt a cached balance behind the service's back.
	_, err = db.Exec(`UPDATE accounts SET balance_units = balance_units + 1 WHERE id = $1`, testutil.CashAccountID)
	require.NoError(t, err)

	// Plant an entry whose lines do not sum to zero.
	entryID := uuid.New()
	_, err = db.Exec(
		`INSERT INTO journal_entries (id, entry_date, reference_type, reference_id)
		 VALUES ($1, now(), 'adjustment', $2)`, entryID, uuid.New())
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO journal_lines (id, entry_id, account_id, debit_units, credit_units, currency, position)
		 VALUES ($1, $2, $3, 100, 0, 'KES', 0), ($4, $2, $5, 0, 50, 'KES', 1)`,
		uuid.New(), entryID, testutil.CashAccountID, uuid.New(), testutil.OwnerEquityAccountID)
	require.NoError(t, err)

	report, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	require.NotEmpty(t, report.Drifts)
	assert.Contains(t, report.UnbalancedEntries, entryID)
}

func TestAccounts_SystemGuardAndLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	err := svc.DeleteAccount(ctx, ledger.CashAccountID)
	require.ErrorIs(t, err, domain.ErrSystemAccount)

	acct, err := svc.CreateAccount(ctx, ledger.CreateAccountRequest{
		Name:     "Marketing Expenses",
		Category: domain.AccountCategoryExpense,
	})
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())

	require.NoError(t, svc.DeleteAccount(ctx, acct.ID))
	_, err = svc.GetAccount(ctx, acct.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.DeleteAccount(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
