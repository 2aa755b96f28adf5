package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/money"
)

type AccountCategory string

const (
	AccountCategoryAsset     AccountCategory = "asset"
	AccountCategoryLiability AccountCategory = "liability"
	AccountCategoryEquity    AccountCategory = "equity"
	AccountCategoryIncome    AccountCategory = "income"
	AccountCategoryExpense   AccountCategory = "expense"
)

// Account is a ledger account. Balance is a cached value that must always
// equal the signed sum of the account's journal lines; the reconciliation
// routine verifies this and any drift is a system error.
type Account struct {
	ID        uuid.UUID
	Name      string
	Category  AccountCategory
	Balance   money.Money
	IsSystem  bool
	Version   int64
	CreatedAt time.Time
}

// DebitNormal reports whether a debit increases this account's balance.
// Assets and expenses carry debit-normal balances; liabilities, equity and
// income carry credit-normal balances.
func (c AccountCategory) DebitNormal() bool {
	return c == AccountCategoryAsset || c == AccountCategoryExpense
}

// SignedDelta converts a (debit, credit) pair into the balance movement for
// an account of this category.
func (c AccountCategory) SignedDelta(debit, credit money.Money) money.Money {
	if c.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
