package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/money"
)

type ReferenceType string

const (
	ReferenceTypeDisbursement ReferenceType = "disbursement"
	ReferenceTypeRepayment    ReferenceType = "repayment"
	ReferenceTypeExpense      ReferenceType = "expense"
	ReferenceTypeTransfer     ReferenceType = "transfer"
	ReferenceTypeInjection    ReferenceType = "injection"
	ReferenceTypeAdjustment   ReferenceType = "adjustment"
	ReferenceTypeReversal     ReferenceType = "reversal"
)

// JournalLine is one side of a posting. Exactly one of Debit/Credit is
// nonzero.
type JournalLine struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	AccountID uuid.UUID
	Debit     money.Money
	Credit    money.Money
	Position  int
}

// JournalEntry is an atomic, balanced set of debit/credit lines recording one
// business event. Entries are append-only: corrections are made by posting an
// offsetting entry, never by editing or deleting an existing one.
type JournalEntry struct {
	ID            uuid.UUID
	EntryDate     time.Time
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	Memo          string
	Lines         []JournalLine
	CreatedAt     time.Time
}

// Validate checks the zero-sum invariant: every line has exactly one nonzero
// side and total debits equal total credits.
func (e *JournalEntry) Validate() error {
	if len(e.Lines) < 2 {
		return ErrUnbalancedEntry
	}
	var debits, credits money.Money
	for _, l := range e.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return ErrUnbalancedEntry
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return ErrUnbalancedEntry
		}
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	if !debits.Equal(credits) {
		return ErrUnbalancedEntry
	}
	return nil
}

// Mirror returns the contra lines of the entry, debit and credit swapped,
// preserving line order. Used to build reversal entries.
func (e *JournalEntry) Mirror() []JournalLine {
	mirrored := make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		mirrored[i] = JournalLine{
			AccountID: l.AccountID,
			Debit:     l.Credit,
			Credit:    l.Debit,
			Position:  l.Position,
		}
	}
	return mirrored
}
