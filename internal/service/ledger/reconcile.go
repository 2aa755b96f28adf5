package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kopesha/loan-core/internal/logging"
	"github.com/kopesha/loan-core/internal/money"
)

// Drift is one account whose cached balance disagrees with the signed sum of
// its journal lines.
type Drift struct {
	AccountID uuid.UUID   `json:"account_id"`
	Name      string      `json:"name"`
	Cached    money.Money `json:"cached"`
	Computed  money.Money `json:"computed"`
}

// ReconciliationReport is the outcome of one reconciliation sweep.
type ReconciliationReport struct {
	AccountsChecked   int         `json:"accounts_checked"`
	Drifts            []Drift     `json:"drifts"`
	UnbalancedEntries []uuid.UUID `json:"unbalanced_entries"`
}

func (r *ReconciliationReport) Clean() bool {
	return len(r.Drifts) == 0 && len(r.UnbalancedEntries) == 0
}

// Reconcile recomputes every account balance from the journal and scans for
// unbalanced entries. Cached balances are a materialized view of the journal;
// any drift is reported as a system error and never silently patched.
func (s *Service) Reconcile(ctx context.Context) (*ReconciliationReport, error) {
	log := logging.FromContext(ctx)

	balances, err := s.accounts.ListWithComputedBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}

	report := &ReconciliationReport{AccountsChecked: len(balances)}
	for _, b := range balances {
		if b.Account.Balance.Equal(b.Computed) {
			continue
		}
		report.Drifts = append(report.Drifts, Drift{
			AccountID: b.Account.ID,
			Name:      b.Account.Name,
			Cached:    b.Account.Balance,
			Computed:  b.Computed,
		})
		log.Error("account balance drift detected",
			"account_id", b.Account.ID,
			"account", b.Account.Name,
			"cached", b.Account.Balance,
			"computed", b.Computed,
		)
	}

	unbalanced, err := s.journal.UnbalancedEntryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	report.UnbalancedEntries = unbalanced
	for _, id := range unbalanced {
		log.Error("unbalanced journal entry detected", "entry_id", id)
	}

	if report.Clean() {
		log.Info("reconciliation clean", "accounts_checked", report.AccountsChecked)
	}
	return report, nil
}
