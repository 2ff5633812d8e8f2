package service

import (
	"context"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
)

// ReconcilerImpl implements Reconciler
type ReconcilerImpl struct {
	accounts   account.Repository
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

// NewReconciler creates a reconciler
func NewReconciler(logger *slog.Logger, accounts account.Repository, ledgerRepo ledger.Repository) Reconciler {
	return &ReconcilerImpl{
		accounts:   accounts,
		ledgerRepo: ledgerRepo,
		logger:     logger.With("component", "reconciler"),
	}
}

// Reconcile recomputes every balance from the entries and returns the
// accounts whose stored balance differs. Voided transactions stay in the
// sum; their reversals cancel them out.
func (r *ReconcilerImpl) Reconcile(ctx context.Context) ([]Mismatch, error) {
	accounts, err := r.accounts.List(ctx)
	if err != nil {
		return nil, err
	}
	totals, err := r.ledgerRepo.Totals(ctx)
	if err != nil {
		return nil, err
	}

	mismatches := []Mismatch{}
	for _, acc := range accounts {
		computed := totals[acc.ID].Net(acc.Category)
		if computed == acc.Balance {
			continue
		}
		r.logger.Error("Balance mismatch",
			"account_id", acc.ID.String(),
			"stored", acc.Balance,
			"computed", computed,
		)
		mismatches = append(mismatches, Mismatch{
			AccountID: acc.ID,
			Name:      acc.Name,
			Category:  acc.Category,
			Stored:    acc.Balance,
			Computed:  computed,
		})
	}

	r.logger.Info("Reconciliation finished", "accounts", len(accounts), "mismatches", len(mismatches))
	return mismatches, nil
}
