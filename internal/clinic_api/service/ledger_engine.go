package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerEngineImpl implements LedgerEngine
type LedgerEngineImpl struct {
	transactor persistence.Transactor
	accounts   account.Repository
	ledgerRepo ledger.Repository
	invoices   clinic.InvoiceRepository
	events     EventRecorder
	logger     *slog.Logger
}

// NewLedgerEngine creates the ledger engine
func NewLedgerEngine(
	logger *slog.Logger,
	transactor persistence.Transactor,
	accounts account.Repository,
	ledgerRepo ledger.Repository,
	invoices clinic.InvoiceRepository,
	events EventRecorder,
) LedgerEngine {
	return &LedgerEngineImpl{
		transactor: transactor,
		accounts:   accounts,
		ledgerRepo: ledgerRepo,
		invoices:   invoices,
		events:     events,
		logger:     logger.With("component", "ledger_engine"),
	}
}

func (e *LedgerEngineImpl) PostTransaction(ctx context.Context, req PostRequest) (*ledger.Transaction, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}

	var txn *ledger.Transaction
	err := e.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		txn, err = e.post(ctx, tx, req, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (e *LedgerEngineImpl) PostInTx(ctx context.Context, tx pgx.Tx, req PostRequest) (*ledger.Transaction, error) {
	if err := validatePost(req); err != nil {
		return nil, err
	}
	return e.post(ctx, tx, req, nil)
}

func validatePost(req PostRequest) error {
	if !req.ReferenceKind.Valid() {
		return fmt.Errorf("%w: unknown reference kind %q", shared.ErrInvalidRequest, req.ReferenceKind)
	}
	return ledger.ValidateLegs(req.Legs)
}

// post locks every touched account, writes the header and entries, applies
// one delta per account and records the event. Legs are already validated.
func (e *LedgerEngineImpl) post(ctx context.Context, tx pgx.Tx, req PostRequest, reversalOf *uuid.UUID) (*ledger.Transaction, error) {
	accountsTx := e.accounts.WithTx(tx)

	locked, err := accountsTx.LockForUpdate(ctx, ledger.AccountIDs(req.Legs))
	if err != nil {
		return nil, err
	}
	categories := make(map[uuid.UUID]account.Category, len(locked))
	for id, acc := range locked {
		categories[id] = acc.Category
	}
	deltas, err := ledger.Deltas(req.Legs, categories)
	if err != nil {
		return nil, err
	}
	for id, delta := range deltas {
		acc := locked[id]
		after, ok := shared.AddMinor(acc.Balance, delta)
		if !ok {
			return nil, ledger.ErrInvalidLeg{Index: -1, Reason: "balance of account " + id.String() + " overflows"}
		}
		// A reversal must not leave a wallet owing credit it already spent.
		if reversalOf != nil && acc.IsWallet() && after < 0 {
			return nil, account.ErrInsufficientBalance{AccountID: id, Balance: acc.Balance, Requested: -delta}
		}
	}

	txn := ledger.NewTransaction(req.Description, req.ReferenceKind, req.ReferenceID, req.Legs)
	txn.ReversalOf = reversalOf
	if err := e.ledgerRepo.WithTx(tx).Create(ctx, txn); err != nil {
		return nil, err
	}

	for _, id := range account.SortedIDs(ledger.AccountIDs(req.Legs)) {
		if deltas[id] == 0 {
			continue
		}
		if err := accountsTx.ApplyDelta(ctx, id, deltas[id]); err != nil {
			return nil, err
		}
	}

	if err := e.events.Record(ctx, tx, ledger.PostedEvent(txn)); err != nil {
		return nil, err
	}

	e.logger.Info("Transaction posted",
		"transaction_id", txn.ID.String(),
		"reference_kind", string(txn.ReferenceKind),
		"entries", len(txn.Entries),
	)
	return txn, nil
}

// VoidTransaction reverses a POSTED transaction. Voiding twice reports
// ErrAlreadyVoid and changes nothing.
func (e *LedgerEngineImpl) VoidTransaction(ctx context.Context, transactionID uuid.UUID) (*ledger.Transaction, error) {
	var reversal *ledger.Transaction
	err := e.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		ledgerTx := e.ledgerRepo.WithTx(tx)

		original, err := ledgerTx.LockByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if original.ReversalOf != nil {
			return ledger.ErrCannotVoidReversal{TransactionID: transactionID}
		}
		if original.Status == ledger.StatusVoid {
			return ledger.ErrAlreadyVoid{TransactionID: transactionID}
		}

		req := PostRequest{
			Description:   "Reversal of " + original.Description,
			ReferenceKind: ledger.ReferenceAdjustment,
			ReferenceID:   original.ReferenceID,
			Legs:          ledger.ReversalLegs(original.Entries),
		}
		if err := ledger.ValidateLegs(req.Legs); err != nil {
			return fmt.Errorf("stored transaction %s does not balance: %w", transactionID, err)
		}
		reversal, err = e.post(ctx, tx, req, &original.ID)
		if err != nil {
			return err
		}

		if err := ledgerTx.MarkVoid(ctx, original.ID); err != nil {
			return err
		}
		if err := e.invoices.WithTx(tx).MarkVoidByTransactionID(ctx, original.ID); err != nil {
			return err
		}
		return e.events.Record(ctx, tx, ledger.VoidedEvent(original, reversal.ID))
	})
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyVoid{}) {
			e.logger.Info("Void skipped, already void", "transaction_id", transactionID.String())
		}
		return nil, err
	}

	e.logger.Info("Transaction voided",
		"transaction_id", transactionID.String(),
		"reversal_id", reversal.ID.String(),
	)
	return reversal, nil
}

// GetHistory checks the account exists, then streams every one of its
// entries. Every range runs the lookup again.
func (e *LedgerEngineImpl) GetHistory(ctx context.Context, accountID uuid.UUID) iter.Seq2[ledger.HistoryItem, error] {
	return func(yield func(ledger.HistoryItem, error) bool) {
		if _, err := e.accounts.GetByID(ctx, accountID); err != nil {
			yield(ledger.HistoryItem{}, err)
			return
		}
		for item, err := range e.ledgerRepo.History(ctx, accountID) {
			if !yield(item, err) || err != nil {
				return
			}
		}
	}
}
