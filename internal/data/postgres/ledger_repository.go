package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create writes the transaction header followed by each entry
func (r *LedgerRepository) Create(ctx context.Context, txn *ledger.Transaction) error {
	headerQuery := `
		INSERT INTO ledger_transactions (id, description, reference_kind, reference_id, reversal_of, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.querier.Exec(ctx, headerQuery,
		txn.ID,
		txn.Description,
		txn.ReferenceKind,
		txn.ReferenceID,
		txn.ReversalOf,
		txn.Status,
		txn.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create ledger transaction", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create ledger transaction: %w", err)
	}

	entryQuery := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, amount, side, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range txn.Entries {
		_, err := r.querier.Exec(ctx, entryQuery, e.ID, e.TransactionID, e.AccountID, e.Amount, e.Side, e.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to create ledger entry",
				"transaction_id", txn.ID.String(),
				"account_id", e.AccountID.String(),
				"error", err)
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}
	}

	return nil
}

// GetByID reads a transaction and its entries
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return r.get(ctx, id, false)
}

// LockByID reads a transaction FOR UPDATE so a concurrent void waits
func (r *LedgerRepository) LockByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return r.get(ctx, id, true)
}

func (r *LedgerRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*ledger.Transaction, error) {
	query := `
		SELECT id, description, reference_kind, reference_id, reversal_of, status, created_at
		FROM ledger_transactions
		WHERE id = $1
	`
	if lock {
		query += "FOR UPDATE\n"
	}

	var txn ledger.Transaction
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.Description,
		&txn.ReferenceKind,
		&txn.ReferenceID,
		&txn.ReversalOf,
		&txn.Status,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get ledger transaction", "transaction_id", id.String(), "error", err)
		return nil, persistence.ClassifyError(fmt.Errorf("failed to get ledger transaction: %w", err))
	}

	entries, err := r.entries(ctx, id)
	if err != nil {
		return nil, err
	}
	txn.Entries = entries
	return &txn, nil
}

func (r *LedgerRepository) entries(ctx context.Context, transactionID uuid.UUID) ([]ledger.Entry, error) {
	query := `
		SELECT id, transaction_id, account_id, amount, side, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		r.logger.Error("Failed to get ledger entries", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.AccountID, &e.Amount, &e.Side, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}
	return entries, nil
}

// MarkVoid flips a POSTED transaction to VOID
func (r *LedgerRepository) MarkVoid(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE ledger_transactions
		SET status = 'VOID'
		WHERE id = $1 AND status = 'POSTED'
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to void ledger transaction", "transaction_id", id.String(), "error", err)
		return fmt.Errorf("failed to void ledger transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ledger.ErrAlreadyVoid{TransactionID: id}
	}
	return nil
}

// History streams an account's entries newest first. Rows are pulled from the
// cursor as the caller ranges, and the query runs again on every range.
func (r *LedgerRepository) History(ctx context.Context, accountID uuid.UUID) iter.Seq2[ledger.HistoryItem, error] {
	query := `
		SELECT e.id, e.transaction_id, e.account_id, e.amount, e.side,
		       t.description, t.reference_kind, t.status, e.created_at
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1
		ORDER BY e.created_at DESC, e.id DESC
	`

	return func(yield func(ledger.HistoryItem, error) bool) {
		rows, err := r.querier.Query(ctx, query, accountID)
		if err != nil {
			r.logger.Error("Failed to query account history", "account_id", accountID.String(), "error", err)
			yield(ledger.HistoryItem{}, fmt.Errorf("failed to query account history: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var item ledger.HistoryItem
			err := rows.Scan(
				&item.EntryID,
				&item.TransactionID,
				&item.AccountID,
				&item.Amount,
				&item.Side,
				&item.Description,
				&item.ReferenceKind,
				&item.Status,
				&item.CreatedAt,
			)
			if err != nil {
				yield(ledger.HistoryItem{}, fmt.Errorf("failed to scan history item: %w", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(ledger.HistoryItem{}, fmt.Errorf("error iterating over account history: %w", err))
		}
	}
}

// SumSince totals an account's entries of one side and reference kind,
// skipping voided transactions.
func (r *LedgerRepository) SumSince(ctx context.Context, accountID uuid.UUID, side ledger.Side, kind ledger.ReferenceKind, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(e.amount), 0)::BIGINT
		FROM ledger_entries e
		JOIN ledger_transactions t ON t.id = e.transaction_id
		WHERE e.account_id = $1 AND e.side = $2 AND t.reference_kind = $3
		  AND t.status = 'POSTED' AND e.created_at >= $4
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, accountID, side, kind, since).Scan(&total); err != nil {
		r.logger.Error("Failed to sum entries", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to sum entries: %w", err)
	}
	return total, nil
}

// Totals aggregates debit and credit volume for every account with entries
func (r *LedgerRepository) Totals(ctx context.Context) (map[uuid.UUID]ledger.SideTotals, error) {
	query := `
		SELECT account_id,
		       COALESCE(SUM(amount) FILTER (WHERE side = 'DEBIT'), 0)::BIGINT,
		       COALESCE(SUM(amount) FILTER (WHERE side = 'CREDIT'), 0)::BIGINT
		FROM ledger_entries
		GROUP BY account_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to aggregate ledger entries", "error", err)
		return nil, fmt.Errorf("failed to aggregate ledger entries: %w", err)
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]ledger.SideTotals)
	for rows.Next() {
		var id uuid.UUID
		var t ledger.SideTotals
		if err := rows.Scan(&id, &t.Debit, &t.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan entry totals: %w", err)
		}
		totals[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over entry totals: %w", err)
	}
	return totals, nil
}
