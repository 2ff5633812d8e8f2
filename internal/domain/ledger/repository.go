package ledger

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists transactions and their entries. Entries are append-only;
// the only update a transaction ever sees is MarkVoid.
type Repository interface {
	// Create writes the header and all of its entries.
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// LockByID reads the header FOR UPDATE together with its entries.
	LockByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	MarkVoid(ctx context.Context, id uuid.UUID) error
	// History streams an account's entries newest first. Each range re-runs the query.
	History(ctx context.Context, accountID uuid.UUID) iter.Seq2[HistoryItem, error]
	// SumSince totals the entries an account has on side for kind, created at or after since.
	SumSince(ctx context.Context, accountID uuid.UUID, side Side, kind ReferenceKind, since time.Time) (int64, error)
	// Totals returns, per account, the debit and credit sums of every entry ever posted.
	Totals(ctx context.Context) (map[uuid.UUID]SideTotals, error)
	WithTx(tx pgx.Tx) Repository
}

// SideTotals is the raw debit and credit volume of one account
type SideTotals struct {
	Debit  int64
	Credit int64
}

// Net applies the category sign rule to the totals.
func (t SideTotals) Net(category account.Category) int64 {
	return SignedAmount(category, SideDebit, t.Debit) + SignedAmount(category, SideCredit, t.Credit)
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "ledger transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	// An empty target id matches any ErrTransactionNotFound
	return t.TransactionID == uuid.Nil || e.TransactionID == t.TransactionID
}

// ErrUnbalancedTransaction means debits and credits differ. Callers build legs
// themselves, so this always points at a bug upstream.
type ErrUnbalancedTransaction struct {
	Debits  int64
	Credits int64
}

func (e ErrUnbalancedTransaction) Error() string {
	return fmt.Sprintf("unbalanced transaction: debits %d != credits %d", e.Debits, e.Credits)
}

func (e ErrUnbalancedTransaction) Is(target error) bool {
	_, ok := target.(ErrUnbalancedTransaction)
	return ok
}

// ErrInvalidLeg reports a malformed leg. Index is -1 for problems with the leg set as a whole.
type ErrInvalidLeg struct {
	Index  int
	Reason string
}

func (e ErrInvalidLeg) Error() string {
	if e.Index < 0 {
		return "invalid legs: " + e.Reason
	}
	return fmt.Sprintf("invalid leg %d: %s", e.Index, e.Reason)
}

func (e ErrInvalidLeg) Is(target error) bool {
	_, ok := target.(ErrInvalidLeg)
	return ok
}

// ErrAlreadyVoid is returned when voiding a transaction twice
type ErrAlreadyVoid struct {
	TransactionID uuid.UUID
}

func (e ErrAlreadyVoid) Error() string {
	return "transaction already void: " + e.TransactionID.String()
}

func (e ErrAlreadyVoid) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	t, ok := target.(ErrAlreadyVoid)
	return ok && (t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID)
}

// ErrCannotVoidReversal is returned when asked to void a reversing transaction
type ErrCannotVoidReversal struct {
	TransactionID uuid.UUID
}

func (e ErrCannotVoidReversal) Error() string {
	return "cannot void a reversal transaction: " + e.TransactionID.String()
}

func (e ErrCannotVoidReversal) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrCannotVoidReversal)
	return ok
}
