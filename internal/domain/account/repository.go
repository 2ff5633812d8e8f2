package account

import (
	"context"
	"fmt"

	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	// CreateSystemIfAbsent inserts a system account unless one with the same name exists.
	CreateSystemIfAbsent(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*Account, error)
	GetBySystemName(ctx context.Context, name SystemName) (*Account, error)
	List(ctx context.Context) ([]*Account, error)
	SumBalanceByCategory(ctx context.Context, category Category) (int64, error)

	// LockForUpdate acquires row locks on every id in ascending id order and
	// returns the locked rows keyed by id.
	LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Account, error)
	// ApplyDelta adds a signed amount to the stored balance. Callers must hold the row lock.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is matches any ErrAccountNotFound when the target id is empty, and the NotFound class.
func (e ErrAccountNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// ErrWalletNotFound indicates a user without a wallet
type ErrWalletNotFound struct {
	UserID uuid.UUID
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found for user: " + e.UserID.String()
}

func (e ErrWalletNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrWalletNotFound)
	return ok && (t.UserID == uuid.Nil || t.UserID == e.UserID)
}

// ErrSystemAccountMissing means the ledger was not seeded. It is a configuration
// error, never a client error.
type ErrSystemAccountMissing struct {
	Name SystemName
}

func (e ErrSystemAccountMissing) Error() string {
	return "system account missing: " + string(e.Name)
}

func (e ErrSystemAccountMissing) Is(target error) bool {
	if target == shared.ErrConfiguration {
		return true
	}
	t, ok := target.(ErrSystemAccountMissing)
	return ok && (t.Name == "" || t.Name == e.Name)
}

// ErrDuplicateWallet indicates the one-wallet-per-user rule was hit
type ErrDuplicateWallet struct {
	UserID uuid.UUID
}

func (e ErrDuplicateWallet) Error() string {
	return "wallet already exists for user: " + e.UserID.String()
}

func (e ErrDuplicateWallet) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrDuplicateWallet)
	return ok
}

// ErrInsufficientBalance means a wallet cannot cover a debit under its row lock
type ErrInsufficientBalance struct {
	AccountID uuid.UUID
	Balance   int64
	Requested int64
}

func (e ErrInsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance on account %s: have %d, need %d", e.AccountID, e.Balance, e.Requested)
}

func (e ErrInsufficientBalance) Is(target error) bool {
	if target == shared.ErrInsufficientBalance {
		return true
	}
	_, ok := target.(ErrInsufficientBalance)
	return ok
}
