package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/multierr"
)

// AccountRegistryImpl implements AccountRegistry
type AccountRegistryImpl struct {
	transactor persistence.Transactor
	accounts   account.Repository
	users      clinic.UserRepository
	logger     *slog.Logger
}

// NewAccountRegistry creates an account registry
func NewAccountRegistry(logger *slog.Logger, transactor persistence.Transactor, accounts account.Repository, users clinic.UserRepository) AccountRegistry {
	return &AccountRegistryImpl{
		transactor: transactor,
		accounts:   accounts,
		users:      users,
		logger:     logger.With("component", "account_registry"),
	}
}

func (r *AccountRegistryImpl) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	wallet, err := r.accounts.GetWalletByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, account.ErrWalletNotFound{}) {
		return nil, err
	}

	err = r.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		user, err := r.users.WithTx(tx).GetByID(ctx, userID)
		if err != nil {
			return err
		}
		wallet, err = r.WalletInTx(ctx, tx, user)
		return err
	})
	if errors.Is(err, account.ErrDuplicateWallet{}) {
		// A concurrent request created it first.
		return r.accounts.GetWalletByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func (r *AccountRegistryImpl) CreateWallet(ctx context.Context, tx pgx.Tx, user *clinic.User) (*account.Account, error) {
	wallet, err := account.NewWallet(user.ID, user.Name)
	if err != nil {
		return nil, err
	}
	if err := r.accounts.WithTx(tx).Create(ctx, wallet); err != nil {
		return nil, err
	}
	r.logger.Info("Wallet created", "user_id", user.ID.String(), "account_id", wallet.ID.String())
	return wallet, nil
}

func (r *AccountRegistryImpl) WalletInTx(ctx context.Context, tx pgx.Tx, user *clinic.User) (*account.Account, error) {
	wallet, err := r.accounts.WithTx(tx).GetWalletByUserID(ctx, user.ID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, account.ErrWalletNotFound{}) {
		return nil, err
	}
	r.logger.Warn("User has no wallet, creating one", "user_id", user.ID.String())
	return r.CreateWallet(ctx, tx, user)
}

func (r *AccountRegistryImpl) GetSystemAccount(ctx context.Context, name account.SystemName) (*account.Account, error) {
	acc, err := r.accounts.GetBySystemName(ctx, name)
	if err != nil {
		if errors.Is(err, account.ErrSystemAccountMissing{}) {
			r.logger.Error("System account missing, ledger not seeded", "system_name", string(name))
		}
		return nil, err
	}
	return acc, nil
}

func (r *AccountRegistryImpl) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	acc, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Seed creates the missing system accounts, then reports every one that
// still cannot be read back.
func (r *AccountRegistryImpl) Seed(ctx context.Context) error {
	specs := account.SystemAccounts()
	for _, spec := range specs {
		acc, err := account.NewSystemAccount(spec)
		if err != nil {
			return fmt.Errorf("invalid system account spec %s: %w", spec.Name, err)
		}
		if err := r.accounts.CreateSystemIfAbsent(ctx, acc); err != nil {
			return err
		}
	}

	var errs error
	for _, spec := range specs {
		if _, err := r.accounts.GetBySystemName(ctx, spec.Name); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}
	r.logger.Info("System accounts ready", "count", len(specs))
	return nil
}
