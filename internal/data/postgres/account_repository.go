// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a pgx.Tx so a posting, its balance updates
// and its outbox row commit together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, name, category, user_id, system_name, balance, version, created_at, updated_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A second wallet for the same user violates
// accounts_user_id_key and is reported as ErrDuplicateWallet.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, name, category, user_id, system_name, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Category,
		acc.UserID,
		nullableSystemName(acc.SystemName),
		acc.Balance,
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if acc.UserID != nil && persistence.IsUniqueViolation(err, "accounts_user_id_key") {
			return account.ErrDuplicateWallet{UserID: *acc.UserID}
		}
		r.logger.Error("Failed to create account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// CreateSystemIfAbsent inserts a system account unless its name is taken
func (r *AccountRepository) CreateSystemIfAbsent(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, name, category, user_id, system_name, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, $4, 0, $5, $6, $7)
		ON CONFLICT (system_name) DO NOTHING
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Name,
		acc.Category,
		string(acc.SystemName),
		acc.Version,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to seed system account", "system_name", string(acc.SystemName), "error", err)
		return fmt.Errorf("failed to seed system account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetWalletByUserID retrieves the wallet owned by userID
func (r *AccountRepository) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND category = 'LIABILITY'
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrWalletNotFound{UserID: userID}
		}
		r.logger.Error("Failed to get wallet", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return acc, nil
}

// GetBySystemName retrieves a seeded system account
func (r *AccountRepository) GetBySystemName(ctx context.Context, name account.SystemName) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE system_name = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, string(name)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrSystemAccountMissing{Name: name}
		}
		r.logger.Error("Failed to get system account", "system_name", string(name), "error", err)
		return nil, fmt.Errorf("failed to get system account: %w", err)
	}

	return acc, nil
}

// List returns every account ordered by id
func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}

	return accounts, nil
}

// SumBalanceByCategory totals the stored balances of one category
func (r *AccountRepository) SumBalanceByCategory(ctx context.Context, category account.Category) (int64, error) {
	query := `
		SELECT COALESCE(SUM(balance), 0)::BIGINT
		FROM accounts
		WHERE category = $1
	`

	var total int64
	if err := r.querier.QueryRow(ctx, query, category).Scan(&total); err != nil {
		r.logger.Error("Failed to sum balances", "category", string(category), "error", err)
		return 0, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

// LockForUpdate takes a row lock on each account, one statement per row in
// ascending id order so two postings touching the same accounts never deadlock.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range account.SortedIDs(ids) {
		acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, account.ErrAccountNotFound{AccountID: id}
			}
			r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
			return nil, persistence.ClassifyError(fmt.Errorf("failed to lock account for update: %w", err))
		}
		locked[id] = acc
	}

	return locked, nil
}

// ApplyDelta adds delta to the stored balance
func (r *AccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to update account balance", "id", id.String(), "error", err)
		return fmt.Errorf("failed to update account balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountID: id}
	}

	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	var systemName *string
	err := row.Scan(
		&acc.ID,
		&acc.Name,
		&acc.Category,
		&acc.UserID,
		&systemName,
		&acc.Balance,
		&acc.Version,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if systemName != nil {
		acc.SystemName = account.SystemName(*systemName)
	}
	return &acc, nil
}

func nullableSystemName(name account.SystemName) *string {
	if name == "" {
		return nil
	}
	s := string(name)
	return &s
}
