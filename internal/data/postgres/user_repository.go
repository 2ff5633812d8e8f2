package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements clinic.UserRepository for PostgreSQL
type UserRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(logger *slog.Logger, db *persistence.PostgresDB) clinic.UserRepository {
	return &UserRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx pgx.Tx) clinic.UserRepository {
	return &UserRepository{querier: tx, logger: r.logger}
}

// Create inserts a user. A taken phone number is reported as ErrDuplicatePhone.
func (r *UserRepository) Create(ctx context.Context, user *clinic.User) error {
	query := `
		INSERT INTO users (id, phone, role, name, referral_code, upline_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		user.ID,
		user.Phone,
		user.Role,
		user.Name,
		user.ReferralCode,
		user.UplineID,
		user.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "users_phone_key") {
			return clinic.ErrDuplicatePhone{Phone: user.Phone}
		}
		r.logger.Error("Failed to create user", "id", user.ID.String(), "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*clinic.User, error) {
	query := `
		SELECT id, phone, role, name, referral_code, upline_id, created_at
		FROM users
		WHERE id = $1
	`

	user, err := scanUser(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrUserNotFound{UserID: id}
		}
		r.logger.Error("Failed to get user", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByPhone retrieves a user by phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*clinic.User, error) {
	query := `
		SELECT id, phone, role, name, referral_code, upline_id, created_at
		FROM users
		WHERE phone = $1
	`

	user, err := scanUser(r.querier.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrUserNotFound{Phone: phone}
		}
		r.logger.Error("Failed to get user by phone", "error", err)
		return nil, fmt.Errorf("failed to get user by phone: %w", err)
	}
	return user, nil
}

// CountByRole counts users holding role
func (r *UserRepository) CountByRole(ctx context.Context, role clinic.Role) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = $1`

	var count int64
	if err := r.querier.QueryRow(ctx, query, role).Scan(&count); err != nil {
		r.logger.Error("Failed to count users", "role", string(role), "error", err)
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (*clinic.User, error) {
	var u clinic.User
	if err := row.Scan(&u.ID, &u.Phone, &u.Role, &u.Name, &u.ReferralCode, &u.UplineID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
