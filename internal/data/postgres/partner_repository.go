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

const partnerColumns = `id, user_id, company_name, type, city, commission_rate::TEXT, unique_code, status, created_at`

// PartnerRepository implements clinic.PartnerRepository for PostgreSQL
type PartnerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPartnerRepository creates a new PostgreSQL partner repository
func NewPartnerRepository(logger *slog.Logger, db *persistence.PostgresDB) clinic.PartnerRepository {
	return &PartnerRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *PartnerRepository) WithTx(tx pgx.Tx) clinic.PartnerRepository {
	return &PartnerRepository{querier: tx, logger: r.logger}
}

// Create inserts a partner profile. commission_rate is NUMERIC and travels as text.
// A second profile for the same user or a taken code is ErrDuplicatePartner.
func (r *PartnerRepository) Create(ctx context.Context, p *clinic.Partner) error {
	query := `
		INSERT INTO partners (id, user_id, company_name, type, city, commission_rate, unique_code, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.CompanyName,
		p.Type,
		p.City,
		p.CommissionRate.String(),
		p.UniqueCode,
		p.Status,
		p.CreatedAt,
	)
	if err != nil {
		switch {
		case persistence.IsUniqueViolation(err, "partners_user_id_key"):
			return clinic.ErrDuplicatePartner{Key: p.UserID.String()}
		case persistence.IsUniqueViolation(err, "partners_unique_code_key"):
			return clinic.ErrDuplicatePartner{Key: p.UniqueCode}
		}
		r.logger.Error("Failed to create partner", "id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return nil
}

// GetByUserID retrieves the partner profile of a user
func (r *PartnerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*clinic.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE user_id = $1`
	return r.getOne(ctx, query, userID, userID.String())
}

// GetByCode retrieves a partner by its public referral code
func (r *PartnerRepository) GetByCode(ctx context.Context, code string) (*clinic.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE unique_code = $1`
	return r.getOne(ctx, query, code, code)
}

// List returns every partner profile, oldest first
func (r *PartnerRepository) List(ctx context.Context) ([]*clinic.Partner, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners ORDER BY created_at, id`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list partners", "error", err)
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	partners := []*clinic.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over partners: %w", err)
	}
	return partners, nil
}

func (r *PartnerRepository) getOne(ctx context.Context, query string, arg any, key string) (*clinic.Partner, error) {
	p, err := scanPartner(r.querier.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrPartnerNotFound{Key: key}
		}
		r.logger.Error("Failed to get partner", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return p, nil
}

func scanPartner(row pgx.Row) (*clinic.Partner, error) {
	var p clinic.Partner
	var rate string
	if err := row.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.Type, &p.City, &rate, &p.UniqueCode, &p.Status, &p.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.CommissionRate, err = parseDecimal(rate); err != nil {
		return nil, fmt.Errorf("invalid commission rate %q: %w", rate, err)
	}
	return &p, nil
}
