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

const serviceColumns = `id, name, category, price, loyalty_eligible, loyalty_rate::TEXT, commission_eligible`

// ServiceRepository implements clinic.ServiceRepository for PostgreSQL
type ServiceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewServiceRepository creates a new PostgreSQL service catalog repository
func NewServiceRepository(logger *slog.Logger, db *persistence.PostgresDB) clinic.ServiceRepository {
	return &ServiceRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *ServiceRepository) WithTx(tx pgx.Tx) clinic.ServiceRepository {
	return &ServiceRepository{querier: tx, logger: r.logger}
}

// CreateIfAbsent inserts a catalog item unless one with the same name exists
func (r *ServiceRepository) CreateIfAbsent(ctx context.Context, s *clinic.Service) error {
	query := `
		INSERT INTO services (id, name, category, price, loyalty_eligible, loyalty_rate, commission_eligible)
		VALUES ($1, $2, $3, $4, $5, $6::NUMERIC, $7)
		ON CONFLICT (name) DO NOTHING
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.Name,
		s.Category,
		s.Price,
		s.LoyaltyEligible,
		s.LoyaltyRate.String(),
		s.CommissionEligible,
	)
	if err != nil {
		r.logger.Error("Failed to seed service", "name", s.Name, "error", err)
		return fmt.Errorf("failed to seed service: %w", err)
	}
	return nil
}

// GetByID retrieves a catalog item
func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*clinic.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	s, err := scanService(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrServiceNotFound{ServiceID: id}
		}
		r.logger.Error("Failed to get service", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return s, nil
}

// List returns the catalog ordered by price
func (r *ServiceRepository) List(ctx context.Context) ([]*clinic.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY price, name`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list services", "error", err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*clinic.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over services: %w", err)
	}
	return services, nil
}

func scanService(row pgx.Row) (*clinic.Service, error) {
	var s clinic.Service
	var rate string
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.LoyaltyEligible, &rate, &s.CommissionEligible); err != nil {
		return nil, err
	}
	var err error
	if s.LoyaltyRate, err = parseDecimal(rate); err != nil {
		return nil, fmt.Errorf("invalid loyalty rate %q: %w", rate, err)
	}
	return &s, nil
}
