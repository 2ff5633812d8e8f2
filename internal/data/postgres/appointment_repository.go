package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const appointmentColumns = `id, patient_id, doctor_id, service_id, start_time, status, notes, source, created_at`

// AppointmentRepository implements clinic.AppointmentRepository for PostgreSQL
type AppointmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAppointmentRepository creates a new PostgreSQL appointment repository
func NewAppointmentRepository(logger *slog.Logger, db *persistence.PostgresDB) clinic.AppointmentRepository {
	return &AppointmentRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *AppointmentRepository) WithTx(tx pgx.Tx) clinic.AppointmentRepository {
	return &AppointmentRepository{querier: tx, logger: r.logger}
}

// Create inserts an appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *clinic.Appointment) error {
	query := `
		INSERT INTO appointments (id, patient_id, doctor_id, service_id, start_time, status, notes, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		a.ID,
		a.PatientID,
		a.DoctorID,
		a.ServiceID,
		a.StartTime,
		a.Status,
		a.Notes,
		a.Source,
		a.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create appointment", "id", a.ID.String(), "error", err)
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// GetByID retrieves an appointment without locking it
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// LockForUpdate reads the appointment and holds its row lock until the
// surrounding transaction ends. Checkout takes this lock before any account lock.
func (r *AppointmentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`

	a, err := r.getOne(ctx, query, id)
	if err != nil && !errors.Is(err, clinic.ErrAppointmentNotFound{}) {
		return nil, persistence.ClassifyError(err)
	}
	return a, err
}

func (r *AppointmentRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*clinic.Appointment, error) {
	a, err := scanAppointment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrAppointmentNotFound{AppointmentID: id}
		}
		r.logger.Error("Failed to get appointment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// UpdateStatus stores a new lifecycle status
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status clinic.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update appointment status", "id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return clinic.ErrAppointmentNotFound{AppointmentID: id}
	}
	return nil
}

// List returns appointments newest first, narrowed by filter
func (r *AppointmentRepository) List(ctx context.Context, filter clinic.AppointmentFilter) ([]*clinic.Appointment, error) {
	var (
		where []string
		args  []any
	)
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		where = append(where, "patient_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list appointments", "error", err)
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*clinic.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over appointments: %w", err)
	}
	return appointments, nil
}

func scanAppointment(row pgx.Row) (*clinic.Appointment, error) {
	var a clinic.Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ServiceID, &a.StartTime, &a.Status, &a.Notes, &a.Source, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
