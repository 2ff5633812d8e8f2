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

// InvoiceRepository implements clinic.InvoiceRepository for PostgreSQL
type InvoiceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewInvoiceRepository creates a new PostgreSQL invoice repository
func NewInvoiceRepository(logger *slog.Logger, db *persistence.PostgresDB) clinic.InvoiceRepository {
	return &InvoiceRepository{querier: db.Pool(), logger: logger}
}

// WithTx returns a repository bound to tx
func (r *InvoiceRepository) WithTx(tx pgx.Tx) clinic.InvoiceRepository {
	return &InvoiceRepository{querier: tx, logger: r.logger}
}

// Create inserts an invoice. One invoice per appointment is enforced by
// invoices_appointment_id_key.
func (r *InvoiceRepository) Create(ctx context.Context, inv *clinic.Invoice) error {
	query := `
		INSERT INTO invoices (id, patient_id, appointment_id, total_amount, wallet_used, status, payment_method, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		inv.ID,
		inv.PatientID,
		inv.AppointmentID,
		inv.TotalAmount,
		inv.WalletUsed,
		inv.Status,
		inv.PaymentMethod,
		inv.TransactionID,
		inv.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, "invoices_appointment_id_key") {
			return clinic.ErrInvalidAppointmentState{AppointmentID: inv.AppointmentID, From: clinic.AppointmentCompleted, To: clinic.AppointmentCompleted}
		}
		r.logger.Error("Failed to create invoice", "id", inv.ID.String(), "error", err)
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByAppointmentID retrieves the invoice of a checked-out appointment
func (r *InvoiceRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*clinic.Invoice, error) {
	query := `
		SELECT id, patient_id, appointment_id, total_amount, wallet_used, status, payment_method, transaction_id, created_at
		FROM invoices
		WHERE appointment_id = $1
	`

	var inv clinic.Invoice
	err := r.querier.QueryRow(ctx, query, appointmentID).Scan(
		&inv.ID,
		&inv.PatientID,
		&inv.AppointmentID,
		&inv.TotalAmount,
		&inv.WalletUsed,
		&inv.Status,
		&inv.PaymentMethod,
		&inv.TransactionID,
		&inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, clinic.ErrInvoiceNotFound{AppointmentID: appointmentID}
		}
		r.logger.Error("Failed to get invoice", "appointment_id", appointmentID.String(), "error", err)
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

// MarkVoidByTransactionID voids the invoice settled by a ledger transaction.
// Transactions that settle no invoice are left alone.
func (r *InvoiceRepository) MarkVoidByTransactionID(ctx context.Context, transactionID uuid.UUID) error {
	query := `UPDATE invoices SET status = $1 WHERE transaction_id = $2`

	if _, err := r.querier.Exec(ctx, query, clinic.InvoiceVoid, transactionID); err != nil {
		r.logger.Error("Failed to void invoice", "transaction_id", transactionID.String(), "error", err)
		return fmt.Errorf("failed to void invoice: %w", err)
	}
	return nil
}
