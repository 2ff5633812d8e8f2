package clinic

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	CountByRole(ctx context.Context, role Role) (int64, error)
	WithTx(tx pgx.Tx) UserRepository
}

// PartnerRepository persists partner profiles
type PartnerRepository interface {
	Create(ctx context.Context, partner *Partner) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Partner, error)
	GetByCode(ctx context.Context, code string) (*Partner, error)
	// List returns every partner, oldest first.
	List(ctx context.Context) ([]*Partner, error)
	WithTx(tx pgx.Tx) PartnerRepository
}

// ServiceRepository reads and seeds the service catalog
type ServiceRepository interface {
	CreateIfAbsent(ctx context.Context, service *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context) ([]*Service, error)
	WithTx(tx pgx.Tx) ServiceRepository
}

// AppointmentFilter narrows ListAppointments. Zero fields do not filter.
type AppointmentFilter struct {
	PatientID *uuid.UUID
	Status    AppointmentStatus
	Limit     int
}

// AppointmentRepository persists appointments
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// LockForUpdate reads the appointment FOR UPDATE.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) error
	List(ctx context.Context, filter AppointmentFilter) ([]*Appointment, error)
	WithTx(tx pgx.Tx) AppointmentRepository
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Invoice, error)
	MarkVoidByTransactionID(ctx context.Context, transactionID uuid.UUID) error
	WithTx(tx pgx.Tx) InvoiceRepository
}
