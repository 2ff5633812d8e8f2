package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var decimalHour = decimal.NewFromInt(int64(time.Hour))

// AppointmentServiceImpl implements AppointmentService
type AppointmentServiceImpl struct {
	transactor   persistence.Transactor
	config       ConfigStore
	users        clinic.UserRepository
	services     clinic.ServiceRepository
	appointments clinic.AppointmentRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewAppointmentService creates the appointment service
func NewAppointmentService(
	logger *slog.Logger,
	transactor persistence.Transactor,
	config ConfigStore,
	users clinic.UserRepository,
	services clinic.ServiceRepository,
	appointments clinic.AppointmentRepository,
) AppointmentService {
	return &AppointmentServiceImpl{
		transactor:   transactor,
		config:       config,
		users:        users,
		services:     services,
		appointments: appointments,
		now:          time.Now,
		logger:       logger.With("component", "appointment_service"),
	}
}

func (s *AppointmentServiceImpl) ListServices(ctx context.Context) ([]*clinic.Service, error) {
	return s.services.List(ctx)
}

// SeedCatalog inserts the default services that are not in the catalog yet
func (s *AppointmentServiceImpl) SeedCatalog(ctx context.Context) error {
	for _, svc := range clinic.DefaultCatalog() {
		svc.ID = uuid.New()
		if err := s.services.CreateIfAbsent(ctx, &svc); err != nil {
			return fmt.Errorf("failed to seed service %s: %w", svc.Name, err)
		}
	}
	s.logger.Info("Service catalog seeded")
	return nil
}

func (s *AppointmentServiceImpl) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*clinic.Appointment, error) {
	if req.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", shared.ErrInvalidRequest)
	}
	if _, err := s.users.GetByID(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if _, err := s.services.GetByID(ctx, req.ServiceID); err != nil {
		return nil, err
	}

	appt := clinic.NewAppointment(req.PatientID, req.ServiceID, req.StartTime, req.Notes, req.Source)
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment requested",
		"appointment_id", appt.ID.String(),
		"patient_id", appt.PatientID.String(),
		"start_time", appt.StartTime,
	)
	return appt, nil
}

func (s *AppointmentServiceImpl) ListAppointments(ctx context.Context, filter clinic.AppointmentFilter) ([]*clinic.Appointment, error) {
	return s.appointments.List(ctx, filter)
}

// UpdateStatus confirms an appointment or marks it a no-show. Completion
// happens through checkout and cancellation through CancelAppointment.
func (s *AppointmentServiceImpl) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status clinic.AppointmentStatus) (*clinic.Appointment, error) {
	if status != clinic.AppointmentConfirmed && status != clinic.AppointmentNoShow {
		return nil, fmt.Errorf("%w: status %q cannot be set directly", shared.ErrInvalidRequest, status)
	}
	return s.transition(ctx, appointmentID, func(appt *clinic.Appointment) error {
		return appt.TransitionTo(status)
	})
}

// CancelAppointment cancels on behalf of the patient. Cancelling inside
// cancellation_policy_hours of the start time is refused.
func (s *AppointmentServiceImpl) CancelAppointment(ctx context.Context, appointmentID, patientID uuid.UUID) (*clinic.Appointment, error) {
	hours, err := s.config.GetNumber(ctx, settings.CancellationPolicyHours)
	if err != nil {
		return nil, err
	}
	window := time.Duration(hours.Mul(decimalHour).IntPart())

	return s.transition(ctx, appointmentID, func(appt *clinic.Appointment) error {
		if appt.PatientID != patientID {
			return clinic.ErrAppointmentNotFound{AppointmentID: appointmentID}
		}
		if !appt.Status.CanTransition(clinic.AppointmentCancelled) {
			return clinic.ErrInvalidAppointmentState{AppointmentID: appt.ID, From: appt.Status, To: clinic.AppointmentCancelled}
		}
		if appt.StartTime.Sub(s.now()) < window {
			return clinic.ErrCancellationWindow{AppointmentID: appt.ID, Hours: hours.IntPart()}
		}
		return appt.TransitionTo(clinic.AppointmentCancelled)
	})
}

func (s *AppointmentServiceImpl) transition(ctx context.Context, appointmentID uuid.UUID, apply func(*clinic.Appointment) error) (*clinic.Appointment, error) {
	var appt *clinic.Appointment
	err := s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		appointmentsTx := s.appointments.WithTx(tx)

		var err error
		appt, err = appointmentsTx.LockForUpdate(ctx, appointmentID)
		if err != nil {
			return err
		}
		from := appt.Status
		if err := apply(appt); err != nil {
			return err
		}
		if err := appointmentsTx.UpdateStatus(ctx, appt.ID, appt.Status); err != nil {
			return err
		}
		s.logger.Info("Appointment status changed",
			"appointment_id", appt.ID.String(),
			"from", string(from),
			"to", string(appt.Status),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}
