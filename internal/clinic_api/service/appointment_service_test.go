package service

import (
	"context"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentService_SeedCatalogIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	require.NoError(t, f.appointments.SeedCatalog(ctx))
	services, err := f.appointments.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, len(clinic.DefaultCatalog()))
}

func TestAppointmentService_CreateAppointment(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)
	patient := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	checkup := f.service(t, "General Checkup")

	appt, err := f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{
		PatientID: patient.User.ID,
		ServiceID: checkup.ID,
		StartTime: time.Now().Add(48 * time.Hour),
		Notes:     "sensitive left molar",
	})
	require.NoError(t, err)
	assert.Equal(t, clinic.AppointmentRequested, appt.Status)
	assert.Equal(t, "WEB", appt.Source)

	listed, err := f.appointments.ListAppointments(ctx, clinic.AppointmentFilter{PatientID: &patient.User.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, appt.ID, listed[0].ID)

	_, err = f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{PatientID: patient.User.ID, ServiceID: uuid.New(), StartTime: time.Now()})
	assert.ErrorIs(t, err, clinic.ErrServiceNotFound{})
	_, err = f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{PatientID: uuid.New(), ServiceID: checkup.ID, StartTime: time.Now()})
	assert.ErrorIs(t, err, clinic.ErrUserNotFound{})
	_, err = f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{PatientID: patient.User.ID, ServiceID: checkup.ID})
	assert.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestAppointmentService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)
	patient := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	appt := f.confirmedAppointment(t, patient.User.ID, f.service(t, "Root Canal").ID)

	_, err := f.appointments.UpdateStatus(ctx, appt.ID, clinic.AppointmentCompleted)
	assert.ErrorIs(t, err, shared.ErrInvalidRequest)

	_, err = f.appointments.UpdateStatus(ctx, appt.ID, clinic.AppointmentConfirmed)
	assert.ErrorIs(t, err, clinic.ErrInvalidAppointmentState{})

	noShow, err := f.appointments.UpdateStatus(ctx, appt.ID, clinic.AppointmentNoShow)
	require.NoError(t, err)
	assert.Equal(t, clinic.AppointmentNoShow, noShow.Status)

	_, err = f.appointments.UpdateStatus(ctx, uuid.New(), clinic.AppointmentConfirmed)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAppointmentService_CancelAppointment(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)
	patient := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	checkup := f.service(t, "General Checkup")

	book := func(start time.Time) *clinic.Appointment {
		appt, err := f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{PatientID: patient.User.ID, ServiceID: checkup.ID, StartTime: start})
		require.NoError(t, err)
		return appt
	}

	t.Run("outside the window", func(t *testing.T) {
		appt := book(time.Now().Add(48 * time.Hour))
		cancelled, err := f.appointments.CancelAppointment(ctx, appt.ID, patient.User.ID)
		require.NoError(t, err)
		assert.Equal(t, clinic.AppointmentCancelled, cancelled.Status)
	})

	t.Run("inside the window", func(t *testing.T) {
		appt := book(time.Now().Add(2 * time.Hour))
		_, err := f.appointments.CancelAppointment(ctx, appt.ID, patient.User.ID)
		assert.ErrorIs(t, err, clinic.ErrCancellationWindow{})
		assert.ErrorIs(t, err, shared.ErrInvalidRequest)

		stored, err := f.repos.Appointments.GetByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, clinic.AppointmentRequested, stored.Status)
	})

	t.Run("someone else's appointment", func(t *testing.T) {
		appt := book(time.Now().Add(48 * time.Hour))
		_, err := f.appointments.CancelAppointment(ctx, appt.ID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("already cancelled", func(t *testing.T) {
		appt := book(time.Now().Add(48 * time.Hour))
		_, err := f.appointments.CancelAppointment(ctx, appt.ID, patient.User.ID)
		require.NoError(t, err)
		_, err = f.appointments.CancelAppointment(ctx, appt.ID, patient.User.ID)
		assert.ErrorIs(t, err, clinic.ErrInvalidAppointmentState{})
	})
}
