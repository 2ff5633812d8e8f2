package clinic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is a state of the appointment lifecycle
type AppointmentStatus string

const (
	AppointmentRequested AppointmentStatus = "REQUESTED"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentNoShow    AppointmentStatus = "NO_SHOW"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentRequested: {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
}

// CanTransition reports whether from -> to is allowed. COMPLETED, CANCELLED
// and NO_SHOW are terminal.
func (s AppointmentStatus) CanTransition(to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// Appointment is a booked service slot
type Appointment struct {
	ID        uuid.UUID         `json:"id"`
	PatientID uuid.UUID         `json:"patient_id"`
	DoctorID  *uuid.UUID        `json:"doctor_id,omitempty"`
	ServiceID uuid.UUID         `json:"service_id"`
	StartTime time.Time         `json:"start_time"`
	Status    AppointmentStatus `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	Source    string            `json:"source,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewAppointment creates a REQUESTED appointment.
func NewAppointment(patientID, serviceID uuid.UUID, start time.Time, notes, source string) *Appointment {
	if source == "" {
		source = "WEB"
	}
	return &Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		ServiceID: serviceID,
		StartTime: start.UTC(),
		Status:    AppointmentRequested,
		Notes:     notes,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
}

// TransitionTo moves the appointment to status or reports why it cannot.
func (a *Appointment) TransitionTo(status AppointmentStatus) error {
	if !a.Status.CanTransition(status) {
		return ErrInvalidAppointmentState{AppointmentID: a.ID, From: a.Status, To: status}
	}
	a.Status = status
	return nil
}

// ErrInvalidAppointmentState rejects a transition the lifecycle does not allow
type ErrInvalidAppointmentState struct {
	AppointmentID uuid.UUID
	From          AppointmentStatus
	To            AppointmentStatus
}

func (e ErrInvalidAppointmentState) Error() string {
	return fmt.Sprintf("appointment %s cannot move from %s to %s", e.AppointmentID, e.From, e.To)
}

func (e ErrInvalidAppointmentState) Is(target error) bool {
	_, ok := target.(ErrInvalidAppointmentState)
	return ok
}
