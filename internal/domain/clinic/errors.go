package clinic

import (
	"fmt"

	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrUserNotFound indicates a missing user, looked up by id or phone
type ErrUserNotFound struct {
	UserID uuid.UUID
	Phone  string
}

func (e ErrUserNotFound) Error() string {
	if e.Phone != "" {
		return "user not found with phone: " + e.Phone
	}
	return "user not found: " + e.UserID.String()
}

func (e ErrUserNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrUserNotFound)
	return ok
}

// ErrPartnerNotFound indicates an unknown partner id or code
type ErrPartnerNotFound struct {
	Key string
}

func (e ErrPartnerNotFound) Error() string {
	return "partner not found: " + e.Key
}

func (e ErrPartnerNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrPartnerNotFound)
	return ok
}

// ErrDuplicatePartner indicates a user that already has a partner profile
// or a code that is already taken
type ErrDuplicatePartner struct {
	Key string
}

func (e ErrDuplicatePartner) Error() string {
	return "partner already exists: " + e.Key
}

func (e ErrDuplicatePartner) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrDuplicatePartner)
	return ok
}

// ErrServiceNotFound indicates an unknown catalog item
type ErrServiceNotFound struct {
	ServiceID uuid.UUID
}

func (e ErrServiceNotFound) Error() string {
	return "service not found: " + e.ServiceID.String()
}

func (e ErrServiceNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrServiceNotFound)
	return ok
}

// ErrAppointmentNotFound indicates an unknown appointment, or one that belongs to someone else
type ErrAppointmentNotFound struct {
	AppointmentID uuid.UUID
}

func (e ErrAppointmentNotFound) Error() string {
	return "appointment not found: " + e.AppointmentID.String()
}

func (e ErrAppointmentNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrAppointmentNotFound)
	return ok && (t.AppointmentID == uuid.Nil || t.AppointmentID == e.AppointmentID)
}

// ErrInvoiceNotFound indicates an appointment that has not been checked out
type ErrInvoiceNotFound struct {
	AppointmentID uuid.UUID
}

func (e ErrInvoiceNotFound) Error() string {
	return "invoice not found for appointment: " + e.AppointmentID.String()
}

func (e ErrInvoiceNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrInvoiceNotFound)
	return ok
}

// ErrDuplicatePhone indicates the unique phone constraint fired
type ErrDuplicatePhone struct {
	Phone string
}

func (e ErrDuplicatePhone) Error() string {
	return "user with phone already exists: " + e.Phone
}

func (e ErrDuplicatePhone) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	_, ok := target.(ErrDuplicatePhone)
	return ok
}

// ErrCancellationWindow refuses a cancellation too close to the start time
type ErrCancellationWindow struct {
	AppointmentID uuid.UUID
	Hours         int64
}

func (e ErrCancellationWindow) Error() string {
	return fmt.Sprintf("appointment %s can no longer be cancelled: inside the %d hour window", e.AppointmentID, e.Hours)
}

func (e ErrCancellationWindow) Is(target error) bool {
	if target == shared.ErrInvalidRequest {
		return true
	}
	_, ok := target.(ErrCancellationWindow)
	return ok
}

// ErrSelfTransfer rejects a transfer whose receiver is the sender
var ErrSelfTransfer = fmt.Errorf("%w: cannot transfer to yourself", shared.ErrInvalidRequest)

// ErrBelowMinimum rejects a transfer smaller than min_transfer_amount
type ErrBelowMinimum struct {
	Amount  int64
	Minimum int64
}

func (e ErrBelowMinimum) Error() string {
	return fmt.Sprintf("transfer amount %s is below the minimum of %s", shared.FormatMinor(e.Amount), shared.FormatMinor(e.Minimum))
}

func (e ErrBelowMinimum) Is(target error) bool {
	if target == shared.ErrLimitExceeded {
		return true
	}
	_, ok := target.(ErrBelowMinimum)
	return ok
}

// ErrDailyLimit rejects a transfer that would take the sender past
// daily_transfer_limit. SentToday is what was already sent before it.
type ErrDailyLimit struct {
	Amount    int64
	SentToday int64
	Limit     int64
}

func (e ErrDailyLimit) Error() string {
	return fmt.Sprintf("transfer of %s exceeds the daily limit of %s (already sent %s today)",
		shared.FormatMinor(e.Amount), shared.FormatMinor(e.Limit), shared.FormatMinor(e.SentToday))
}

func (e ErrDailyLimit) Is(target error) bool {
	if target == shared.ErrLimitExceeded {
		return true
	}
	_, ok := target.(ErrDailyLimit)
	return ok
}
