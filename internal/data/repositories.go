// Package data groups the storage backends. Each backend hands out the same
// Repositories bundle so services can be wired without knowing which one runs.
package data

import (
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/outbox"
	"github.com/doctor-smile-ledger/internal/domain/settings"
)

// Repositories bundles every repository backed by one store
type Repositories struct {
	Accounts     account.Repository
	Ledger       ledger.Repository
	Outbox       outbox.Repository
	Settings     settings.Repository
	Users        clinic.UserRepository
	Partners     clinic.PartnerRepository
	Services     clinic.ServiceRepository
	Appointments clinic.AppointmentRepository
	Invoices     clinic.InvoiceRepository
}
