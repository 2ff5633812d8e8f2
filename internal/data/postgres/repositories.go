package postgres

import (
	"log/slog"

	"github.com/doctor-smile-ledger/internal/data"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
)

// NewRepositories returns every PostgreSQL repository over db
func NewRepositories(logger *slog.Logger, db *persistence.PostgresDB) data.Repositories {
	return data.Repositories{
		Accounts:     NewAccountRepository(logger, db),
		Ledger:       NewLedgerRepository(logger, db),
		Outbox:       NewOutboxRepository(logger, db),
		Settings:     NewSettingsRepository(logger, db),
		Users:        NewUserRepository(logger, db),
		Partners:     NewPartnerRepository(logger, db),
		Services:     NewServiceRepository(logger, db),
		Appointments: NewAppointmentRepository(logger, db),
		Invoices:     NewInvoiceRepository(logger, db),
	}
}
