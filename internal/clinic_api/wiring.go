package clinic_api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/data"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
)

// NewServices wires every service over one storage backend
func NewServices(logger *slog.Logger, transactor persistence.Transactor, repos data.Repositories, historyLimit int) Services {
	configStore := service.NewConfigStore(logger, repos.Settings)
	registry := service.NewAccountRegistry(logger, transactor, repos.Accounts, repos.Users)
	engine := service.NewLedgerEngine(logger, transactor, repos.Accounts, repos.Ledger, repos.Invoices,
		service.NewEventRecorder(logger, repos.Outbox))

	return Services{
		Engine:   engine,
		Registry: registry,
		Checkout: service.NewCheckoutService(logger, transactor, engine, registry, configStore, service.CheckoutDeps{
			Accounts:     repos.Accounts,
			Users:        repos.Users,
			Partners:     repos.Partners,
			Services:     repos.Services,
			Appointments: repos.Appointments,
			Invoices:     repos.Invoices,
		}),
		Transfer:     service.NewTransferService(logger, transactor, engine, registry, configStore, repos.Accounts, repos.Ledger, repos.Users),
		Users:        service.NewUserService(logger, transactor, registry, engine, repos.Users, repos.Partners, historyLimit),
		Appointments: service.NewAppointmentService(logger, transactor, configStore, repos.Users, repos.Services, repos.Appointments),
		Stats:        service.NewStatsService(logger, repos.Accounts, repos.Users, repos.Appointments),
		Reconciler:   service.NewReconciler(logger, repos.Accounts, repos.Ledger),
		Config:       configStore,
	}
}

// Seed inserts missing config defaults, system accounts and catalog entries.
// Every step only adds what is absent, so it is safe on every start.
func (s Services) Seed(ctx context.Context) error {
	if err := s.Config.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed config: %w", err)
	}
	if err := s.Registry.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed system accounts: %w", err)
	}
	if err := s.Appointments.SeedCatalog(ctx); err != nil {
		return fmt.Errorf("failed to seed service catalog: %w", err)
	}
	return nil
}
