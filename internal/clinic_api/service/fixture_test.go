package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/data"
	"github.com/doctor-smile-ledger/internal/data/memory"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// clinicFixture wires every service over one seeded in-memory store
type clinicFixture struct {
	store        *memory.Store
	repos        data.Repositories
	config       ConfigStore
	registry     AccountRegistry
	engine       LedgerEngine
	checkout     CheckoutService
	transfers    TransferService
	users        UserService
	appointments AppointmentService
	stats        StatsService
	reconciler   Reconciler
}

func newClinicFixture(t *testing.T) *clinicFixture {
	t.Helper()
	ctx := context.Background()
	logger := newTestLogger()
	store := memory.NewStore()
	repos := store.Repositories()

	f := &clinicFixture{store: store, repos: repos}
	f.config = NewConfigStore(logger, repos.Settings)
	f.registry = NewAccountRegistry(logger, store, repos.Accounts, repos.Users)
	f.engine = NewLedgerEngine(logger, store, repos.Accounts, repos.Ledger, repos.Invoices, NewEventRecorder(logger, repos.Outbox))
	f.checkout = NewCheckoutService(logger, store, f.engine, f.registry, f.config, CheckoutDeps{
		Accounts:     repos.Accounts,
		Users:        repos.Users,
		Partners:     repos.Partners,
		Services:     repos.Services,
		Appointments: repos.Appointments,
		Invoices:     repos.Invoices,
	})
	f.transfers = NewTransferService(logger, store, f.engine, f.registry, f.config, repos.Accounts, repos.Ledger, repos.Users)
	f.users = NewUserService(logger, store, f.registry, f.engine, repos.Users, repos.Partners, 100)
	f.appointments = NewAppointmentService(logger, store, f.config, repos.Users, repos.Services, repos.Appointments)
	f.stats = NewStatsService(logger, repos.Accounts, repos.Users, repos.Appointments)
	f.reconciler = NewReconciler(logger, repos.Accounts, repos.Ledger)

	require.NoError(t, f.config.Seed(ctx))
	require.NoError(t, f.registry.Seed(ctx))
	require.NoError(t, f.appointments.SeedCatalog(ctx))
	return f
}

func (f *clinicFixture) createUser(t *testing.T, phone, name string, role clinic.Role, upline *uuid.UUID) *CreateUserResult {
	t.Helper()
	res, err := f.users.CreateUser(context.Background(), CreateUserRequest{Phone: phone, Role: role, Name: name, UplineID: upline})
	require.NoError(t, err)
	return res
}

func (f *clinicFixture) createPartner(t *testing.T, phone, code string, rate int64) *CreateUserResult {
	t.Helper()
	res := f.createUser(t, phone, "Hotel "+code, clinic.RolePartner, nil)
	_, err := f.users.CreatePartner(context.Background(), CreatePartnerRequest{
		UserID:         res.User.ID,
		CompanyName:    "Hotel " + code,
		Type:           clinic.PartnerHotel,
		City:           "Antalya",
		UniqueCode:     code,
		CommissionRate: decimal.NewFromInt(rate),
	})
	require.NoError(t, err)
	return res
}

func (f *clinicFixture) system(t *testing.T, name account.SystemName) *account.Account {
	t.Helper()
	acc, err := f.registry.GetSystemAccount(context.Background(), name)
	require.NoError(t, err)
	return acc
}

func (f *clinicFixture) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	b, err := f.registry.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

// fund credits a wallet as a marketing grant
func (f *clinicFixture) fund(t *testing.T, wallet *account.Account, amount int64) {
	t.Helper()
	_, err := f.engine.PostTransaction(context.Background(), PostRequest{
		Description:   "Welcome credit",
		ReferenceKind: ledger.ReferenceAdjustment,
		Legs: []ledger.Leg{
			ledger.Debit(f.system(t, account.SystemMarketingExpense).ID, amount),
			ledger.Credit(wallet.ID, amount),
		},
	})
	require.NoError(t, err)
}

func (f *clinicFixture) service(t *testing.T, name string) *clinic.Service {
	t.Helper()
	services, err := f.appointments.ListServices(context.Background())
	require.NoError(t, err)
	for _, svc := range services {
		if svc.Name == name {
			return svc
		}
	}
	t.Fatalf("service %q not seeded", name)
	return nil
}

// confirmedAppointment books serviceID for patientID and confirms it
func (f *clinicFixture) confirmedAppointment(t *testing.T, patientID, serviceID uuid.UUID) *clinic.Appointment {
	t.Helper()
	ctx := context.Background()
	appt, err := f.appointments.CreateAppointment(ctx, CreateAppointmentRequest{
		PatientID: patientID,
		ServiceID: serviceID,
		StartTime: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)
	appt, err = f.appointments.UpdateStatus(ctx, appt.ID, clinic.AppointmentConfirmed)
	require.NoError(t, err)
	return appt
}

func (f *clinicFixture) requireReconciled(t *testing.T) {
	t.Helper()
	mismatches, err := f.reconciler.Reconcile(context.Background())
	require.NoError(t, err)
	require.Empty(t, mismatches)
}
