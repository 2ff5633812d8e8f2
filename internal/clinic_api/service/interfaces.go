package service

import (
	"context"
	"iter"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ConfigStore reads and writes the runtime tunables
type ConfigStore interface {
	// GetNumber parses key as a decimal. Missing or non-numeric keys are configuration errors.
	GetNumber(ctx context.Context, key settings.Key) (decimal.Decimal, error)
	GetString(ctx context.Context, key settings.Key) (string, error)
	// GetMinorUnits reads a monetary key stored in major units.
	GetMinorUnits(ctx context.Context, key settings.Key) (int64, error)
	Set(ctx context.Context, key settings.Key, value string) error
	List(ctx context.Context) ([]settings.Setting, error)
	Seed(ctx context.Context) error
}

// AccountRegistry owns wallets and the system singleton accounts
type AccountRegistry interface {
	// GetOrCreateWallet returns the user's wallet, creating it when a legacy user has none.
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*account.Account, error)
	// CreateWallet creates the wallet of a user inside the caller's transaction.
	CreateWallet(ctx context.Context, tx pgx.Tx, user *clinic.User) (*account.Account, error)
	// WalletInTx reads the user's wallet inside tx, creating it when missing.
	WalletInTx(ctx context.Context, tx pgx.Tx, user *clinic.User) (*account.Account, error)
	GetSystemAccount(ctx context.Context, name account.SystemName) (*account.Account, error)
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)
	// Seed inserts missing system accounts and verifies that all of them exist.
	Seed(ctx context.Context) error
}

// LedgerEngine is the only writer of transactions, entries and balances
type LedgerEngine interface {
	PostTransaction(ctx context.Context, req PostRequest) (*ledger.Transaction, error)
	// PostInTx posts inside a transaction the caller already holds.
	PostInTx(ctx context.Context, tx pgx.Tx, req PostRequest) (*ledger.Transaction, error)
	// VoidTransaction posts the reversal of transactionID and marks the original VOID.
	VoidTransaction(ctx context.Context, transactionID uuid.UUID) (*ledger.Transaction, error)
	// GetHistory streams an account's entries newest first.
	GetHistory(ctx context.Context, accountID uuid.UUID) iter.Seq2[ledger.HistoryItem, error]
}

// CheckoutService settles a completed appointment
type CheckoutService interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

// TransferService moves wallet credit between users
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// UserService creates users and partner profiles and renders wallets
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*CreateUserResult, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*WalletView, error)
	// CreatePartner attaches a partner profile to an existing PARTNER user.
	CreatePartner(ctx context.Context, req CreatePartnerRequest) (*clinic.Partner, error)
	ListPartners(ctx context.Context) ([]*clinic.Partner, error)
}

// AppointmentService books and moves appointments through their lifecycle
type AppointmentService interface {
	ListServices(ctx context.Context) ([]*clinic.Service, error)
	SeedCatalog(ctx context.Context) error
	CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*clinic.Appointment, error)
	ListAppointments(ctx context.Context, filter clinic.AppointmentFilter) ([]*clinic.Appointment, error)
	// UpdateStatus applies a lifecycle transition other than completion, which only checkout performs.
	UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status clinic.AppointmentStatus) (*clinic.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID, patientID uuid.UUID) (*clinic.Appointment, error)
}

// StatsService builds the admin dashboard
type StatsService interface {
	GetAdminStats(ctx context.Context) (*AdminStats, error)
}

// Reconciler compares stored balances with the entries behind them
type Reconciler interface {
	Reconcile(ctx context.Context) ([]Mismatch, error)
}

// EventRecorder writes ledger events to the outbox inside the posting transaction
type EventRecorder interface {
	Record(ctx context.Context, tx pgx.Tx, event *ledger.Event) error
}
