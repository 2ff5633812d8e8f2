package service

import (
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostRequest asks the engine to post one balanced transaction
type PostRequest struct {
	Description   string
	ReferenceKind ledger.ReferenceKind
	ReferenceID   *uuid.UUID
	Legs          []ledger.Leg
}

// CheckoutRequest settles an appointment. WalletAmountRequested is the
// most the patient wants drawn from their wallet, in minor units.
type CheckoutRequest struct {
	PatientID             uuid.UUID
	AppointmentID         uuid.UUID
	PaymentMethod         clinic.PaymentMethod
	WalletAmountRequested int64
}

// CheckoutResult carries every amount the checkout computed
type CheckoutResult struct {
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	TransactionID   *uuid.UUID      `json:"transaction_id,omitempty"`
	Price           int64           `json:"price"`
	WalletUsed      int64           `json:"wallet_used"`
	Remaining       int64           `json:"remaining"`
	LoyaltyAccrued  int64           `json:"loyalty_accrued"`
	LoyaltyRate     decimal.Decimal `json:"loyalty_rate"`
	Commission      int64           `json:"commission"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	PartnerWalletID *uuid.UUID      `json:"partner_wallet_id,omitempty"`
	WalletBalance   int64           `json:"wallet_balance"`
}

// TransferRequest moves Amount minor units to the user owning ToPhone
type TransferRequest struct {
	FromUserID uuid.UUID
	ToPhone    string
	Amount     int64
}

// TransferResult is the outcome of a transfer
type TransferResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	SenderBalance int64     `json:"sender_balance"`
	ReceiverName  string    `json:"receiver_name"`
}

// CreateUserRequest registers a user. UplineID and PartnerCode are
// alternative ways of naming the referrer.
type CreateUserRequest struct {
	Phone       string
	Role        clinic.Role
	Name        string
	UplineID    *uuid.UUID
	PartnerCode string
}

// CreateUserResult reports the user, the wallet and whether either was new
type CreateUserResult struct {
	User    *clinic.User     `json:"user"`
	Wallet  *account.Account `json:"wallet"`
	Created bool             `json:"created"`
}

// CreatePartnerRequest attaches a partner profile to a PARTNER user. A zero
// CommissionRate follows the configured default; an empty UniqueCode is generated.
type CreatePartnerRequest struct {
	UserID         uuid.UUID
	CompanyName    string
	Type           clinic.PartnerType
	City           string
	UniqueCode     string
	CommissionRate decimal.Decimal
}

// WalletView is a wallet with its materialized history
type WalletView struct {
	Account          *account.Account     `json:"account"`
	History          []ledger.HistoryItem `json:"history"`
	HistoryTruncated bool                 `json:"history_truncated"`
}

// CreateAppointmentRequest books a service slot
type CreateAppointmentRequest struct {
	PatientID uuid.UUID
	ServiceID uuid.UUID
	StartTime time.Time
	Notes     string
	Source    string
}

// AdminStats is the admin dashboard
type AdminStats struct {
	PatientCount         int64                 `json:"patient_count"`
	RevenueBalance       int64                 `json:"revenue_balance"`
	OutstandingLiability int64                 `json:"outstanding_liability"`
	RecentAppointments   []*clinic.Appointment `json:"recent_appointments"`
}

// Mismatch is an account whose stored balance disagrees with its entries
type Mismatch struct {
	AccountID uuid.UUID        `json:"account_id"`
	Name      string           `json:"name"`
	Category  account.Category `json:"category"`
	Stored    int64            `json:"stored"`
	Computed  int64            `json:"computed"`
}
