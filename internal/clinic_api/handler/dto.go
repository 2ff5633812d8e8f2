package handler

import (
	"time"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CreateUserRequest registers a user. UplineID and PartnerCode both name a referrer.
type CreateUserRequest struct {
	Phone       string `json:"phone" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Role        string `json:"role" binding:"omitempty,oneof=PATIENT ADMIN DOCTOR PARTNER"`
	UplineID    string `json:"upline_id" binding:"omitempty,uuid"`
	PartnerCode string `json:"partner_code"`
}

// CreatePartnerRequest attaches a partner profile to a PARTNER user. An
// omitted commission_rate follows the configured default.
type CreatePartnerRequest struct {
	UserID         string          `json:"user_id" binding:"required,uuid"`
	CompanyName    string          `json:"company_name" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=HOTEL RESTAURANT CORPORATION"`
	City           string          `json:"city"`
	UniqueCode     string          `json:"unique_code" binding:"omitempty,alphanum,max=32"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}

// TransferRequest moves wallet credit, amount in minor units
type TransferRequest struct {
	FromUserID string `json:"from_user_id" binding:"required,uuid"`
	ToPhone    string `json:"to_phone" binding:"required"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
}

// CheckoutRequest settles an appointment, wallet amount in minor units
type CheckoutRequest struct {
	PatientID     string `json:"patient_id" binding:"required,uuid"`
	AppointmentID string `json:"appointment_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=CASH CARD WALLET"`
	WalletAmount  int64  `json:"wallet_amount" binding:"min=0"`
}

// CreateAppointmentRequest books a service
type CreateAppointmentRequest struct {
	PatientID string    `json:"patient_id" binding:"required,uuid"`
	ServiceID string    `json:"service_id" binding:"required,uuid"`
	StartTime time.Time `json:"start_time" binding:"required"`
	Notes     string    `json:"notes"`
	Source    string    `json:"source"`
}

// UpdateAppointmentStatusRequest confirms an appointment or marks a no-show
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CONFIRMED NO_SHOW"`
}

// CancelAppointmentRequest names the patient cancelling
type CancelAppointmentRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
}

// SetConfigRequest carries a new config value
type SetConfigRequest struct {
	Value string `json:"value" binding:"required"`
}

// AppointmentListParams filters GET /appointments
type AppointmentListParams struct {
	PatientID string `form:"patient_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=REQUESTED CONFIRMED COMPLETED CANCELLED NO_SHOW"`
	Limit     int    `form:"limit,default=50" binding:"min=1,max=200"`
}

// AccountResponse is an account with its balance in minor units and formatted
type AccountResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	UserID         string `json:"user_id,omitempty"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
	UpdatedAt      string `json:"updated_at"`
}

// WalletResponse is a wallet with its history
type WalletResponse struct {
	Account          AccountResponse      `json:"account"`
	History          []ledger.HistoryItem `json:"history"`
	HistoryTruncated bool                 `json:"history_truncated"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:             acc.ID.String(),
		Name:           acc.Name,
		Category:       string(acc.Category),
		Balance:        acc.Balance,
		BalanceDisplay: shared.FormatMinor(acc.Balance),
		UpdatedAt:      acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.UserID != nil {
		response.UserID = acc.UserID.String()
	}
	return response
}

func mapWalletToResponse(view *service.WalletView) WalletResponse {
	return WalletResponse{
		Account:          mapAccountToResponse(view.Account),
		History:          view.History,
		HistoryTruncated: view.HistoryTruncated,
	}
}
