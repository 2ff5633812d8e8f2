package clinic

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the cash portion of a checkout was settled
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentWallet PaymentMethod = "WALLET"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentWallet
}

// InvoiceStatus of a checkout invoice
type InvoiceStatus string

const (
	InvoicePaid InvoiceStatus = "PAID"
	InvoiceVoid InvoiceStatus = "VOID"
)

// Invoice records the outcome of one checkout
type Invoice struct {
	ID            uuid.UUID     `json:"id"`
	PatientID     uuid.UUID     `json:"patient_id"`
	AppointmentID uuid.UUID     `json:"appointment_id"`
	TotalAmount   int64         `json:"total_amount"`
	WalletUsed    int64         `json:"wallet_used"`
	Status        InvoiceStatus `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	TransactionID *uuid.UUID    `json:"transaction_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewInvoice records a PAID checkout. transactionID is nil when nothing was posted.
func NewInvoice(patientID, appointmentID uuid.UUID, total, walletUsed int64, method PaymentMethod, transactionID *uuid.UUID) *Invoice {
	return &Invoice{
		ID:            uuid.New(),
		PatientID:     patientID,
		AppointmentID: appointmentID,
		TotalAmount:   total,
		WalletUsed:    walletUsed,
		Status:        InvoicePaid,
		PaymentMethod: method,
		TransactionID: transactionID,
		CreatedAt:     time.Now().UTC(),
	}
}
