package handler

import (
	"errors"
	"iter"
	"net/http"
	"testing"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ledgerMocks struct {
	engine   *MockLedgerEngine
	checkout *MockCheckoutService
	transfer *MockTransferService
	router   http.Handler
}

func newLedgerMocks() ledgerMocks {
	m := ledgerMocks{
		engine:   new(MockLedgerEngine),
		checkout: new(MockCheckoutService),
		transfer: new(MockTransferService),
	}
	h := NewLedgerHandler(newTestLogger(), m.engine, m.checkout, m.transfer)
	router := newTestRouter()
	router.POST("/checkout", h.Checkout)
	router.POST("/wallet/transfer", h.Transfer)
	router.GET("/accounts/:id/history", h.History)
	router.POST("/admin/transactions/:id/void", h.Void)
	m.router = router
	return m
}

func historyOf(items []ledger.HistoryItem, err error) iter.Seq2[ledger.HistoryItem, error] {
	return func(yield func(ledger.HistoryItem, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if err != nil {
			yield(ledger.HistoryItem{}, err)
		}
	}
}

func TestLedgerHandler_Checkout(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := newLedgerMocks()
		patientID, appointmentID := uuid.New(), uuid.New()
		m.checkout.On("Checkout", mock.Anything, service.CheckoutRequest{
			PatientID:             patientID,
			AppointmentID:         appointmentID,
			WalletAmountRequested: 5000,
		}).Return(&service.CheckoutResult{
			Price:          20000,
			WalletUsed:     5000,
			Remaining:      15000,
			LoyaltyAccrued: 1500,
			LoyaltyRate:    decimal.NewFromInt(10),
			WalletBalance:  1500,
		}, nil)

		rr := doJSON(t, m.router, "POST", "/checkout", CheckoutRequest{
			PatientID: patientID.String(), AppointmentID: appointmentID.String(), WalletAmount: 5000,
		})

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[map[string]any](t, rr)
		assert.Equal(t, float64(15000), body.Data["remaining"])
		assert.Equal(t, float64(1500), body.Data["loyalty_accrued"])
		m.checkout.AssertExpectations(t)
	})

	t.Run("rejects bad input before the service", func(t *testing.T) {
		m := newLedgerMocks()
		for _, body := range []any{
			CheckoutRequest{PatientID: "x", AppointmentID: uuid.NewString()},
			CheckoutRequest{PatientID: uuid.NewString(), AppointmentID: uuid.NewString(), WalletAmount: -1},
			CheckoutRequest{PatientID: uuid.NewString(), AppointmentID: uuid.NewString(), PaymentMethod: "BITCOIN"},
		} {
			rr := doJSON(t, m.router, "POST", "/checkout", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
		m.checkout.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	})

	t.Run("appointment not confirmed", func(t *testing.T) {
		m := newLedgerMocks()
		m.checkout.On("Checkout", mock.Anything, mock.Anything).Return(nil, clinic.ErrInvalidAppointmentState{
			From: clinic.AppointmentRequested, To: clinic.AppointmentCompleted,
		})

		rr := doJSON(t, m.router, "POST", "/checkout", CheckoutRequest{
			PatientID: uuid.NewString(), AppointmentID: uuid.NewString(),
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})
}

func TestLedgerHandler_Transfer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := newLedgerMocks()
		fromID := uuid.New()
		m.transfer.On("Transfer", mock.Anything, service.TransferRequest{
			FromUserID: fromID, ToPhone: "+966500000009", Amount: 3000,
		}).Return(&service.TransferResult{TransactionID: uuid.New(), Amount: 3000, SenderBalance: 2000, ReceiverName: "Omar"}, nil)

		rr := doJSON(t, m.router, "POST", "/wallet/transfer", TransferRequest{
			FromUserID: fromID.String(), ToPhone: "+966500000009", Amount: 3000,
		})

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[service.TransferResult](t, rr)
		assert.Equal(t, int64(2000), body.Data.SenderBalance)
		assert.Equal(t, "Omar", body.Data.ReceiverName)
	})

	t.Run("zero amount", func(t *testing.T) {
		m := newLedgerMocks()
		rr := doJSON(t, m.router, "POST", "/wallet/transfer", TransferRequest{
			FromUserID: uuid.NewString(), ToPhone: "+966500000009",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		m.transfer.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient", account.ErrInsufficientBalance{Balance: 100, Requested: 3000}, http.StatusUnprocessableEntity},
		{"daily limit", clinic.ErrDailyLimit{Amount: 3000, SentToday: 99000, Limit: 100000}, http.StatusUnprocessableEntity},
		{"receiver unknown", clinic.ErrUserNotFound{Phone: "+966500000009"}, http.StatusNotFound},
		{"busy", shared.ErrBusy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLedgerMocks()
			m.transfer.On("Transfer", mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := doJSON(t, m.router, "POST", "/wallet/transfer", TransferRequest{
				FromUserID: uuid.NewString(), ToPhone: "+966500000009", Amount: 3000,
			})
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestLedgerHandler_History(t *testing.T) {
	t.Run("lists every entry", func(t *testing.T) {
		m := newLedgerMocks()
		accountID := uuid.New()
		items := []ledger.HistoryItem{
			{EntryID: uuid.New(), AccountID: accountID, Amount: 500, Side: ledger.SideDebit},
			{EntryID: uuid.New(), AccountID: accountID, Amount: 2000, Side: ledger.SideCredit},
		}
		m.engine.On("GetHistory", mock.Anything, accountID).Return(historyOf(items, nil))

		rr := doJSON(t, m.router, "GET", "/accounts/"+accountID.String()+"/history", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[[]ledger.HistoryItem](t, rr)
		assert.Equal(t, items[0].EntryID, body.Data[0].EntryID)
		assert.Len(t, body.Data, 2)
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		m := newLedgerMocks()
		accountID := uuid.New()
		m.engine.On("GetHistory", mock.Anything, accountID).Return(historyOf(nil, nil))

		rr := doJSON(t, m.router, "GET", "/accounts/"+accountID.String()+"/history", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"data":[]`)
	})

	t.Run("unknown account", func(t *testing.T) {
		m := newLedgerMocks()
		accountID := uuid.New()
		m.engine.On("GetHistory", mock.Anything, accountID).
			Return(historyOf(nil, account.ErrAccountNotFound{AccountID: accountID}))

		rr := doJSON(t, m.router, "GET", "/accounts/"+accountID.String()+"/history", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("failure mid-stream", func(t *testing.T) {
		m := newLedgerMocks()
		accountID := uuid.New()
		m.engine.On("GetHistory", mock.Anything, accountID).
			Return(historyOf([]ledger.HistoryItem{{EntryID: uuid.New()}}, errors.New("cursor closed")))

		rr := doJSON(t, m.router, "GET", "/accounts/"+accountID.String()+"/history", nil)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestLedgerHandler_Void(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := newLedgerMocks()
		original := uuid.New()
		reversal := ledger.NewTransaction("Reversal of "+original.String(), ledger.ReferenceAdjustment, nil, nil)
		reversal.ReversalOf = &original
		m.engine.On("VoidTransaction", mock.Anything, original).Return(reversal, nil)

		rr := doJSON(t, m.router, "POST", "/admin/transactions/"+original.String()+"/void", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[map[string]any](t, rr)
		assert.Equal(t, original.String(), body.Data["voided_transaction_id"])
	})

	t.Run("already void", func(t *testing.T) {
		m := newLedgerMocks()
		original := uuid.New()
		m.engine.On("VoidTransaction", mock.Anything, original).Return(nil, ledger.ErrAlreadyVoid{TransactionID: original})

		rr := doJSON(t, m.router, "POST", "/admin/transactions/"+original.String()+"/void", nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		m := newLedgerMocks()
		rr := doJSON(t, m.router, "POST", "/admin/transactions/zzz/void", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
