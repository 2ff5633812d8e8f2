package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// envelope decodes the standard response with a typed payload
type envelope[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

type MockLedgerEngine struct {
	mock.Mock
}

func (m *MockLedgerEngine) PostTransaction(ctx context.Context, req service.PostRequest) (*ledger.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerEngine) PostInTx(ctx context.Context, tx pgx.Tx, req service.PostRequest) (*ledger.Transaction, error) {
	args := m.Called(ctx, tx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerEngine) VoidTransaction(ctx context.Context, transactionID uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerEngine) GetHistory(ctx context.Context, accountID uuid.UUID) iter.Seq2[ledger.HistoryItem, error] {
	args := m.Called(ctx, accountID)
	return args.Get(0).(iter.Seq2[ledger.HistoryItem, error])
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, req service.CheckoutRequest) (*service.CheckoutResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutResult), args.Error(1)
}

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, req service.TransferRequest) (*service.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransferResult), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, req service.CreateUserRequest) (*service.CreateUserResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateUserResult), args.Error(1)
}

func (m *MockUserService) GetWallet(ctx context.Context, userID uuid.UUID) (*service.WalletView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WalletView), args.Error(1)
}

func (m *MockUserService) CreatePartner(ctx context.Context, req service.CreatePartnerRequest) (*clinic.Partner, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Partner), args.Error(1)
}

func (m *MockUserService) ListPartners(ctx context.Context) ([]*clinic.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Partner), args.Error(1)
}

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) ListServices(ctx context.Context) ([]*clinic.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Service), args.Error(1)
}

func (m *MockAppointmentService) SeedCatalog(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAppointmentService) CreateAppointment(ctx context.Context, req service.CreateAppointmentRequest) (*clinic.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Appointment), args.Error(1)
}

func (m *MockAppointmentService) ListAppointments(ctx context.Context, filter clinic.AppointmentFilter) ([]*clinic.Appointment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinic.Appointment), args.Error(1)
}

func (m *MockAppointmentService) UpdateStatus(ctx context.Context, appointmentID uuid.UUID, status clinic.AppointmentStatus) (*clinic.Appointment, error) {
	args := m.Called(ctx, appointmentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Appointment), args.Error(1)
}

func (m *MockAppointmentService) CancelAppointment(ctx context.Context, appointmentID, patientID uuid.UUID) (*clinic.Appointment, error) {
	args := m.Called(ctx, appointmentID, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinic.Appointment), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetAdminStats(ctx context.Context) (*service.AdminStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminStats), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context) ([]service.Mismatch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Mismatch), args.Error(1)
}

type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) GetNumber(ctx context.Context, key settings.Key) (decimal.Decimal, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockConfigStore) GetString(ctx context.Context, key settings.Key) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockConfigStore) GetMinorUnits(ctx context.Context, key settings.Key) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockConfigStore) Set(ctx context.Context, key settings.Key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockConfigStore) List(ctx context.Context) ([]settings.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settings.Setting), args.Error(1)
}

func (m *MockConfigStore) Seed(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func sampleWallet(userID uuid.UUID, balance int64) *account.Account {
	acc, _ := account.NewWallet(userID, "Sara")
	acc.Balance = balance
	return acc
}
