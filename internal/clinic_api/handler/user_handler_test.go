package handler

import (
	"net/http"
	"testing"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_Create(t *testing.T) {
	setup := func() (*MockUserService, http.Handler) {
		mockService := new(MockUserService)
		h := NewUserHandler(newTestLogger(), mockService)
		router := newTestRouter()
		router.POST("/users", h.Create)
		return mockService, router
	}

	t.Run("new user answers 201", func(t *testing.T) {
		mockService, router := setup()
		user := &clinic.User{ID: uuid.New(), Phone: "+966500000001", Role: clinic.RolePatient, Name: "Sara"}
		uplineID := uuid.New()
		mockService.On("CreateUser", mock.Anything, mock.MatchedBy(func(req service.CreateUserRequest) bool {
			return req.Phone == user.Phone && req.Name == "Sara" && req.UplineID != nil && *req.UplineID == uplineID
		})).Return(&service.CreateUserResult{User: user, Wallet: sampleWallet(user.ID, 0), Created: true}, nil)

		rr := doJSON(t, router, http.MethodPost, "/users", CreateUserRequest{
			Phone: user.Phone, Name: "Sara", UplineID: uplineID.String(),
		})

		assert.Equal(t, http.StatusCreated, rr.Code)
		body := decode[map[string]any](t, rr)
		assert.Equal(t, true, body.Data["created"])
		wallet := body.Data["wallet"].(map[string]any)
		assert.Equal(t, "0.00", wallet["balance_display"])
		mockService.AssertExpectations(t)
	})

	t.Run("known phone answers 200", func(t *testing.T) {
		mockService, router := setup()
		user := &clinic.User{ID: uuid.New(), Phone: "+966500000002", Name: "Omar"}
		mockService.On("CreateUser", mock.Anything, mock.Anything).
			Return(&service.CreateUserResult{User: user, Wallet: sampleWallet(user.ID, 2500)}, nil)

		rr := doJSON(t, router, http.MethodPost, "/users", CreateUserRequest{Phone: user.Phone, Name: "Omar"})

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		mockService, router := setup()

		for _, body := range []any{
			`{"phone":`,
			CreateUserRequest{Name: "No Phone"},
			CreateUserRequest{Phone: "+966500000003", Name: "Bad Role", Role: "SUPERUSER"},
			CreateUserRequest{Phone: "+966500000003", Name: "Bad Upline", UplineID: "nope"},
		} {
			rr := doJSON(t, router, http.MethodPost, "/users", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
		mockService.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("unknown partner code", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, clinic.ErrPartnerNotFound{Key: "NOPE"})

		rr := doJSON(t, router, http.MethodPost, "/users", CreateUserRequest{
			Phone: "+966500000004", Name: "Lina", PartnerCode: "NOPE",
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserHandler_GetWallet(t *testing.T) {
	mockService := new(MockUserService)
	h := NewUserHandler(newTestLogger(), mockService)
	router := newTestRouter()
	router.GET("/users/:id/wallet", h.GetWallet)

	t.Run("success", func(t *testing.T) {
		userID := uuid.New()
		wallet := sampleWallet(userID, 150050)
		mockService.On("GetWallet", mock.Anything, userID).Return(&service.WalletView{
			Account:          wallet,
			History:          []ledger.HistoryItem{{EntryID: uuid.New(), AccountID: wallet.ID, Amount: 150050, Side: ledger.SideCredit}},
			HistoryTruncated: true,
		}, nil).Once()

		rr := doJSON(t, router, http.MethodGet, "/users/"+userID.String()+"/wallet", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[WalletResponse](t, rr)
		assert.Equal(t, int64(150050), body.Data.Account.Balance)
		assert.Equal(t, "1500.50", body.Data.Account.BalanceDisplay)
		assert.Equal(t, userID.String(), body.Data.Account.UserID)
		assert.Len(t, body.Data.History, 1)
		assert.True(t, body.Data.HistoryTruncated)
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := doJSON(t, router, http.MethodGet, "/users/abc/wallet", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		userID := uuid.New()
		mockService.On("GetWallet", mock.Anything, userID).Return(nil, clinic.ErrUserNotFound{UserID: userID}).Once()

		rr := doJSON(t, router, http.MethodGet, "/users/"+userID.String()+"/wallet", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserHandler_Partners(t *testing.T) {
	setup := func() (*MockUserService, http.Handler) {
		mockService := new(MockUserService)
		h := NewUserHandler(newTestLogger(), mockService)
		router := newTestRouter()
		router.POST("/partners", h.CreatePartner)
		router.GET("/partners", h.ListPartners)
		return mockService, router
	}
	ownerID := uuid.New()
	partner := &clinic.Partner{
		ID:             uuid.New(),
		UserID:         ownerID,
		CompanyName:    "Blue Hotel",
		Type:           clinic.PartnerHotel,
		CommissionRate: decimal.RequireFromString("12.5"),
		UniqueCode:     "BLUE",
		Status:         clinic.PartnerActive,
	}

	t.Run("create answers 201", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("CreatePartner", mock.Anything, mock.MatchedBy(func(req service.CreatePartnerRequest) bool {
			return req.UserID == ownerID && req.Type == clinic.PartnerHotel &&
				req.UniqueCode == "BLUE" && req.CommissionRate.Equal(decimal.RequireFromString("12.5"))
		})).Return(partner, nil).Once()

		rr := doJSON(t, router, http.MethodPost, "/partners", map[string]any{
			"user_id": ownerID.String(), "company_name": "Blue Hotel", "type": "HOTEL",
			"unique_code": "BLUE", "commission_rate": 12.5,
		})

		require.Equal(t, http.StatusCreated, rr.Code)
		body := decode[clinic.Partner](t, rr)
		assert.Equal(t, "BLUE", body.Data.UniqueCode)
		assert.Equal(t, ownerID, body.Data.UserID)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		mockService, router := setup()

		for _, body := range []any{
			map[string]any{"company_name": "No Owner", "type": "HOTEL"},
			map[string]any{"user_id": ownerID.String(), "company_name": "Motel", "type": "MOTEL"},
			map[string]any{"user_id": ownerID.String(), "company_name": "Dash", "type": "HOTEL", "unique_code": "NO-DASH"},
			map[string]any{"user_id": ownerID.String(), "company_name": "Rate", "type": "HOTEL", "commission_rate": "lots"},
		} {
			rr := doJSON(t, router, http.MethodPost, "/partners", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		}
		mockService.AssertNotCalled(t, "CreatePartner", mock.Anything, mock.Anything)
	})

	t.Run("taken code answers 409", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("CreatePartner", mock.Anything, mock.Anything).
			Return(nil, clinic.ErrDuplicatePartner{Key: "BLUE"}).Once()

		rr := doJSON(t, router, http.MethodPost, "/partners", map[string]any{
			"user_id": ownerID.String(), "company_name": "Blue Hotel", "type": "HOTEL", "unique_code": "BLUE",
		})

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("list", func(t *testing.T) {
		mockService, router := setup()
		mockService.On("ListPartners", mock.Anything).Return([]*clinic.Partner{partner}, nil).Once()

		rr := doJSON(t, router, http.MethodGet, "/partners", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[[]clinic.Partner](t, rr)
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Blue Hotel", body.Data[0].CompanyName)
	})
}
