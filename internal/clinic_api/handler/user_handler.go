package handler

import (
	"log/slog"
	"net/http"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user registration and wallet views
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(logger *slog.Logger, userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// Create registers a user and their wallet. A known phone answers 200 with
// the existing user instead of 201.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	createReq := service.CreateUserRequest{
		Phone:       req.Phone,
		Role:        clinic.Role(req.Role),
		Name:        req.Name,
		PartnerCode: req.PartnerCode,
	}
	if req.UplineID != "" {
		uplineID := uuid.MustParse(req.UplineID)
		createReq.UplineID = &uplineID
	}

	result, err := h.userService.CreateUser(c.Request.Context(), createReq)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	RespondWithData(c, status, gin.H{
		"user":    result.User,
		"wallet":  mapAccountToResponse(result.Wallet),
		"created": result.Created,
	})
}

// GetWallet returns the user's wallet and its history
func (h *UserHandler) GetWallet(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "Invalid user ID")
	if !ok {
		return
	}

	view, err := h.userService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, mapWalletToResponse(view))
}

// CreatePartner attaches a partner profile to an existing PARTNER user
func (h *UserHandler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	partner, err := h.userService.CreatePartner(c.Request.Context(), service.CreatePartnerRequest{
		UserID:         uuid.MustParse(req.UserID),
		CompanyName:    req.CompanyName,
		Type:           clinic.PartnerType(req.Type),
		City:           req.City,
		UniqueCode:     req.UniqueCode,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondCreated(c, partner)
}

// ListPartners returns every partner profile
func (h *UserHandler) ListPartners(c *gin.Context) {
	partners, err := h.userService.ListPartners(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, partners)
}

// parseIDParam reads a uuid path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}
