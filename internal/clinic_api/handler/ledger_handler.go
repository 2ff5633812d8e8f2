package handler

import (
	"log/slog"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles the endpoints that post to or read from the ledger
type LedgerHandler struct {
	engine          service.LedgerEngine
	checkoutService service.CheckoutService
	transferService service.TransferService
	logger          *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(
	logger *slog.Logger,
	engine service.LedgerEngine,
	checkoutService service.CheckoutService,
	transferService service.TransferService,
) *LedgerHandler {
	return &LedgerHandler{
		engine:          engine,
		checkoutService: checkoutService,
		transferService: transferService,
		logger:          logger,
	}
}

// Checkout settles a confirmed appointment
func (h *LedgerHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), service.CheckoutRequest{
		PatientID:             uuid.MustParse(req.PatientID),
		AppointmentID:         uuid.MustParse(req.AppointmentID),
		PaymentMethod:         clinic.PaymentMethod(req.PaymentMethod),
		WalletAmountRequested: req.WalletAmount,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, result)
}

// Transfer moves wallet credit to the user owning to_phone
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.transferService.Transfer(c.Request.Context(), service.TransferRequest{
		FromUserID: uuid.MustParse(req.FromUserID),
		ToPhone:    req.ToPhone,
		Amount:     req.Amount,
	})
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, result)
}

// History lists an account's entries, newest first
func (h *LedgerHandler) History(c *gin.Context) {
	accountID, ok := parseIDParam(c, "id", "Invalid account ID")
	if !ok {
		return
	}

	items := []ledger.HistoryItem{}
	for item, err := range h.engine.GetHistory(c.Request.Context(), accountID) {
		if err != nil {
			RespondError(c, h.logger, err)
			return
		}
		items = append(items, item)
	}
	RespondOK(c, items)
}

// Void reverses a posted transaction
func (h *LedgerHandler) Void(c *gin.Context) {
	transactionID, ok := parseIDParam(c, "id", "Invalid transaction ID")
	if !ok {
		return
	}

	reversal, err := h.engine.VoidTransaction(c.Request.Context(), transactionID)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{
		"voided_transaction_id": transactionID,
		"reversal":              reversal,
	})
}
