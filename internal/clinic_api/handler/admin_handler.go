package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the dashboard, reconciliation and runtime config
type AdminHandler struct {
	statsService service.StatsService
	reconciler   service.Reconciler
	configStore  service.ConfigStore
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	logger *slog.Logger,
	statsService service.StatsService,
	reconciler service.Reconciler,
	configStore service.ConfigStore,
) *AdminHandler {
	return &AdminHandler{
		statsService: statsService,
		reconciler:   reconciler,
		configStore:  configStore,
		logger:       logger,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.statsService.GetAdminStats(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, stats)
}

// Reconcile reports every account whose balance disagrees with its entries
func (h *AdminHandler) Reconcile(c *gin.Context) {
	mismatches, err := h.reconciler.Reconcile(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, gin.H{
		"balanced":   len(mismatches) == 0,
		"mismatches": mismatches,
	})
}

func (h *AdminHandler) GetConfig(c *gin.Context) {
	key := settings.Key(c.Param("key"))
	value, err := h.configStore.GetString(c.Request.Context(), key)
	if errors.Is(err, settings.ErrSettingMissing{}) {
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, settings.Setting{Key: key, Value: value})
}

func (h *AdminHandler) SetConfig(c *gin.Context) {
	var req SetConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	key := settings.Key(c.Param("key"))
	if err := h.configStore.Set(c.Request.Context(), key, req.Value); err != nil {
		RespondError(c, h.logger, err)
		return
	}
	RespondOK(c, settings.Setting{Key: key, Value: req.Value})
}
