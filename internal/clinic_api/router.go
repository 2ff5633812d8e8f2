package clinic_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/doctor-smile-ledger/internal/clinic_api/handler"
	"github.com/doctor-smile-ledger/internal/clinic_api/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	userHandler *handler.UserHandler,
	ledgerHandler *handler.LedgerHandler,
	appointmentHandler *handler.AppointmentHandler,
	adminHandler *handler.AdminHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("/:id/wallet", userHandler.GetWallet)
		}

		partners := v1.Group("/partners")
		{
			partners.GET("", userHandler.ListPartners)
			partners.POST("", userHandler.CreatePartner)
		}

		v1.GET("/accounts/:id/history", ledgerHandler.History)
		v1.POST("/wallet/transfer", ledgerHandler.Transfer)
		v1.POST("/checkout", ledgerHandler.Checkout)

		v1.GET("/services", appointmentHandler.ListServices)
		appointments := v1.Group("/appointments")
		{
			appointments.GET("", appointmentHandler.List)
			appointments.POST("", appointmentHandler.Create)
			appointments.PATCH("/:id/status", appointmentHandler.UpdateStatus)
			appointments.POST("/:id/cancel", appointmentHandler.Cancel)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/reconcile", adminHandler.Reconcile)
			admin.POST("/transactions/:id/void", ledgerHandler.Void)
		}

		v1.GET("/config/:key", adminHandler.GetConfig)
		v1.PUT("/config/:key", adminHandler.SetConfig)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
