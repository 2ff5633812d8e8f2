// Package clinic_api serves the clinic's HTTP surface: users, appointments,
// checkout, transfers and the admin views over the ledger.
package clinic_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/doctor-smile-ledger/internal/clinic_api/handler"
	"github.com/doctor-smile-ledger/internal/clinic_api/service"
	"github.com/doctor-smile-ledger/internal/config"
	"github.com/gin-gonic/gin"
)

// Services bundles everything the handlers call
type Services struct {
	Engine       service.LedgerEngine
	Registry     service.AccountRegistry
	Checkout     service.CheckoutService
	Transfer     service.TransferService
	Users        service.UserService
	Appointments service.AppointmentService
	Stats        service.StatsService
	Reconciler   service.Reconciler
	Config       service.ConfigStore
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := NewRouter(log, services)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// NewRouter builds the gin engine with middleware and every route mounted
func NewRouter(log *slog.Logger, services Services) *gin.Engine {
	r := gin.New()
	setupRouter(log, r,
		handler.NewUserHandler(log, services.Users),
		handler.NewLedgerHandler(log, services.Engine, services.Checkout, services.Transfer),
		handler.NewAppointmentHandler(log, services.Appointments),
		handler.NewAdminHandler(log, services.Stats, services.Reconciler, services.Config),
	)
	return r
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
