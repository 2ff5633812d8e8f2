package service

import (
	"context"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"golang.org/x/sync/errgroup"
)

const recentAppointmentsLimit = 10

// StatsServiceImpl implements StatsService
type StatsServiceImpl struct {
	accounts     account.Repository
	users        clinic.UserRepository
	appointments clinic.AppointmentRepository
	logger       *slog.Logger
}

// NewStatsService creates the admin stats service
func NewStatsService(logger *slog.Logger, accounts account.Repository, users clinic.UserRepository, appointments clinic.AppointmentRepository) StatsService {
	return &StatsServiceImpl{
		accounts:     accounts,
		users:        users,
		appointments: appointments,
		logger:       logger.With("component", "stats_service"),
	}
}

// GetAdminStats runs the dashboard reads concurrently. The figures are not
// a single snapshot.
func (s *StatsServiceImpl) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.users.CountByRole(gctx, clinic.RolePatient)
		stats.PatientCount = count
		return err
	})
	g.Go(func() error {
		revenue, err := s.accounts.GetBySystemName(gctx, account.SystemRevenue)
		if err != nil {
			return err
		}
		stats.RevenueBalance = revenue.Balance
		return nil
	})
	g.Go(func() error {
		liability, err := s.accounts.SumBalanceByCategory(gctx, account.CategoryLiability)
		stats.OutstandingLiability = liability
		return err
	})
	g.Go(func() error {
		recent, err := s.appointments.List(gctx, clinic.AppointmentFilter{Limit: recentAppointmentsLimit})
		stats.RecentAppointments = recent
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to build admin stats", "error", err)
		return nil, err
	}
	if stats.RecentAppointments == nil {
		stats.RecentAppointments = []*clinic.Appointment{}
	}
	return stats, nil
}
