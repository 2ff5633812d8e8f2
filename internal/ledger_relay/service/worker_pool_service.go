package service

import (
	"context"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProjectionService bounds concurrent journal writes with an ants pool
type WorkerPoolProjectionService struct {
	baseService ProjectionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProjectionService(
	baseService ProjectionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProjectionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProjectionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Project runs the projection on a pool worker and waits for its result.
// The caller still sees events one at a time; the pool caps how many
// journal writes run across all callers.
func (s *WorkerPoolProjectionService) Project(ctx context.Context, event *ledger.Event) error {
	result := make(chan error, 1)

	err := s.pool.Submit(func() {
		result <- s.baseService.Project(ctx, event)
	})
	if err != nil {
		s.logger.Error("Failed to submit projection to worker pool",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolProjectionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProjectionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProjectionService) Capacity() int {
	return s.pool.Cap()
}
