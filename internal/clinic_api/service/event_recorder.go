package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
)

// OutboxEventRecorder implements EventRecorder with the transactional outbox
type OutboxEventRecorder struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewEventRecorder creates an outbox-backed event recorder
func NewEventRecorder(logger *slog.Logger, outboxRepo outbox.Repository) EventRecorder {
	return &OutboxEventRecorder{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Record writes event to the outbox using tx, so it commits or rolls back
// with the posting that produced it
func (r *OutboxEventRecorder) Record(ctx context.Context, tx pgx.Tx, event *ledger.Event) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		r.logger.Error("Failed to create outbox message (marshal payload)",
			"transaction_id", event.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", event.TransactionID, err)
	}

	if err := r.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return fmt.Errorf("failed to create outbox message for tx %s: %w", event.TransactionID, err)
	}

	r.logger.Debug("Outbox message created",
		"transaction_id", event.TransactionID.String(),
		"event_type", string(event.Type),
		"outbox_id", message.ID,
	)
	return nil
}
