package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/outbox"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/messaging/producers"
)

// EventTypeHeader carries the ledger event type on every published message
const EventTypeHeader = "event-type"

// ErrUndecodablePayload marks an outbox row whose payload is not a ledger
// event. Retrying cannot fix it.
var ErrUndecodablePayload = errors.New("outbox payload is not a ledger event")

// EventPublisher publishes one outbox message and marks it processed
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher over the ledger topic
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent sends the payload keyed by transaction id, then marks the row
// PROCESSED. A crash between the two publishes the event again, which the
// journal projection absorbs.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "transaction_id", message.TransactionID.String())

	event, err := message.Event()
	if err != nil || !event.Type.Valid() {
		logger.Error("Outbox payload is not a ledger event", "event_type", string(message.EventType), "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to mark undecodable outbox message", "update_error", updateErr)
		}
		return fmt.Errorf("outbox message %d: %w", message.ID, ErrUndecodablePayload)
	}

	headers := map[string]string{EventTypeHeader: string(event.Type)}
	if err := p.producer.Publish(ctx, message.Key(), message.Payload, headers); err != nil {
		return fmt.Errorf("failed to publish outbox message %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Published but failed to mark outbox message PROCESSED", "error", err)
		return fmt.Errorf("published outbox message %d but failed to mark it processed: %w", message.ID, err)
	}

	logger.Debug("Published ledger event", "event_type", string(event.Type))
	return nil
}
