// Package consumer turns ledger topic messages into journal projections.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/ledger_relay/service"
	"github.com/doctor-smile-ledger/internal/platform/messaging/producers"
)

// JournalEventHandler handles ledger events consumed from Kafka
type JournalEventHandler struct {
	projection service.ProjectionService
	producer   producers.DeadLetterPublisher
	logger     *slog.Logger
}

// NewJournalEventHandler creates a new handler
func NewJournalEventHandler(
	logger *slog.Logger,
	projection service.ProjectionService,
	producer producers.DeadLetterPublisher,
) *JournalEventHandler {
	return &JournalEventHandler{
		projection: projection,
		producer:   producer,
		logger:     logger,
	}
}

// HandleMessage projects one event. Messages that can never be projected go
// to the DLQ and are committed; any other failure is returned so the
// consumer retries.
func (h *JournalEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event ledger.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return h.park(ctx, key, value, fmt.Sprintf("undecodable ledger event: %s", err))
	}

	logger := h.logger.With("transaction_id", event.TransactionID.String(), "event_type", string(event.Type))
	logger.Debug("Received ledger event")

	if err := h.projection.Project(ctx, &event); err != nil {
		if errors.Is(err, service.ErrUnknownEvent) {
			return h.park(ctx, key, value, err.Error())
		}
		logger.Error("Failed to project ledger event", "error", err)
		return fmt.Errorf("projecting %s failed: %w", event.TransactionID, err)
	}
	return nil
}

func (h *JournalEventHandler) park(ctx context.Context, key, value []byte, reason string) error {
	h.logger.Error("Unprojectable ledger event", "message_key", string(key), "reason", reason)
	if h.producer == nil {
		return errors.New(reason)
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to park message in DLQ", "message_key", string(key), "error", err)
		return fmt.Errorf("%s: %w", reason, err)
	}
	return nil
}
