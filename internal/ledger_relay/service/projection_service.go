// Package service projects ledger events into the journal read model.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
)

// ErrUnknownEvent marks an event the projection does not understand
var ErrUnknownEvent = errors.New("unknown ledger event")

// JournalProjectionService writes events to the journal repository
type JournalProjectionService struct {
	journal ledger.JournalRepository
	logger  *slog.Logger
}

func NewJournalProjectionService(journal ledger.JournalRepository, logger *slog.Logger) *JournalProjectionService {
	return &JournalProjectionService{
		journal: journal,
		logger:  logger,
	}
}

// Project records a posting or flips a record to VOID. Both are idempotent.
func (s *JournalProjectionService) Project(ctx context.Context, event *ledger.Event) error {
	logger := s.logger.With("transaction_id", event.TransactionID.String(), "event_type", string(event.Type))

	switch event.Type {
	case ledger.EventPosted:
		if err := s.journal.RecordPosted(ctx, ledger.NewJournalRecord(event)); err != nil {
			return fmt.Errorf("failed to project posting %s: %w", event.TransactionID, err)
		}
	case ledger.EventVoided:
		if event.ReferenceID == nil {
			return fmt.Errorf("%w: void of %s names no reversal", ErrUnknownEvent, event.TransactionID)
		}
		err := s.journal.RecordVoided(ctx, event.TransactionID.String(), event.ReferenceID.String(), event.OccurredAt)
		if err != nil {
			return fmt.Errorf("failed to project void of %s: %w", event.TransactionID, err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}

	logger.Info("Projected ledger event")
	return nil
}
