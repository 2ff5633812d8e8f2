package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventType distinguishes the two things that can happen to a transaction
type EventType string

const (
	EventPosted EventType = "TRANSACTION_POSTED"
	EventVoided EventType = "TRANSACTION_VOIDED"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventPosted || t == EventVoided
}

// Event is what the engine hands to the outbox for downstream consumers.
type Event struct {
	Type          EventType     `json:"type"`
	TransactionID uuid.UUID     `json:"transaction_id"`
	Description   string        `json:"description"`
	ReferenceKind ReferenceKind `json:"reference_kind"`
	ReferenceID   *uuid.UUID    `json:"reference_id,omitempty"`
	ReversalOf    *uuid.UUID    `json:"reversal_of,omitempty"`
	Entries       []Entry       `json:"entries"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// PostedEvent describes a freshly posted transaction.
func PostedEvent(txn *Transaction) *Event {
	return &Event{
		Type:          EventPosted,
		TransactionID: txn.ID,
		Description:   txn.Description,
		ReferenceKind: txn.ReferenceKind,
		ReferenceID:   txn.ReferenceID,
		ReversalOf:    txn.ReversalOf,
		Entries:       txn.Entries,
		OccurredAt:    txn.CreatedAt,
	}
}

// VoidedEvent describes the POSTED -> VOID flip of original.
func VoidedEvent(original *Transaction, reversalID uuid.UUID) *Event {
	return &Event{
		Type:          EventVoided,
		TransactionID: original.ID,
		Description:   original.Description,
		ReferenceKind: original.ReferenceKind,
		ReferenceID:   &reversalID,
		OccurredAt:    time.Now().UTC(),
	}
}
