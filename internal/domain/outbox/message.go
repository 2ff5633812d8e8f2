package outbox

import (
	"encoding/json"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message is a ledger event waiting in the outbox table to be published
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	EventType     ledger.EventType    `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps event as a PENDING row
func NewMessage(event *ledger.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: event.TransactionID,
		EventType:     event.Type,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

// LastAttempt reports whether one more failed publish uses up the retry budget
func (m *Message) LastAttempt(maxAttempts int) bool {
	return m.Attempts+1 >= maxAttempts
}

// Key partitions the ledger topic so every event of one transaction lands in order
func (m *Message) Key() string {
	return m.TransactionID.String()
}

// Event decodes the ledger event carried in the payload
func (m *Message) Event() (*ledger.Event, error) {
	var event ledger.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
