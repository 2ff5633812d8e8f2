package ledger

import (
	"context"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/shared"
)

// JournalLine is an entry as stored in the read-side journal.
type JournalLine struct {
	EntryID   string `json:"entry_id" bson:"entry_id"`
	AccountID string `json:"account_id" bson:"account_id"`
	Amount    int64  `json:"amount" bson:"amount"`
	Side      Side   `json:"side" bson:"side"`
}

// JournalRecord is the audit projection of one transaction, keyed by its id.
type JournalRecord struct {
	TransactionID string        `json:"transaction_id" bson:"_id"`
	Description   string        `json:"description" bson:"description"`
	ReferenceKind ReferenceKind `json:"reference_kind" bson:"reference_kind"`
	ReferenceID   string        `json:"reference_id,omitempty" bson:"reference_id,omitempty"`
	ReversalOf    string        `json:"reversal_of,omitempty" bson:"reversal_of,omitempty"`
	Status        Status        `json:"status" bson:"status"`
	AccountIDs    []string      `json:"account_ids" bson:"account_ids"`
	Lines         []JournalLine `json:"lines" bson:"lines"`
	PostedAt      time.Time     `json:"posted_at" bson:"posted_at"`
	VoidedBy      string        `json:"voided_by,omitempty" bson:"voided_by,omitempty"`
	VoidedAt      *time.Time    `json:"voided_at,omitempty" bson:"voided_at,omitempty"`
	ProjectedAt   time.Time     `json:"projected_at" bson:"projected_at"`
}

// NewJournalRecord projects a posted event.
func NewJournalRecord(event *Event) *JournalRecord {
	rec := &JournalRecord{
		TransactionID: event.TransactionID.String(),
		Description:   event.Description,
		ReferenceKind: event.ReferenceKind,
		Status:        StatusPosted,
		AccountIDs:    []string{},
		Lines:         make([]JournalLine, 0, len(event.Entries)),
		PostedAt:      event.OccurredAt,
		ProjectedAt:   time.Now().UTC(),
	}
	if event.ReferenceID != nil {
		rec.ReferenceID = event.ReferenceID.String()
	}
	if event.ReversalOf != nil {
		rec.ReversalOf = event.ReversalOf.String()
	}
	seen := map[string]struct{}{}
	for _, e := range event.Entries {
		accountID := e.AccountID.String()
		rec.Lines = append(rec.Lines, JournalLine{
			EntryID:   e.ID.String(),
			AccountID: accountID,
			Amount:    e.Amount,
			Side:      e.Side,
		})
		if _, ok := seen[accountID]; !ok {
			seen[accountID] = struct{}{}
			rec.AccountIDs = append(rec.AccountIDs, accountID)
		}
	}
	return rec
}

// JournalRepository stores the projection. Both writes are idempotent so a
// redelivered event is harmless.
type JournalRepository interface {
	RecordPosted(ctx context.Context, record *JournalRecord) error
	RecordVoided(ctx context.Context, transactionID, reversalID string, at time.Time) error
	GetByTransactionID(ctx context.Context, transactionID string) (*JournalRecord, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*JournalRecord, error)
}

// ErrJournalRecordNotFound indicates the projection has not seen a transaction yet
type ErrJournalRecordNotFound struct {
	TransactionID string
}

func (e ErrJournalRecordNotFound) Error() string {
	return "journal record not found: " + e.TransactionID
}

func (e ErrJournalRecordNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	_, ok := target.(ErrJournalRecordNotFound)
	return ok
}
