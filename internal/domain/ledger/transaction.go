// Package ledger models double-entry transactions: a transaction groups two or
// more entries whose debits and credits sum to the same amount.
package ledger

import (
	"fmt"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Side is the column an entry is written to
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Valid reports whether s is DEBIT or CREDIT.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// ReferenceKind names the business event that produced a transaction
type ReferenceKind string

const (
	ReferenceTransfer   ReferenceKind = "TRANSFER"
	ReferenceInvoice    ReferenceKind = "INVOICE"
	ReferenceAdjustment ReferenceKind = "ADJUSTMENT"
)

// Valid reports whether k is a known reference kind.
func (k ReferenceKind) Valid() bool {
	switch k {
	case ReferenceTransfer, ReferenceInvoice, ReferenceAdjustment:
		return true
	}
	return false
}

// Status of a posted transaction. POSTED -> VOID is the only transition.
type Status string

const (
	StatusPosted Status = "POSTED"
	StatusVoid   Status = "VOID"
)

// Transaction is the header row of a posting.
type Transaction struct {
	ID            uuid.UUID     `json:"id"`
	Description   string        `json:"description"`
	ReferenceKind ReferenceKind `json:"reference_kind"`
	ReferenceID   *uuid.UUID    `json:"reference_id,omitempty"`
	ReversalOf    *uuid.UUID    `json:"reversal_of,omitempty"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	Entries       []Entry       `json:"entries,omitempty"`
}

// Entry is one immutable line of a transaction. Amount is always positive;
// direction comes from Side.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	AccountID     uuid.UUID `json:"account_id"`
	Amount        int64     `json:"amount"`
	Side          Side      `json:"side"`
	CreatedAt     time.Time `json:"created_at"`
}

// Leg is a requested entry before it is posted.
type Leg struct {
	AccountID uuid.UUID `json:"account_id"`
	Amount    int64     `json:"amount"`
	Side      Side      `json:"side"`
}

// Debit builds a debit leg.
func Debit(accountID uuid.UUID, amount int64) Leg {
	return Leg{AccountID: accountID, Amount: amount, Side: SideDebit}
}

// Credit builds a credit leg.
func Credit(accountID uuid.UUID, amount int64) Leg {
	return Leg{AccountID: accountID, Amount: amount, Side: SideCredit}
}

// Effect is the sign a side has on a balance of the given category: debits
// increase ASSET and EXPENSE balances and decrease the rest.
func Effect(category account.Category, side Side) int64 {
	if category.DebitNormal() == (side == SideDebit) {
		return 1
	}
	return -1
}

// SignedAmount is amount with the Effect applied.
func SignedAmount(category account.Category, side Side, amount int64) int64 {
	return Effect(category, side) * amount
}

// ValidateLegs checks shape and the balance law. Every shape problem is
// reported; the balance check only runs when the legs are well formed.
func ValidateLegs(legs []Leg) error {
	var err error
	if len(legs) < 2 {
		err = multierr.Append(err, ErrInvalidLeg{Index: -1, Reason: fmt.Sprintf("need at least 2 legs, got %d", len(legs))})
	}

	var debits, credits int64
	for i, leg := range legs {
		if leg.AccountID == uuid.Nil {
			err = multierr.Append(err, ErrInvalidLeg{Index: i, Reason: "missing account"})
		}
		if leg.Amount <= 0 {
			err = multierr.Append(err, ErrInvalidLeg{Index: i, Reason: fmt.Sprintf("amount must be positive, got %d", leg.Amount)})
		}
		var ok bool
		switch leg.Side {
		case SideDebit:
			if debits, ok = shared.AddMinor(debits, max(leg.Amount, 0)); !ok {
				err = multierr.Append(err, ErrInvalidLeg{Index: i, Reason: "debit total overflows"})
			}
		case SideCredit:
			if credits, ok = shared.AddMinor(credits, max(leg.Amount, 0)); !ok {
				err = multierr.Append(err, ErrInvalidLeg{Index: i, Reason: "credit total overflows"})
			}
		default:
			err = multierr.Append(err, ErrInvalidLeg{Index: i, Reason: fmt.Sprintf("unknown side %q", leg.Side)})
		}
	}
	if err != nil {
		return err
	}

	if debits != credits {
		return ErrUnbalancedTransaction{Debits: debits, Credits: credits}
	}
	return nil
}

// Deltas folds legs into one signed balance change per account.
func Deltas(legs []Leg, categories map[uuid.UUID]account.Category) (map[uuid.UUID]int64, error) {
	deltas := make(map[uuid.UUID]int64, len(legs))
	for i, leg := range legs {
		category, ok := categories[leg.AccountID]
		if !ok {
			return nil, account.ErrAccountNotFound{AccountID: leg.AccountID}
		}
		delta, ok := shared.AddMinor(deltas[leg.AccountID], SignedAmount(category, leg.Side, leg.Amount))
		if !ok {
			return nil, ErrInvalidLeg{Index: i, Reason: "balance change for one account overflows"}
		}
		deltas[leg.AccountID] = delta
	}
	return deltas, nil
}

// AccountIDs returns the distinct accounts touched by legs, in first-seen order.
func AccountIDs(legs []Leg) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(legs))
	ids := make([]uuid.UUID, 0, len(legs))
	for _, leg := range legs {
		if _, ok := seen[leg.AccountID]; ok {
			continue
		}
		seen[leg.AccountID] = struct{}{}
		ids = append(ids, leg.AccountID)
	}
	return ids
}

// ReversalLegs mirrors a transaction's entries with every side flipped.
func ReversalLegs(entries []Entry) []Leg {
	legs := make([]Leg, 0, len(entries))
	for _, e := range entries {
		legs = append(legs, Leg{AccountID: e.AccountID, Amount: e.Amount, Side: e.Side.Opposite()})
	}
	return legs
}

// NewTransaction builds a POSTED header and one entry per leg.
func NewTransaction(description string, kind ReferenceKind, referenceID *uuid.UUID, legs []Leg) *Transaction {
	now := time.Now().UTC()
	txn := &Transaction{
		ID:            uuid.New(),
		Description:   description,
		ReferenceKind: kind,
		ReferenceID:   referenceID,
		Status:        StatusPosted,
		CreatedAt:     now,
		Entries:       make([]Entry, 0, len(legs)),
	}
	for _, leg := range legs {
		txn.Entries = append(txn.Entries, Entry{
			ID:            uuid.New(),
			TransactionID: txn.ID,
			AccountID:     leg.AccountID,
			Amount:        leg.Amount,
			Side:          leg.Side,
			CreatedAt:     now,
		})
	}
	return txn
}

// HistoryItem is an entry joined with its transaction header, as shown in a wallet view.
type HistoryItem struct {
	EntryID       uuid.UUID     `json:"entry_id"`
	TransactionID uuid.UUID     `json:"transaction_id"`
	AccountID     uuid.UUID     `json:"account_id"`
	Amount        int64         `json:"amount"`
	Side          Side          `json:"side"`
	Description   string        `json:"description"`
	ReferenceKind ReferenceKind `json:"reference_kind"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}
