package memory

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements ledger.Repository in memory
type LedgerRepository struct {
	store *Store
}

func (r *LedgerRepository) WithTx(pgx.Tx) ledger.Repository { return r }

func (r *LedgerRepository) Create(_ context.Context, txn *ledger.Transaction) error {
	r.store.write(func(d *state) {
		header := *txn
		header.Entries = slices.Clone(txn.Entries)
		d.transactions[txn.ID] = header
		d.entries = append(d.entries, txn.Entries...)
	})
	return nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	var out *ledger.Transaction
	r.store.read(func(d *state) {
		if txn, ok := d.transactions[id]; ok {
			txn.Entries = slices.Clone(txn.Entries)
			out = &txn
		}
	})
	if out == nil {
		return nil, ledger.ErrTransactionNotFound{TransactionID: id}
	}
	return out, nil
}

func (r *LedgerRepository) LockByID(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *LedgerRepository) MarkVoid(_ context.Context, id uuid.UUID) error {
	var err error
	r.store.write(func(d *state) {
		txn, ok := d.transactions[id]
		if !ok || txn.Status != ledger.StatusPosted {
			err = ledger.ErrAlreadyVoid{TransactionID: id}
			return
		}
		txn.Status = ledger.StatusVoid
		d.transactions[id] = txn
	})
	return err
}

// History takes a fresh snapshot of the account's entries on every range.
func (r *LedgerRepository) History(ctx context.Context, accountID uuid.UUID) iter.Seq2[ledger.HistoryItem, error] {
	return func(yield func(ledger.HistoryItem, error) bool) {
		var items []ledger.HistoryItem
		r.store.read(func(d *state) {
			for i := len(d.entries) - 1; i >= 0; i-- {
				e := d.entries[i]
				if e.AccountID != accountID {
					continue
				}
				txn := d.transactions[e.TransactionID]
				items = append(items, ledger.HistoryItem{
					EntryID:       e.ID,
					TransactionID: e.TransactionID,
					AccountID:     e.AccountID,
					Amount:        e.Amount,
					Side:          e.Side,
					Description:   txn.Description,
					ReferenceKind: txn.ReferenceKind,
					Status:        txn.Status,
					CreatedAt:     e.CreatedAt,
				})
			}
		})
		slices.SortStableFunc(items, func(a, b ledger.HistoryItem) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				yield(ledger.HistoryItem{}, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (r *LedgerRepository) SumSince(_ context.Context, accountID uuid.UUID, side ledger.Side, kind ledger.ReferenceKind, since time.Time) (int64, error) {
	var total int64
	r.store.read(func(d *state) {
		for _, e := range d.entries {
			if e.AccountID != accountID || e.Side != side || e.CreatedAt.Before(since) {
				continue
			}
			txn := d.transactions[e.TransactionID]
			if txn.ReferenceKind == kind && txn.Status == ledger.StatusPosted {
				total += e.Amount
			}
		}
	})
	return total, nil
}

func (r *LedgerRepository) Totals(_ context.Context) (map[uuid.UUID]ledger.SideTotals, error) {
	totals := make(map[uuid.UUID]ledger.SideTotals)
	r.store.read(func(d *state) {
		for _, e := range d.entries {
			t := totals[e.AccountID]
			if e.Side == ledger.SideDebit {
				t.Debit += e.Amount
			} else {
				t.Credit += e.Amount
			}
			totals[e.AccountID] = t
		}
	})
	return totals, nil
}

// Entries returns a copy of every entry ever written, in write order.
func (s *Store) Entries() []ledger.Entry {
	var out []ledger.Entry
	s.read(func(d *state) { out = slices.Clone(d.entries) })
	return out
}

// TransactionCount reports how many transaction headers exist.
func (s *Store) TransactionCount() int {
	var n int
	s.read(func(d *state) { n = len(d.transactions) })
	return n
}
