package memory

import (
	"context"
	"slices"

	"github.com/doctor-smile-ledger/internal/domain/outbox"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// OutboxRepository implements outbox.Repository in memory
type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) WithTx(pgx.Tx) outbox.Repository { return r }

func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	r.store.write(func(d *state) {
		d.outboxSeq++
		message.ID = d.outboxSeq
		d.outbox = append(d.outbox, *message)
	})
	return nil
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var out []*outbox.Message
	r.store.read(func(d *state) {
		for _, m := range d.outbox {
			if m.Status != shared.OutboxStatusPending {
				continue
			}
			out = append(out, &m)
			if len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.update(id, func(m *outbox.Message) { m.Status = status })
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.update(id, func(m *outbox.Message) { m.Attempts++ })
}

func (r *OutboxRepository) update(id int64, fn func(m *outbox.Message)) error {
	found := false
	r.store.write(func(d *state) {
		for i := range d.outbox {
			if d.outbox[i].ID == id {
				fn(&d.outbox[i])
				found = true
				return
			}
		}
	})
	if !found {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// OutboxMessages returns a copy of the outbox in write order.
func (s *Store) OutboxMessages() []outbox.Message {
	var out []outbox.Message
	s.read(func(d *state) { out = slices.Clone(d.outbox) })
	return out
}
