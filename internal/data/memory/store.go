// Package memory is an in-process implementation of every repository and of
// persistence.Transactor. Units of work run one at a time and are rolled back
// by restoring a snapshot, which makes it a faithful stand-in for the
// Postgres store in service tests and local runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/doctor-smile-ledger/internal/data"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/outbox"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type state struct {
	users        map[uuid.UUID]clinic.User
	partners     map[uuid.UUID]clinic.Partner
	services     map[uuid.UUID]clinic.Service
	appointments map[uuid.UUID]clinic.Appointment
	invoices     map[uuid.UUID]clinic.Invoice
	accounts     map[uuid.UUID]account.Account
	transactions map[uuid.UUID]ledger.Transaction
	entries      []ledger.Entry
	outbox       []outbox.Message
	settings     map[settings.Key]string
	outboxSeq    int64
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		partners:     maps.Clone(s.partners),
		services:     maps.Clone(s.services),
		appointments: maps.Clone(s.appointments),
		invoices:     maps.Clone(s.invoices),
		accounts:     maps.Clone(s.accounts),
		transactions: maps.Clone(s.transactions),
		entries:      slices.Clone(s.entries),
		outbox:       slices.Clone(s.outbox),
		settings:     maps.Clone(s.settings),
		outboxSeq:    s.outboxSeq,
	}
}

// Store holds all data in memory
type Store struct {
	mu    sync.RWMutex
	data  *state
	units chan struct{}

	failNext error
}

var _ persistence.Transactor = (*Store)(nil)

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		data: &state{
			users:        map[uuid.UUID]clinic.User{},
			partners:     map[uuid.UUID]clinic.Partner{},
			services:     map[uuid.UUID]clinic.Service{},
			appointments: map[uuid.UUID]clinic.Appointment{},
			invoices:     map[uuid.UUID]clinic.Invoice{},
			accounts:     map[uuid.UUID]account.Account{},
			transactions: map[uuid.UUID]ledger.Transaction{},
			settings:     map[settings.Key]string{},
		},
		units: make(chan struct{}, 1),
	}
}

// memTx is handed to units of work. Memory repositories ignore it.
type memTx struct {
	pgx.Tx
}

// FailNextCommit makes the next ExecuteTx return err after fn succeeds,
// discarding everything fn wrote.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// ExecuteTx runs fn with exclusive access. Waiting for a running unit
// respects ctx and reports shared.ErrBusy when it runs out.
func (s *Store) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	select {
	case s.units <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", shared.ErrBusy, ctx.Err())
	}
	defer func() { <-s.units }()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	rollback := func() {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
	}

	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err := fn(memTx{}); err != nil {
		rollback()
		return err
	}

	s.mu.Lock()
	failNext := s.failNext
	s.failNext = nil
	s.mu.Unlock()
	if failNext != nil {
		rollback()
		return fmt.Errorf("failed to commit transaction: %w", failNext)
	}
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

// Repositories returns the repository set backed by s
func (s *Store) Repositories() data.Repositories {
	return data.Repositories{
		Accounts:     &AccountRepository{store: s},
		Ledger:       &LedgerRepository{store: s},
		Outbox:       &OutboxRepository{store: s},
		Settings:     &SettingsRepository{store: s},
		Users:        &UserRepository{store: s},
		Partners:     &PartnerRepository{store: s},
		Services:     &ServiceRepository{store: s},
		Appointments: &AppointmentRepository{store: s},
		Invoices:     &InvoiceRepository{store: s},
	}
}
