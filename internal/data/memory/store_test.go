package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ExecuteTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	wallet, err := account.NewWallet(uuid.New(), "Ana")
	require.NoError(t, err)
	require.NoError(t, repos.Accounts.Create(ctx, wallet))

	boom := errors.New("boom")
	err = store.ExecuteTx(ctx, func(tx pgx.Tx) error {
		require.NoError(t, repos.Accounts.WithTx(tx).ApplyDelta(ctx, wallet.ID, 500))
		txn := ledger.NewTransaction("half written", ledger.ReferenceAdjustment, nil, []ledger.Leg{
			ledger.Debit(uuid.New(), 500), ledger.Credit(wallet.ID, 500),
		})
		require.NoError(t, repos.Ledger.WithTx(tx).Create(ctx, txn))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repos.Accounts.GetByID(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)
	assert.Empty(t, store.Entries())
	assert.Zero(t, store.TransactionCount())
}

func TestStore_ExecuteTx_FailNextCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	store.FailNextCommit(errors.New("disk full"))
	err := store.ExecuteTx(ctx, func(tx pgx.Tx) error {
		user, err := clinic.NewUser("555-0100", clinic.RolePatient, "Ana", nil)
		require.NoError(t, err)
		return repos.Users.WithTx(tx).Create(ctx, user)
	})
	assert.ErrorContains(t, err, "disk full")

	_, err = repos.Users.GetByPhone(ctx, "555-0100")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.NoError(t, store.ExecuteTx(ctx, func(pgx.Tx) error { return nil }))
}

func TestStore_ExecuteTx_BusyWhenContextExpires(t *testing.T) {
	store := NewStore()
	hold := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = store.ExecuteTx(context.Background(), func(pgx.Tx) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := store.ExecuteTx(ctx, func(pgx.Tx) error { return nil })
	assert.ErrorIs(t, err, shared.ErrBusy)
	close(hold)
}

func TestStore_Constraints(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	userID := uuid.New()
	first, _ := account.NewWallet(userID, "Ana")
	second, _ := account.NewWallet(userID, "Ana")
	require.NoError(t, repos.Accounts.Create(ctx, first))
	assert.ErrorIs(t, repos.Accounts.Create(ctx, second), account.ErrDuplicateWallet{})

	a, _ := clinic.NewUser("555-0100", "", "Ana", nil)
	b, _ := clinic.NewUser("555-0100", "", "Ben", nil)
	require.NoError(t, repos.Users.Create(ctx, a))
	assert.ErrorIs(t, repos.Users.Create(ctx, b), shared.ErrConflict)

	hotel, _ := clinic.NewPartner(a.ID, "Blue Hotel", clinic.PartnerHotel, "", "blue", decimal.Zero)
	again, _ := clinic.NewPartner(a.ID, "Blue Annex", clinic.PartnerHotel, "", "annex", decimal.Zero)
	taken, _ := clinic.NewPartner(uuid.New(), "Blue Grill", clinic.PartnerRestaurant, "", "BLUE", decimal.Zero)
	require.NoError(t, repos.Partners.Create(ctx, hotel))
	assert.ErrorIs(t, repos.Partners.Create(ctx, again), clinic.ErrDuplicatePartner{})
	assert.ErrorIs(t, repos.Partners.Create(ctx, taken), shared.ErrConflict)
	partners, err := repos.Partners.List(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "BLUE", partners[0].UniqueCode)

	txn := ledger.NewTransaction("t", ledger.ReferenceAdjustment, nil, []ledger.Leg{
		ledger.Debit(uuid.New(), 1), ledger.Credit(uuid.New(), 1),
	})
	require.NoError(t, repos.Ledger.Create(ctx, txn))
	require.NoError(t, repos.Ledger.MarkVoid(ctx, txn.ID))
	assert.ErrorIs(t, repos.Ledger.MarkVoid(ctx, txn.ID), ledger.ErrAlreadyVoid{})
}

func TestLedgerRepository_HistoryIsRestartable(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	acc := uuid.New()

	for i := 1; i <= 3; i++ {
		txn := ledger.NewTransaction("t", ledger.ReferenceTransfer, nil, []ledger.Leg{
			ledger.Debit(acc, int64(i)), ledger.Credit(uuid.New(), int64(i)),
		})
		require.NoError(t, repos.Ledger.Create(ctx, txn))
	}

	seq := repos.Ledger.History(ctx, acc)
	var first, second []int64
	for item, err := range seq {
		require.NoError(t, err)
		first = append(first, item.Amount)
	}
	for item, err := range seq {
		require.NoError(t, err)
		second = append(second, item.Amount)
	}
	assert.Equal(t, []int64{3, 2, 1}, first)
	assert.Equal(t, first, second)
}
