package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/ledger"
	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransfer_MovesCredit(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	sender := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	receiver := f.createUser(t, "555-0200", "Ben", clinic.RolePatient, nil)
	f.fund(t, sender.Wallet, 5000)
	events := len(f.store.OutboxMessages())

	res, err := f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 3000})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), res.Amount)
	assert.Equal(t, int64(2000), res.SenderBalance)
	assert.Equal(t, "Ben", res.ReceiverName)

	assert.Equal(t, int64(2000), f.balance(t, sender.Wallet.ID))
	assert.Equal(t, int64(3000), f.balance(t, receiver.Wallet.ID))

	txn, err := f.repos.Ledger.GetByID(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, ledger.ReferenceTransfer, txn.ReferenceKind)
	require.Len(t, txn.Entries, 2)
	assert.Equal(t, ledger.Debit(sender.Wallet.ID, 3000), ledger.Leg{AccountID: txn.Entries[0].AccountID, Amount: txn.Entries[0].Amount, Side: txn.Entries[0].Side})
	assert.Equal(t, ledger.Credit(receiver.Wallet.ID, 3000), ledger.Leg{AccountID: txn.Entries[1].AccountID, Amount: txn.Entries[1].Amount, Side: txn.Entries[1].Side})

	require.Len(t, f.store.OutboxMessages(), events+1)
	assert.Equal(t, res.TransactionID, f.store.OutboxMessages()[events].TransactionID)

	f.requireReconciled(t)
}

func TestTransfer_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	sender := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	f.createUser(t, "555-0200", "Ben", clinic.RolePatient, nil)
	f.fund(t, sender.Wallet, 5000)

	tests := []struct {
		name    string
		req     TransferRequest
		wantErr error
	}{
		{"zero amount", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 0}, shared.ErrInvalidRequest},
		{"below minimum", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 50}, clinic.ErrBelowMinimum{}},
		{"above daily limit", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 100001}, shared.ErrLimitExceeded},
		{"unknown receiver", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-9999", Amount: 1000}, shared.ErrNotFound},
		{"unknown sender", TransferRequest{FromUserID: uuid.New(), ToPhone: "555-0200", Amount: 1000}, clinic.ErrUserNotFound{}},
		{"to self", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0100", Amount: 1000}, clinic.ErrSelfTransfer},
		{"insufficient balance", TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 5001}, shared.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := f.store.TransactionCount()
			_, err := f.transfers.Transfer(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, count, f.store.TransactionCount())
			assert.Equal(t, int64(5000), f.balance(t, sender.Wallet.ID))
		})
	}
}

func TestTransfer_DailyLimitIsCumulative(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	require.NoError(t, f.config.Set(ctx, settings.DailyTransferLimit, "100"))
	sender := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	f.createUser(t, "555-0200", "Ben", clinic.RolePatient, nil)
	f.fund(t, sender.Wallet, 50000)

	_, err := f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 6000})
	require.NoError(t, err)
	_, err = f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 4000})
	require.NoError(t, err)

	_, err = f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 100})
	var limitErr clinic.ErrDailyLimit
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, int64(10000), limitErr.SentToday)
	assert.ErrorIs(t, err, shared.ErrLimitExceeded)

	t.Run("resets the next day", func(t *testing.T) {
		impl := f.transfers.(*TransferServiceImpl)
		impl.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
		defer func() { impl.now = time.Now }()

		_, err := f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 100})
		assert.NoError(t, err)
	})
}

func TestTransfer_OversizedStoredLimitIsConfigurationError(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	sender := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	f.createUser(t, "555-0200", "Ben", clinic.RolePatient, nil)
	f.fund(t, sender.Wallet, 5000)
	require.NoError(t, f.repos.Settings.Set(ctx, settings.DailyTransferLimit, "100000000000000000"))

	count := f.store.TransactionCount()
	_, err := f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 1000})
	assert.ErrorIs(t, err, shared.ErrConfiguration)
	assert.ErrorIs(t, err, settings.ErrSettingInvalid{})
	assert.Equal(t, count, f.store.TransactionCount())
	assert.Equal(t, int64(5000), f.balance(t, sender.Wallet.ID))
}

func TestTransfer_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newClinicFixture(t)

	sender := f.createUser(t, "555-0100", "Ana", clinic.RolePatient, nil)
	receiver := f.createUser(t, "555-0200", "Ben", clinic.RolePatient, nil)
	f.fund(t, sender.Wallet, 5000)

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.transfers.Transfer(ctx, TransferRequest{FromUserID: sender.User.ID, ToPhone: "555-0200", Amount: 1000})
			if err != nil {
				assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Zero(t, f.balance(t, sender.Wallet.ID))
	assert.Equal(t, int64(5000), f.balance(t, receiver.Wallet.ID))
	f.requireReconciled(t)
}
