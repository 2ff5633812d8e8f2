package account

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		userID := uuid.New()

		before := time.Now()
		wallet, err := NewWallet(userID, "Ana")
		after := time.Now()

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, wallet.ID)
		assert.Equal(t, "Ana's Wallet", wallet.Name)
		assert.Equal(t, CategoryLiability, wallet.Category)
		require.NotNil(t, wallet.UserID)
		assert.Equal(t, userID, *wallet.UserID)
		assert.Empty(t, wallet.SystemName)
		assert.Zero(t, wallet.Balance)
		assert.Equal(t, 1, wallet.Version)
		assert.True(t, wallet.IsWallet())
		assert.WithinDuration(t, before, wallet.CreatedAt, after.Sub(before)+time.Millisecond)
	})

	t.Run("EmptyOwnerName", func(t *testing.T) {
		wallet, err := NewWallet(uuid.New(), "")
		assert.Nil(t, wallet)
		assert.ErrorIs(t, err, ErrEmptyName)
	})
}

func TestNewSystemAccount(t *testing.T) {
	for _, spec := range SystemAccounts() {
		t.Run(string(spec.Name), func(t *testing.T) {
			acc, err := NewSystemAccount(spec)
			require.NoError(t, err)
			assert.Equal(t, spec.Name, acc.SystemName)
			assert.Equal(t, spec.DisplayName, acc.Name)
			assert.Nil(t, acc.UserID)
			assert.False(t, acc.IsWallet())
		})
	}

	t.Run("InvalidCategory", func(t *testing.T) {
		_, err := NewSystemAccount(SystemAccountSpec{Name: "x", DisplayName: "X", Category: "CASHFLOW"})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})
}

func TestSystemAccounts_Categories(t *testing.T) {
	byName := map[SystemName]Category{}
	for _, spec := range SystemAccounts() {
		byName[spec.Name] = spec.Category
	}
	assert.Len(t, byName, 4)
	assert.Equal(t, CategoryAsset, byName[SystemCashBank])
	assert.Equal(t, CategoryRevenue, byName[SystemRevenue])
	assert.Equal(t, CategoryExpense, byName[SystemMarketingExpense])
	assert.Equal(t, CategoryExpense, byName[SystemAffiliateExpense])
}

func TestCategory_DebitNormal(t *testing.T) {
	assert.True(t, CategoryAsset.DebitNormal())
	assert.True(t, CategoryExpense.DebitNormal())
	assert.False(t, CategoryLiability.DebitNormal())
	assert.False(t, CategoryEquity.DebitNormal())
	assert.False(t, CategoryRevenue.DebitNormal())
	assert.False(t, Category("OTHER").Valid())
}

func TestAccount_Apply(t *testing.T) {
	acc := &Account{Balance: 5000, Version: 3}
	acc.Apply(-3500)
	assert.Equal(t, int64(1500), acc.Balance)
	assert.Equal(t, 4, acc.Version)
}

func TestErrors_Classification(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("lookup: %w", ErrAccountNotFound{AccountID: id})

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(err, ErrAccountNotFound{}))
	assert.True(t, errors.Is(err, ErrAccountNotFound{AccountID: id}))
	assert.False(t, errors.Is(err, ErrAccountNotFound{AccountID: uuid.New()}))

	assert.True(t, errors.Is(ErrWalletNotFound{UserID: id}, shared.ErrNotFound))
	assert.True(t, errors.Is(ErrSystemAccountMissing{Name: SystemRevenue}, shared.ErrConfiguration))
	assert.False(t, errors.Is(ErrSystemAccountMissing{Name: SystemRevenue}, shared.ErrNotFound))
	assert.True(t, errors.Is(ErrDuplicateWallet{UserID: id}, shared.ErrConflict))
}

func TestSortedIDs(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	c := uuid.MustParse("f0000000-0000-0000-0000-000000000000")

	assert.Equal(t, []uuid.UUID{a, b, c}, SortedIDs([]uuid.UUID{c, a, b, a}))
	assert.Empty(t, SortedIDs(nil))
}
