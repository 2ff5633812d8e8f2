package service

import (
	"context"
	"testing"

	"github.com/doctor-smile-ledger/internal/data/memory"
	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/doctor-smile-ledger/internal/domain/clinic"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRegistry_Seed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	registry := NewAccountRegistry(newTestLogger(), store, repos.Accounts, repos.Users)

	_, err := registry.GetSystemAccount(ctx, account.SystemRevenue)
	assert.ErrorIs(t, err, shared.ErrConfiguration)

	require.NoError(t, registry.Seed(ctx))
	revenue, err := registry.GetSystemAccount(ctx, account.SystemRevenue)
	require.NoError(t, err)
	assert.Equal(t, account.CategoryRevenue, revenue.Category)

	// Seeding again keeps the existing rows.
	require.NoError(t, registry.Seed(ctx))
	again, err := registry.GetSystemAccount(ctx, account.SystemRevenue)
	require.NoError(t, err)
	assert.Equal(t, revenue.ID, again.ID)

	all, err := repos.Accounts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(account.SystemAccounts()))
}

func TestAccountRegistry_GetOrCreateWallet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	registry := NewAccountRegistry(newTestLogger(), store, repos.Accounts, repos.Users)

	user, err := clinic.NewUser("555-0100", clinic.RolePatient, "Ana", nil)
	require.NoError(t, err)
	require.NoError(t, repos.Users.Create(ctx, user))

	wallet, err := registry.GetOrCreateWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, wallet.IsWallet())

	same, err := registry.GetOrCreateWallet(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, same.ID)

	balance, err := registry.GetBalance(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Zero(t, balance)

	_, err = registry.GetOrCreateWallet(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = registry.GetBalance(ctx, uuid.New())
	assert.ErrorIs(t, err, account.ErrAccountNotFound{})
}
