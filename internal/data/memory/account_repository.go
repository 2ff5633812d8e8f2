package memory

import (
	"context"
	"slices"
	"time"

	"github.com/doctor-smile-ledger/internal/domain/account"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements account.Repository in memory
type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) WithTx(pgx.Tx) account.Repository { return r }

func (r *AccountRepository) Create(_ context.Context, acc *account.Account) error {
	var err error
	r.store.write(func(d *state) {
		if acc.UserID != nil {
			for _, existing := range d.accounts {
				if existing.UserID != nil && *existing.UserID == *acc.UserID {
					err = account.ErrDuplicateWallet{UserID: *acc.UserID}
					return
				}
			}
		}
		d.accounts[acc.ID] = *acc
	})
	return err
}

func (r *AccountRepository) CreateSystemIfAbsent(_ context.Context, acc *account.Account) error {
	r.store.write(func(d *state) {
		for _, existing := range d.accounts {
			if existing.SystemName == acc.SystemName {
				return
			}
		}
		d.accounts[acc.ID] = *acc
	})
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	var out *account.Account
	r.store.read(func(d *state) {
		if acc, ok := d.accounts[id]; ok {
			out = &acc
		}
	})
	if out == nil {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return out, nil
}

func (r *AccountRepository) GetWalletByUserID(_ context.Context, userID uuid.UUID) (*account.Account, error) {
	var out *account.Account
	r.store.read(func(d *state) {
		for _, acc := range d.accounts {
			if acc.UserID != nil && *acc.UserID == userID && acc.Category == account.CategoryLiability {
				out = &acc
				return
			}
		}
	})
	if out == nil {
		return nil, account.ErrWalletNotFound{UserID: userID}
	}
	return out, nil
}

func (r *AccountRepository) GetBySystemName(_ context.Context, name account.SystemName) (*account.Account, error) {
	var out *account.Account
	r.store.read(func(d *state) {
		for _, acc := range d.accounts {
			if acc.SystemName == name {
				out = &acc
				return
			}
		}
	})
	if out == nil {
		return nil, account.ErrSystemAccountMissing{Name: name}
	}
	return out, nil
}

func (r *AccountRepository) List(_ context.Context) ([]*account.Account, error) {
	var out []*account.Account
	r.store.read(func(d *state) {
		for _, acc := range d.accounts {
			out = append(out, &acc)
		}
	})
	slices.SortFunc(out, func(a, b *account.Account) int {
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (r *AccountRepository) SumBalanceByCategory(_ context.Context, category account.Category) (int64, error) {
	var total int64
	r.store.read(func(d *state) {
		for _, acc := range d.accounts {
			if acc.Category == category {
				total += acc.Balance
			}
		}
	})
	return total, nil
}

// LockForUpdate returns copies of the rows. The unit of work already holds
// the whole store.
func (r *AccountRepository) LockForUpdate(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*account.Account, error) {
	locked := make(map[uuid.UUID]*account.Account, len(ids))
	var missing uuid.UUID
	r.store.read(func(d *state) {
		for _, id := range account.SortedIDs(ids) {
			acc, ok := d.accounts[id]
			if !ok {
				missing = id
				return
			}
			locked[id] = &acc
		}
	})
	if missing != uuid.Nil {
		return nil, account.ErrAccountNotFound{AccountID: missing}
	}
	return locked, nil
}

func (r *AccountRepository) ApplyDelta(_ context.Context, id uuid.UUID, delta int64) error {
	found := false
	r.store.write(func(d *state) {
		acc, ok := d.accounts[id]
		if !ok {
			return
		}
		acc.Balance += delta
		acc.Version++
		acc.UpdatedAt = time.Now()
		d.accounts[id] = acc
		found = true
	})
	if !found {
		return account.ErrAccountNotFound{AccountID: id}
	}
	return nil
}
