package account

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidCategory = errors.New("invalid account category")
	ErrEmptyName       = errors.New("account name cannot be empty")
)

// Category is the accounting class of an account. It decides the sign a debit
// or credit has on the stored balance.
type Category string

const (
	CategoryAsset     Category = "ASSET"
	CategoryLiability Category = "LIABILITY"
	CategoryEquity    Category = "EQUITY"
	CategoryRevenue   Category = "REVENUE"
	CategoryExpense   Category = "EXPENSE"
)

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryExpense:
		return true
	}
	return false
}

// DebitNormal reports whether a debit increases the balance of this category.
func (c Category) DebitNormal() bool {
	return c == CategoryAsset || c == CategoryExpense
}

// SystemName identifies one of the clinic-owned singleton accounts.
type SystemName string

const (
	SystemCashBank         SystemName = "cash_bank"
	SystemRevenue          SystemName = "revenue"
	SystemMarketingExpense SystemName = "marketing_expense"
	SystemAffiliateExpense SystemName = "affiliate_expense"
)

// SystemAccountSpec describes how a system account is seeded.
type SystemAccountSpec struct {
	Name        SystemName
	DisplayName string
	Category    Category
}

// SystemAccounts lists every account that must exist before the ledger accepts postings.
func SystemAccounts() []SystemAccountSpec {
	return []SystemAccountSpec{
		{Name: SystemCashBank, DisplayName: "Cash/Bank", Category: CategoryAsset},
		{Name: SystemRevenue, DisplayName: "Revenue - Dental Services", Category: CategoryRevenue},
		{Name: SystemMarketingExpense, DisplayName: "Marketing Expense - Loyalty", Category: CategoryExpense},
		{Name: SystemAffiliateExpense, DisplayName: "Affiliate Expense - Partners", Category: CategoryExpense},
	}
}

// Account is a ledger account. Balance is in minor units and is only ever
// changed by the ledger engine while it holds the row lock.
type Account struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	SystemName SystemName `json:"system_name,omitempty"`
	Balance    int64      `json:"balance"`
	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewWallet builds the LIABILITY account that holds a user's clinic credit.
func NewWallet(userID uuid.UUID, ownerName string) (*Account, error) {
	if ownerName == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	owner := userID
	return &Account{
		ID:        uuid.New(),
		Name:      fmt.Sprintf("%s's Wallet", ownerName),
		Category:  CategoryLiability,
		UserID:    &owner,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewSystemAccount builds an unowned singleton account from its seed spec.
func NewSystemAccount(spec SystemAccountSpec) (*Account, error) {
	if !spec.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if spec.DisplayName == "" {
		return nil, ErrEmptyName
	}
	now := time.Now()
	return &Account{
		ID:         uuid.New(),
		Name:       spec.DisplayName,
		Category:   spec.Category,
		SystemName: spec.Name,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsWallet reports whether the account is a user-owned liability.
func (a *Account) IsWallet() bool {
	return a.UserID != nil && a.Category == CategoryLiability
}

// Apply adds a signed delta produced by the ledger engine.
func (a *Account) Apply(delta int64) {
	a.Balance += delta
	a.Version++
	a.UpdatedAt = time.Now()
}

// SortedIDs returns ids deduplicated and in ascending byte order, the order
// in which account rows are always locked.
func SortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return out
}
