// Package settings holds the runtime tunables stored in the system_config table.
package settings

import (
	"context"

	"github.com/doctor-smile-ledger/internal/domain/shared"
)

// Key names a tunable
type Key string

const (
	LoyaltyRateDefault      Key = "loyalty_rate_default"
	PartnerCommissionRate   Key = "partner_commission_rate"
	ReferralRate            Key = "referral_rate"
	MinTransferAmount       Key = "min_transfer_amount"
	DailyTransferLimit      Key = "daily_transfer_limit"
	CancellationPolicyHours Key = "cancellation_policy_hours"
)

// Monetary reports whether the key holds an amount in major units
func (k Key) Monetary() bool {
	return k == MinTransferAmount || k == DailyTransferLimit
}

// Percent reports whether the key holds a rate in percent
func (k Key) Percent() bool {
	return k == LoyaltyRateDefault || k == PartnerCommissionRate || k == ReferralRate
}

// Setting is one key/value row. Values are stored as text.
type Setting struct {
	Key   Key    `json:"key"`
	Value string `json:"value"`
}

// Defaults are the rows inserted by seeding when absent. Rates are percents,
// monetary limits are in major units.
func Defaults() []Setting {
	return []Setting{
		{Key: LoyaltyRateDefault, Value: "10"},
		{Key: PartnerCommissionRate, Value: "10"},
		{Key: ReferralRate, Value: "10"},
		{Key: MinTransferAmount, Value: "1"},
		{Key: DailyTransferLimit, Value: "1000"},
		{Key: CancellationPolicyHours, Value: "24"},
	}
}

// Repository reads and writes settings rows
type Repository interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	InsertIfAbsent(ctx context.Context, setting Setting) error
	List(ctx context.Context) ([]Setting, error)
}

// ErrSettingMissing is a configuration error: the store was never seeded
type ErrSettingMissing struct {
	Key Key
}

func (e ErrSettingMissing) Error() string {
	return "config key missing: " + string(e.Key)
}

func (e ErrSettingMissing) Is(target error) bool {
	if target == shared.ErrConfiguration {
		return true
	}
	t, ok := target.(ErrSettingMissing)
	return ok && (t.Key == "" || t.Key == e.Key)
}

// ErrSettingNotNumeric is a configuration error: a numeric key holds text
type ErrSettingNotNumeric struct {
	Key   Key
	Value string
}

func (e ErrSettingNotNumeric) Error() string {
	return "config key " + string(e.Key) + " is not numeric: " + e.Value
}

func (e ErrSettingNotNumeric) Is(target error) bool {
	if target == shared.ErrConfiguration {
		return true
	}
	_, ok := target.(ErrSettingNotNumeric)
	return ok
}

// ErrSettingInvalid is a configuration error: a numeric key holds a number
// the ledger cannot use, such as an amount too large for minor units
type ErrSettingInvalid struct {
	Key   Key
	Value string
}

func (e ErrSettingInvalid) Error() string {
	return "config key " + string(e.Key) + " is out of range: " + e.Value
}

func (e ErrSettingInvalid) Is(target error) bool {
	if target == shared.ErrConfiguration {
		return true
	}
	_, ok := target.(ErrSettingInvalid)
	return ok
}
