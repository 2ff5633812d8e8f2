package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ConfigStoreImpl implements ConfigStore over a settings repository
type ConfigStoreImpl struct {
	repo   settings.Repository
	logger *slog.Logger
}

// NewConfigStore creates a config store
func NewConfigStore(logger *slog.Logger, repo settings.Repository) ConfigStore {
	return &ConfigStoreImpl{
		repo:   repo,
		logger: logger.With("component", "config_store"),
	}
}

func (s *ConfigStoreImpl) GetString(ctx context.Context, key settings.Key) (string, error) {
	return s.repo.Get(ctx, key)
}

func (s *ConfigStoreImpl) GetNumber(ctx context.Context, key settings.Key) (decimal.Decimal, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Error("Config value is not numeric", "key", string(key), "value", raw)
		return decimal.Zero, settings.ErrSettingNotNumeric{Key: key, Value: raw}
	}
	return value, nil
}

func (s *ConfigStoreImpl) GetMinorUnits(ctx context.Context, key settings.Key) (int64, error) {
	value, err := s.GetNumber(ctx, key)
	if err != nil {
		return 0, err
	}
	cents, ok := shared.MinorUnits(value)
	if !ok {
		s.logger.Error("Config value does not fit in minor units", "key", string(key), "value", value.String())
		return 0, settings.ErrSettingInvalid{Key: key, Value: value.String()}
	}
	return cents, nil
}

var hundred = decimal.NewFromInt(100)

// Set stores value for one of the known keys. Every known key is numeric
// and must not be negative. Amounts must fit in minor units and rates
// cannot exceed 100 percent.
func (s *ConfigStoreImpl) Set(ctx context.Context, key settings.Key, value string) error {
	if !knownKey(key) {
		return fmt.Errorf("%w: unknown config key %q", shared.ErrInvalidRequest, key)
	}
	value = strings.TrimSpace(value)
	number, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("%w: config key %s needs a number, got %q", shared.ErrInvalidRequest, key, value)
	}
	if number.IsNegative() {
		return fmt.Errorf("%w: config key %s cannot be negative", shared.ErrInvalidRequest, key)
	}
	if _, ok := shared.MinorUnits(number); key.Monetary() && !ok {
		return fmt.Errorf("%w: config key %s is too large", shared.ErrInvalidRequest, key)
	}
	if key.Percent() && number.GreaterThan(hundred) {
		return fmt.Errorf("%w: config key %s cannot exceed 100 percent", shared.ErrInvalidRequest, key)
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}
	s.logger.Info("Config updated", "key", string(key), "value", value)
	return nil
}

func (s *ConfigStoreImpl) List(ctx context.Context) ([]settings.Setting, error) {
	return s.repo.List(ctx)
}

// Seed inserts every default that is not already set
func (s *ConfigStoreImpl) Seed(ctx context.Context) error {
	for _, def := range settings.Defaults() {
		if err := s.repo.InsertIfAbsent(ctx, def); err != nil {
			return fmt.Errorf("failed to seed config key %s: %w", def.Key, err)
		}
	}
	s.logger.Info("Config defaults seeded")
	return nil
}

func knownKey(key settings.Key) bool {
	return slices.ContainsFunc(settings.Defaults(), func(s settings.Setting) bool { return s.Key == key })
}
