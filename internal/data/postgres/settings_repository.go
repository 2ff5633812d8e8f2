package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/doctor-smile-ledger/internal/domain/settings"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository implements settings.Repository over the system_config table
type SettingsRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewSettingsRepository creates a new PostgreSQL settings repository
func NewSettingsRepository(logger *slog.Logger, db *persistence.PostgresDB) settings.Repository {
	return &SettingsRepository{querier: db.Pool(), logger: logger}
}

// Get returns the raw value of key
func (r *SettingsRepository) Get(ctx context.Context, key settings.Key) (string, error) {
	query := `SELECT value FROM system_config WHERE key = $1`

	var value string
	if err := r.querier.QueryRow(ctx, query, string(key)).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", settings.ErrSettingMissing{Key: key}
		}
		r.logger.Error("Failed to read config", "key", string(key), "error", err)
		return "", fmt.Errorf("failed to read config: %w", err)
	}
	return value, nil
}

// Set upserts key
func (r *SettingsRepository) Set(ctx context.Context, key settings.Key, value string) error {
	query := `
		INSERT INTO system_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`

	if _, err := r.querier.Exec(ctx, query, string(key), value); err != nil {
		r.logger.Error("Failed to write config", "key", string(key), "error", err)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// InsertIfAbsent seeds a default without overwriting an operator's value
func (r *SettingsRepository) InsertIfAbsent(ctx context.Context, s settings.Setting) error {
	query := `
		INSERT INTO system_config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := r.querier.Exec(ctx, query, string(s.Key), s.Value); err != nil {
		r.logger.Error("Failed to seed config", "key", string(s.Key), "error", err)
		return fmt.Errorf("failed to seed config: %w", err)
	}
	return nil
}

// List returns every setting ordered by key
func (r *SettingsRepository) List(ctx context.Context) ([]settings.Setting, error) {
	rows, err := r.querier.Query(ctx, `SELECT key, value FROM system_config ORDER BY key`)
	if err != nil {
		r.logger.Error("Failed to list config", "error", err)
		return nil, fmt.Errorf("failed to list config: %w", err)
	}
	defer rows.Close()

	var out []settings.Setting
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan config: %w", err)
		}
		out = append(out, settings.Setting{Key: settings.Key(key), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over config: %w", err)
	}
	return out, nil
}
