package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doctor-smile-ledger/internal/config"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier supports database operations for both pool and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Ensure interfaces are satisfied (compile-time check)
var _ Querier = (*pgxpool.Pool)(nil)
var _ Querier = (pgx.Tx)(nil)

// Transactor runs fn as one atomic unit of work. Every ledger write goes through it.
type Transactor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TxLimits bounds a unit of work. Zero values disable the bound.
type TxLimits struct {
	StoreTimeout time.Duration
	LockTimeout  time.Duration
}

// LimitsFromConfig reads the unit-of-work bounds from the ledger section.
func LimitsFromConfig(cfg config.LedgerConfig) TxLimits {
	return TxLimits{StoreTimeout: cfg.StoreTimeout, LockTimeout: cfg.LockTimeout}
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PostgresDB struct {
	pool   *pgxpool.Pool
	limits TxLimits
	logger *slog.Logger
}

var _ Transactor = (*PostgresDB)(nil)

func NewPostgresDB(ctx context.Context, logger *slog.Logger, cfg *config.PostgresConfig, limits TxLimits) (*PostgresDB, error) {
	if _, err := RunMigrations(logger, cfg.URL, cfg.MigrationsPath); err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	logger.Info("Connected to PostgreSQL", "store_timeout", limits.StoreTimeout, "lock_timeout", limits.LockTimeout)

	return &PostgresDB{
		pool:   pool,
		limits: limits,
		logger: logger,
	}, nil
}

func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *PostgresDB) Close() {
	db.pool.Close()
	db.logger.Info("Closed PostgreSQL connection")
}

// ExecuteTx runs fn in a transaction bounded by the configured limits, rolling
// back on error or panic. Lock waits that run out surface as shared.ErrBusy.
func (db *PostgresDB) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return executeTx(ctx, db.pool, db.limits, fn)
}

func executeTx(ctx context.Context, b txBeginner, limits TxLimits, fn func(tx pgx.Tx) error) error {
	if limits.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limits.StoreTimeout)
		defer cancel()
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return ClassifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx)) // Attempt rollback on panic
			panic(r)
		}
	}()

	if limits.LockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", limits.LockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			return ClassifyError(fmt.Errorf("failed to set lock timeout: %w", err))
		}
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return ClassifyError(fmt.Errorf("tx err: %w, rb err: %v", err, rbErr))
		}
		return ClassifyError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ClassifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}
