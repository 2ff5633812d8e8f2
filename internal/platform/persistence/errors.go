package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/doctor-smile-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the ledger reacts to
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeUniqueViolation      = "23505"
)

// ClassifyError tags contention failures with shared.ErrBusy so callers can
// tell a retryable refusal from a real failure. Other errors pass through.
func ClassifyError(err error) error {
	if err == nil || errors.Is(err, shared.ErrBusy) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", shared.ErrBusy, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
			return fmt.Errorf("%w: %w", shared.ErrBusy, err)
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally on the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
