// Package shared holds the error classes and money helpers every domain package agrees on.
package shared

import "errors"

// Error classes. Domain errors match one of these through errors.Is so callers
// at the edge can classify a failure without knowing every concrete type.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLimitExceeded       = errors.New("limit exceeded")
	ErrBusy                = errors.New("ledger busy, retry later")
	ErrConfiguration       = errors.New("configuration error")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrConflict            = errors.New("conflict")
)
