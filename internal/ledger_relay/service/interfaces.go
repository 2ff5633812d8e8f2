package service

import (
	"context"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
)

// ProjectionService applies one ledger event to the read-side journal
type ProjectionService interface {
	Project(ctx context.Context, event *ledger.Event) error
}
