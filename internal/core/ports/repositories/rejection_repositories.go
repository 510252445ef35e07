package repositories

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
)

// RejectionRepository is the append-only store of reject reasons. Records
// are written once at rejection time and never mutated.
type RejectionRepository interface {
	// SaveRejection appends one rejection record.
	SaveRejection(ctx context.Context, record domain.RejectionRecord) error

	// FindRejectionsByTransferID retrieves the rejection record(s) for a transfer.
	FindRejectionsByTransferID(ctx context.Context, transferID string) ([]domain.RejectionRecord, error)
}
