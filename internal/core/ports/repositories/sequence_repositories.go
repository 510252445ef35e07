package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// SequenceRepository allocates monotonically increasing per-prefix sequence
// numbers for transfer codes. Allocation is a single transactional upsert on
// a per-prefix counter row, so concurrent creators can never observe the
// same value.
type SequenceRepository interface {
	// NextSequence reserves and returns the next sequence number for the
	// prefix within the given transaction.
	NextSequence(ctx context.Context, tx pgx.Tx, prefix string) (int64, error)
}
