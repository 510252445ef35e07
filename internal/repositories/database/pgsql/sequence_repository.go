package pgsql

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxSequenceRepository struct {
	BaseRepository
}

// newPgxSequenceRepository creates a new repository for transfer code sequences.
func newPgxSequenceRepository(pool DBPool) portsrepo.SequenceRepository {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceRepository = (*PgxSequenceRepository)(nil)

// NextSequence reserves the next sequence number for a prefix. The upsert
// increments the counter row and returns the reserved value in one
// statement, so concurrent allocators serialize on the row and can never
// observe the same number.
func (r *PgxSequenceRepository) NextSequence(ctx context.Context, tx pgx.Tx, prefix string) (int64, error) {
	query := `
		INSERT INTO transfer_sequences (prefix, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_seq = transfer_sequences.last_seq + 1
		RETURNING last_seq;
	`

	var seq int64
	if err := tx.QueryRow(ctx, query, prefix).Scan(&seq); err != nil {
		return 0, apperrors.NewAppError(500, "failed to allocate sequence for prefix "+prefix, err)
	}
	return seq, nil
}
