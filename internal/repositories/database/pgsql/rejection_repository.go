package pgsql

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
)

type PgxRejectionRepository struct {
	BaseRepository
}

func newPgxRejectionRepository(pool DBPool) portsrepo.RejectionRepository {
	return &PgxRejectionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RejectionRepository = (*PgxRejectionRepository)(nil)

// SaveRejection appends one rejection record. The table is append-only.
func (r *PgxRejectionRepository) SaveRejection(ctx context.Context, record domain.RejectionRecord) error {
	query := `
		INSERT INTO rejection_records (rejection_id, transfer_id, reason_text, rejected_by, rejected_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query,
		record.RejectionID,
		record.TransferID,
		record.ReasonText,
		record.RejectedBy,
		record.RejectedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save rejection record for transfer "+record.TransferID, err)
	}
	return nil
}

// FindRejectionsByTransferID retrieves the rejection record(s) for a transfer,
// oldest first.
func (r *PgxRejectionRepository) FindRejectionsByTransferID(ctx context.Context, transferID string) ([]domain.RejectionRecord, error) {
	query := `
		SELECT rejection_id, transfer_id, reason_text, rejected_by, rejected_at
		FROM rejection_records
		WHERE transfer_id = $1
		ORDER BY rejected_at;
	`
	rows, err := r.Pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query rejection records for transfer "+transferID, err)
	}
	defer rows.Close()

	records := []domain.RejectionRecord{}
	for rows.Next() {
		var rec domain.RejectionRecord
		if err := rows.Scan(&rec.RejectionID, &rec.TransferID, &rec.ReasonText, &rec.RejectedBy, &rec.RejectedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan rejection record row for transfer "+transferID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating rejection record rows for transfer "+transferID, err)
	}
	return records, nil
}
