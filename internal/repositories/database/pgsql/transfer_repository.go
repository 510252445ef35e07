package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/bt-suite/budget_transfer_app/internal/middleware"
	"github.com/bt-suite/budget_transfer_app/internal/models"
	"github.com/bt-suite/budget_transfer_app/internal/utils/funding"
	"github.com/bt-suite/budget_transfer_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// codeAllocationRetries bounds retries of the whole create transaction when
// the allocated code collides with a row inserted out-of-band (seed data,
// manual inserts). The sequence upsert makes this effectively unreachable
// under normal operation.
const codeAllocationRetries = 3

type PgxTransferRepository struct {
	BaseRepository
	sequenceRepo portsrepo.SequenceRepository
	fundRepo     portsrepo.FundRepositoryFacade
}

// newPgxTransferRepository creates a new repository for transfer data. It
// depends on the sequence repository for code allocation and on the fund
// repository for the ledger leg of terminal decisions.
func newPgxTransferRepository(pool DBPool, sequenceRepo portsrepo.SequenceRepository, fundRepo portsrepo.FundRepositoryFacade) portsrepo.TransferRepositoryFacade {
	return &PgxTransferRepository{
		BaseRepository: BaseRepository{Pool: pool},
		sequenceRepo:   sequenceRepo,
		fundRepo:       fundRepo,
	}
}

var _ portsrepo.TransferRepositoryFacade = (*PgxTransferRepository)(nil)

func toDomainTransfer(m models.Transfer) domain.TransferRequest {
	return domain.TransferRequest{
		TransferID:      m.TransferID,
		Code:            m.Code,
		Type:            domain.ParseTransferType(m.Type),
		Amount:          m.Amount,
		TransactionDate: m.TransactionDate,
		Notes:           m.Notes,
		RequestedBy:     m.RequestedBy,
		RequesterID:     m.RequesterID,
		Status:          domain.TransferStatus(m.Status),
		StatusLevel:     m.StatusLevel,
		RequestDate:     m.RequestDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

func toDomainLineItem(m models.TransferLineItem) domain.TransferLineItem {
	return domain.TransferLineItem{
		LineItemID:     m.LineItemID,
		TransferID:     m.TransferID,
		CostCenterCode: m.CostCenterCode,
		AccountCode:    m.AccountCode,
		FromAmount:     m.FromAmount,
		ToAmount:       m.ToAmount,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const transferColumns = `transfer_id, code, type, amount, transaction_date, notes, requested_by, requester_id, status, status_level, request_date, created_at, created_by, last_updated_at, last_updated_by`

func scanTransferRow(row pgx.Row) (models.Transfer, error) {
	var m models.Transfer
	err := row.Scan(
		&m.TransferID,
		&m.Code,
		&m.Type,
		&m.Amount,
		&m.TransactionDate,
		&m.Notes,
		&m.RequestedBy,
		&m.RequesterID,
		&m.Status,
		&m.StatusLevel,
		&m.RequestDate,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// CreateTransfer allocates a code for the transfer's type prefix and persists
// the transfer with its line items as one atomic unit. The allocated code is
// written back into the passed transfer.
func (r *PgxTransferRepository) CreateTransfer(ctx context.Context, transfer *domain.TransferRequest, lineItems []domain.TransferLineItem) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	var lastErr error
	for attempt := 0; attempt < codeAllocationRetries; attempt++ {
		err := r.createTransferTx(ctx, transfer, lineItems)
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			logger.Warn("transfer code collision, retrying allocation",
				"code", transfer.Code, "attempt", attempt+1)
			lastErr = err
			continue
		}
		return err
	}

	return apperrors.NewAppError(500, "failed to allocate a unique transfer code", fmt.Errorf("%w: %v", apperrors.ErrDuplicate, lastErr))
}

func (r *PgxTransferRepository) createTransferTx(ctx context.Context, transfer *domain.TransferRequest, lineItems []domain.TransferLineItem) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction for transfer creation", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	seq, err := r.sequenceRepo.NextSequence(ctx, tx, transfer.Type.Prefix())
	if err != nil {
		return err
	}
	transfer.Code = fmt.Sprintf("%s-%04d", transfer.Type.Prefix(), seq)

	insertTransfer := `
		INSERT INTO transfers (transfer_id, code, type, amount, transaction_date, notes, requested_by, requester_id, status, status_level, request_date, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err = tx.Exec(ctx, insertTransfer,
		transfer.TransferID,
		transfer.Code,
		string(transfer.Type),
		transfer.Amount,
		transfer.TransactionDate,
		transfer.Notes,
		transfer.RequestedBy,
		transfer.RequesterID,
		string(transfer.Status),
		transfer.StatusLevel,
		transfer.RequestDate,
		transfer.CreatedAt,
		transfer.CreatedBy,
		transfer.LastUpdatedAt,
		transfer.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return err // surfaced raw so the caller can retry code allocation
		}
		return apperrors.NewAppError(500, "failed to insert transfer "+transfer.TransferID, err)
	}

	insertLineItem := `
		INSERT INTO transfer_line_items (line_item_id, transfer_id, cost_center_code, account_code, from_amount, to_amount, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	batch := &pgx.Batch{}
	for _, li := range lineItems {
		batch.Queue(insertLineItem,
			li.LineItemID,
			transfer.TransferID,
			li.CostCenterCode,
			li.AccountCode,
			li.FromAmount,
			li.ToAmount,
			li.CreatedAt,
			li.CreatedBy,
			li.LastUpdatedAt,
			li.LastUpdatedBy,
		)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert line items for transfer "+transfer.TransferID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transfer creation "+transfer.TransferID, err)
	}
	return nil
}

// ApplyDecision commits a decision as one database transaction: the CAS
// transition of the transfer row, the approval slot insert, and (for terminal
// decisions) the fund balance updates. If any leg fails, everything rolls
// back and the transfer remains exactly as it was.
func (r *PgxTransferRepository) ApplyDecision(ctx context.Context, update portsrepo.DecisionUpdate) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction for decision on "+update.TransferID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	casUpdate := `
		UPDATE transfers
		SET status = $3, status_level = $4, last_updated_at = $5, last_updated_by = $6
		WHERE transfer_id = $1 AND status = 'pending' AND status_level = $2;
	`
	ct, err := tx.Exec(ctx, casUpdate,
		update.TransferID,
		update.ExpectedLevel,
		string(update.NewStatus),
		update.NewLevel,
		update.DecidedAt,
		update.DecidedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transfer "+update.TransferID, err)
	}

	if ct.RowsAffected() == 0 {
		// Lost the race or the transfer is already terminal: re-read inside
		// the transaction to tell the two apart.
		return r.classifyCASFailure(ctx, tx, update)
	}

	insertSlot := `
		INSERT INTO transfer_approvals (transfer_id, level, approver_id, approver_name, decided_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err = tx.Exec(ctx, insertSlot,
		update.TransferID,
		update.Slot.Level,
		update.Slot.ApproverID,
		update.Slot.ApproverName,
		update.Slot.DecidedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("%w: approval slot %d already recorded for transfer %s", apperrors.ErrConflict, update.Slot.Level, update.TransferID)
		}
		return apperrors.NewAppError(500, "failed to record approval slot for transfer "+update.TransferID, err)
	}

	if len(update.BalanceChanges) > 0 {
		if err := r.applyLedgerLeg(ctx, tx, update); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit decision on transfer "+update.TransferID, err)
	}
	return nil
}

// classifyCASFailure maps a zero-row CAS update to the right sentinel:
// missing row, a concurrent decision that already made the transfer terminal,
// or a concurrent approval that moved it to another level while still pending.
func (r *PgxTransferRepository) classifyCASFailure(ctx context.Context, tx pgx.Tx, update portsrepo.DecisionUpdate) error {
	var status string
	var statusLevel int
	err := tx.QueryRow(ctx,
		`SELECT status, status_level FROM transfers WHERE transfer_id = $1;`,
		update.TransferID,
	).Scan(&status, &statusLevel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("transfer " + update.TransferID + " not found")
		}
		return apperrors.NewAppError(500, "failed to re-read transfer "+update.TransferID, err)
	}

	if domain.TransferStatus(status) != domain.StatusPending {
		return fmt.Errorf("%w: transfer %s is already %s", apperrors.ErrInvalidTransition, update.TransferID, status)
	}
	return fmt.Errorf("%w: transfer %s moved from level %d to %d", apperrors.ErrConflict, update.TransferID, update.ExpectedLevel, statusLevel)
}

// applyLedgerLeg performs the fund-balance side of a terminal decision inside
// the decision transaction. Fund rows are created if missing, locked in
// canonical key order, then updated in one batch. Any failure here surfaces
// as ErrReconciliation so callers can distinguish a ledger failure from an
// approval-chain failure.
func (r *PgxTransferRepository) applyLedgerLeg(ctx context.Context, tx pgx.Tx, update portsrepo.DecisionUpdate) error {
	keys := funding.SortedKeys(update.BalanceChanges)

	if err := r.fundRepo.EnsureFunds(ctx, tx, keys, update.DecidedBy, update.DecidedAt); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrReconciliation, err)
	}
	if _, err := r.fundRepo.FindFundsByKeysForUpdate(ctx, tx, keys); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrReconciliation, err)
	}
	if err := r.fundRepo.ApplyFundDeltas(ctx, tx, update.BalanceChanges, update.DecidedBy, update.DecidedAt); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrReconciliation, err)
	}
	return nil
}

// FindTransferByID retrieves a transfer with its approval slots.
func (r *PgxTransferRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.TransferRequest, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE transfer_id = $1;
	`
	m, err := scanTransferRow(r.Pool.QueryRow(ctx, query, transferID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transfer " + transferID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transfer "+transferID, err)
	}

	transfer := toDomainTransfer(m)
	approvals, err := r.findApprovalsByTransferIDs(ctx, []string{transferID})
	if err != nil {
		return nil, err
	}
	transfer.Approvals = approvals[transferID]
	return &transfer, nil
}

// findApprovalsByTransferIDs loads the approval slots of a set of transfers,
// ordered by level within each transfer.
func (r *PgxTransferRepository) findApprovalsByTransferIDs(ctx context.Context, transferIDs []string) (map[string][]domain.ApprovalSlot, error) {
	if len(transferIDs) == 0 {
		return map[string][]domain.ApprovalSlot{}, nil
	}

	query := `
		SELECT transfer_id, level, approver_id, approver_name, decided_at
		FROM transfer_approvals
		WHERE transfer_id = ANY($1)
		ORDER BY transfer_id, level;
	`
	rows, err := r.Pool.Query(ctx, query, transferIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query approval slots", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.ApprovalSlot)
	for rows.Next() {
		var m models.TransferApproval
		if err := rows.Scan(&m.TransferID, &m.Level, &m.ApproverID, &m.ApproverName, &m.DecidedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan approval slot row", err)
		}
		result[m.TransferID] = append(result[m.TransferID], domain.ApprovalSlot{
			Level:        m.Level,
			ApproverID:   m.ApproverID,
			ApproverName: m.ApproverName,
			DecidedAt:    m.DecidedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating approval slot rows", err)
	}
	return result, nil
}

// FindLineItemsByTransferID retrieves all line items of a transfer.
func (r *PgxTransferRepository) FindLineItemsByTransferID(ctx context.Context, transferID string) ([]domain.TransferLineItem, error) {
	query := `
		SELECT line_item_id, transfer_id, cost_center_code, account_code, from_amount, to_amount, created_at, created_by, last_updated_at, last_updated_by
		FROM transfer_line_items
		WHERE transfer_id = $1
		ORDER BY created_at, line_item_id;
	`
	rows, err := r.Pool.Query(ctx, query, transferID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query line items for transfer "+transferID, err)
	}
	defer rows.Close()

	items := []domain.TransferLineItem{}
	for rows.Next() {
		var m models.TransferLineItem
		err := rows.Scan(
			&m.LineItemID,
			&m.TransferID,
			&m.CostCenterCode,
			&m.AccountCode,
			&m.FromAmount,
			&m.ToAmount,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line item row for transfer "+transferID, err)
		}
		items = append(items, toDomainLineItem(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line item rows for transfer "+transferID, err)
	}
	return items, nil
}

// ListPendingByLevel retrieves pending transfers sitting at the given
// approval level, newest first, with token-based pagination. A nil
// transferType lists across all types.
func (r *PgxTransferRepository) ListPendingByLevel(ctx context.Context, level int, transferType *domain.TransferType, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE status = 'pending' AND status_level = $1
	`
	args := []interface{}{level}

	if transferType != nil {
		args = append(args, string(*transferType))
		query += fmt.Sprintf(` AND type = $%d`, len(args))
	}

	if nextToken != nil && *nextToken != "" {
		requestDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, requestDate, createdAt)
		query += fmt.Sprintf(` AND (request_date, created_at) < ($%d, $%d)`, len(args)-1, len(args))
	}

	query += fmt.Sprintf(` ORDER BY request_date DESC, created_at DESC LIMIT %d;`, limit+1)
	return r.listTransfers(ctx, query, args, limit)
}

// ListByRequester retrieves transfers created by a user, optionally filtered
// by status, newest first, with token-based pagination.
func (r *PgxTransferRepository) ListByRequester(ctx context.Context, requesterID string, status *domain.TransferStatus, limit int, nextToken *string) ([]domain.TransferRequest, *string, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE requester_id = $1
	`
	args := []interface{}{requesterID}

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}

	if nextToken != nil && *nextToken != "" {
		requestDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, requestDate, createdAt)
		query += fmt.Sprintf(` AND (request_date, created_at) < ($%d, $%d)`, len(args)-1, len(args))
	}

	query += fmt.Sprintf(` ORDER BY request_date DESC, created_at DESC LIMIT %d;`, limit+1)
	return r.listTransfers(ctx, query, args, limit)
}

// listTransfers runs a paginated transfer query and computes the next token.
// The query must fetch limit+1 rows so the extra row signals another page.
func (r *PgxTransferRepository) listTransfers(ctx context.Context, query string, args []interface{}, limit int) ([]domain.TransferRequest, *string, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transfers", err)
	}
	defer rows.Close()

	transfers := []domain.TransferRequest{}
	for rows.Next() {
		m, err := scanTransferRow(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transfer row", err)
		}
		transfers = append(transfers, toDomainTransfer(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transfer rows", err)
	}

	var newNextToken *string
	if len(transfers) > limit {
		transfers = transfers[:limit]
		last := transfers[len(transfers)-1]
		token := pagination.EncodeToken(last.RequestDate, last.CreatedAt)
		newNextToken = &token
	}

	if len(transfers) > 0 {
		ids := make([]string, len(transfers))
		for i := range transfers {
			ids[i] = transfers[i].TransferID
		}
		approvals, err := r.findApprovalsByTransferIDs(ctx, ids)
		if err != nil {
			return nil, nil, err
		}
		for i := range transfers {
			transfers[i].Approvals = approvals[transfers[i].TransferID]
		}
	}

	return transfers, newNextToken, nil
}

// DeleteTransfer removes a transfer that is still pending at level 0 with no
// recorded decision, together with its line items. The guard is enforced in
// SQL so a concurrent decision cannot slip through between check and delete.
func (r *PgxTransferRepository) DeleteTransfer(ctx context.Context, transferID string) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction for deleting transfer "+transferID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	deleteTransfer := `
		DELETE FROM transfers
		WHERE transfer_id = $1
		  AND status = 'pending'
		  AND status_level = 0
		  AND NOT EXISTS (SELECT 1 FROM transfer_approvals WHERE transfer_id = $1);
	`
	ct, err := tx.Exec(ctx, deleteTransfer, transferID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete transfer "+transferID, err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM transfers WHERE transfer_id = $1);`, transferID).Scan(&exists); err != nil {
			return apperrors.NewAppError(500, "failed to re-check transfer "+transferID, err)
		}
		if !exists {
			return apperrors.NewNotFoundError("transfer " + transferID + " not found")
		}
		return fmt.Errorf("%w: transfer %s has entered its approval chain", apperrors.ErrInvalidTransition, transferID)
	}

	// Line items cascade via FK, but the delete is explicit to keep the row
	// lifecycle visible in one place.
	if _, err := tx.Exec(ctx, `DELETE FROM transfer_line_items WHERE transfer_id = $1;`, transferID); err != nil {
		return apperrors.NewAppError(500, "failed to delete line items for transfer "+transferID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit deletion of transfer "+transferID, err)
	}
	return nil
}
