package pgsql

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	"github.com/bt-suite/budget_transfer_app/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxFundRepository struct {
	BaseRepository
}

// newPgxFundRepository creates a new repository for fund balance data.
func newPgxFundRepository(pool DBPool) portsrepo.FundRepositoryFacade {
	return &PgxFundRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FundRepositoryFacade = (*PgxFundRepository)(nil)

// toDomainFund converts a DB row to the domain shape.
func toDomainFund(m models.FundBalance) domain.FundBalance {
	return domain.FundBalance{
		FundKey: domain.FundKey{
			EntityKey:  m.EntityKey,
			AccountKey: m.AccountKey,
			Period:     m.Period,
		},
		Actual:      m.Actual,
		Fund:        m.Fund,
		Budget:      m.Budget,
		Encumbrance: m.Encumbrance,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// scanFundRow scans one fund row. Legacy rows may carry NULL numeric
// columns; they are read as zero here and nowhere else.
func scanFundRow(row pgx.Row) (models.FundBalance, error) {
	var m models.FundBalance
	var actual, fund, budget, encumbrance *decimal.Decimal

	err := row.Scan(
		&m.EntityKey,
		&m.AccountKey,
		&m.Period,
		&actual,
		&fund,
		&budget,
		&encumbrance,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.FundBalance{}, err
	}

	m.Actual = derefOrZero(actual)
	m.Fund = derefOrZero(fund)
	m.Budget = derefOrZero(budget)
	m.Encumbrance = derefOrZero(encumbrance)
	return m, nil
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

const fundColumns = `entity_key, account_key, period, actual, fund, budget, encumbrance, created_at, created_by, last_updated_at, last_updated_by`

// FindFundByKey retrieves a single fund balance row.
func (r *PgxFundRepository) FindFundByKey(ctx context.Context, key domain.FundKey) (*domain.FundBalance, error) {
	query := `
		SELECT ` + fundColumns + `
		FROM fund_balances
		WHERE entity_key = $1 AND account_key = $2 AND period = $3;
	`

	m, err := scanFundRow(r.Pool.QueryRow(ctx, query, key.EntityKey, key.AccountKey, key.Period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find fund balance (%s,%s,%s)", key.EntityKey, key.AccountKey, key.Period), err)
	}

	fund := toDomainFund(m)
	return &fund, nil
}

// ListFundsByEntity retrieves all fund rows of one entity for a period.
func (r *PgxFundRepository) ListFundsByEntity(ctx context.Context, entityKey string, period string) ([]domain.FundBalance, error) {
	query := `
		SELECT ` + fundColumns + `
		FROM fund_balances
		WHERE entity_key = $1 AND period = $2
		ORDER BY account_key;
	`

	rows, err := r.Pool.Query(ctx, query, entityKey, period)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query fund balances for entity "+entityKey, err)
	}
	defer rows.Close()

	funds := []domain.FundBalance{}
	for rows.Next() {
		m, err := scanFundRow(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan fund balance row for entity "+entityKey, err)
		}
		funds = append(funds, toDomainFund(m))
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating fund balance rows for entity "+entityKey, err)
	}

	return funds, nil
}

// EnsureFunds inserts zero-balance rows for any keys that do not exist yet.
// Insertion follows the canonical key order so that two transactions
// ensuring overlapping key sets cannot deadlock on the inserts.
func (r *PgxFundRepository) EnsureFunds(ctx context.Context, tx pgx.Tx, keys []domain.FundKey, userID string, now time.Time) error {
	if len(keys) == 0 {
		return nil
	}

	ordered := make([]domain.FundKey, len(keys))
	copy(ordered, keys)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	query := `
		INSERT INTO fund_balances (entity_key, account_key, period, actual, fund, budget, encumbrance, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, 0, 0, 0, 0, $4, $5, $4, $5)
		ON CONFLICT (entity_key, account_key, period) DO NOTHING;
	`

	batch := &pgx.Batch{}
	for _, key := range ordered {
		batch.Queue(query, key.EntityKey, key.AccountKey, key.Period, now, userID)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to ensure fund balance rows", err)
	}
	return nil
}

// FindFundsByKeysForUpdate selects fund rows and locks them for update.
// Must be called within a transaction; rows are locked in canonical key
// order to prevent deadlock between concurrently reconciling transfers.
func (r *PgxFundRepository) FindFundsByKeysForUpdate(ctx context.Context, tx pgx.Tx, keys []domain.FundKey) (map[domain.FundKey]domain.FundBalance, error) {
	if len(keys) == 0 {
		return map[domain.FundKey]domain.FundBalance{}, nil
	}

	entityKeys := make([]string, len(keys))
	accountKeys := make([]string, len(keys))
	periods := make([]string, len(keys))
	for i, key := range keys {
		entityKeys[i] = key.EntityKey
		accountKeys[i] = key.AccountKey
		periods[i] = key.Period
	}

	query := `
		SELECT ` + fundColumns + `
		FROM fund_balances
		WHERE (entity_key, account_key, period) IN (
			SELECT * FROM unnest($1::text[], $2::text[], $3::text[])
		)
		ORDER BY entity_key, account_key, period
		FOR UPDATE;
	`

	rows, err := tx.Query(ctx, query, entityKeys, accountKeys, periods)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund balances for update: %w", err)
	}
	defer rows.Close()

	fundsMap := make(map[domain.FundKey]domain.FundBalance)
	for rows.Next() {
		m, err := scanFundRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locked fund balance row: %w", err)
		}
		fund := toDomainFund(m)
		fundsMap[fund.FundKey] = fund
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked fund balance rows: %w", err)
	}

	for _, key := range keys {
		if _, ok := fundsMap[key]; !ok {
			return nil, fmt.Errorf("%w: fund balance (%s,%s,%s)", apperrors.ErrNotFound, key.EntityKey, key.AccountKey, key.Period)
		}
	}

	return fundsMap, nil
}

// ApplyFundDeltas adds each delta to the fund column of its row within a
// transaction. The rows must already be locked via FindFundsByKeysForUpdate.
func (r *PgxFundRepository) ApplyFundDeltas(ctx context.Context, tx pgx.Tx, deltas map[domain.FundKey]decimal.Decimal, userID string, now time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	// COALESCE covers legacy rows whose numeric columns were never backfilled.
	query := `
		UPDATE fund_balances
		SET fund = COALESCE(fund, 0) + $4, last_updated_at = $5, last_updated_by = $6
		WHERE entity_key = $1 AND account_key = $2 AND period = $3;
	`

	ordered := make([]domain.FundKey, 0, len(deltas))
	for key := range deltas {
		ordered = append(ordered, key)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	batch := &pgx.Batch{}
	queued := make([]domain.FundKey, 0, len(ordered))
	for _, key := range ordered {
		delta := deltas[key]
		if delta.IsZero() {
			continue
		}
		batch.Queue(query, key.EntityKey, key.AccountKey, key.Period, delta, now, userID)
		queued = append(queued, key)
	}

	if batch.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		ct, err := br.Exec()
		if err != nil {
			if batchErr == nil {
				key := queued[i]
				batchErr = fmt.Errorf("failed to update fund balance (%s,%s,%s): %w", key.EntityKey, key.AccountKey, key.Period, err)
			}
		} else if ct.RowsAffected() == 0 {
			if batchErr == nil {
				key := queued[i]
				batchErr = fmt.Errorf("%w: fund balance (%s,%s,%s) missing during delta application", apperrors.ErrNotFound, key.EntityKey, key.AccountKey, key.Period)
			}
		}
	}

	if closeErr := br.Close(); closeErr != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close fund delta batch: %w", closeErr)
	}

	return batchErr
}
