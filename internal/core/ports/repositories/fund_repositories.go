package repositories

import (
	"context"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FundReader defines read operations for fund balance data
type FundReader interface {
	// FindFundByKey retrieves a single fund balance row.
	FindFundByKey(ctx context.Context, key domain.FundKey) (*domain.FundBalance, error)

	// ListFundsByEntity retrieves all fund rows of one entity for a period.
	ListFundsByEntity(ctx context.Context, entityKey string, period string) ([]domain.FundBalance, error)
}

// FundTransactionSupport defines operations used inside a reconciliation
// transaction. Callers must pass the keys pre-sorted (domain.FundKey.Less);
// lock acquisition follows that order to prevent deadlocks between
// concurrently reconciling transfers.
type FundTransactionSupport interface {
	// EnsureFunds inserts zero-balance rows for any keys that do not exist yet.
	EnsureFunds(ctx context.Context, tx pgx.Tx, keys []domain.FundKey, userID string, now time.Time) error

	// FindFundsByKeysForUpdate selects fund rows and locks them for update.
	FindFundsByKeysForUpdate(ctx context.Context, tx pgx.Tx, keys []domain.FundKey) (map[domain.FundKey]domain.FundBalance, error)

	// ApplyFundDeltas adds each delta to the fund column of its row.
	ApplyFundDeltas(ctx context.Context, tx pgx.Tx, deltas map[domain.FundKey]decimal.Decimal, userID string, now time.Time) error
}

// FundRepositoryFacade combines all fund-related repository interfaces
type FundRepositoryFacade interface {
	FundReader
	FundTransactionSupport
}
