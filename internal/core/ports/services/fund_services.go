package services

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
)

// FundSvcFacade defines read access to the fund ledger. Balances are never
// mutated through this surface; only the reconciler writes them.
type FundSvcFacade interface {
	// GetFundByKey retrieves one fund balance row.
	GetFundByKey(ctx context.Context, key domain.FundKey) (*domain.FundBalance, error)

	// ListFundsByEntity retrieves all fund rows of one entity for a period.
	ListFundsByEntity(ctx context.Context, entityKey string, period string) ([]domain.FundBalance, error)
}

// NotificationSvcFacade exposes a user's notification feed.
type NotificationSvcFacade interface {
	ListNotificationsForUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error)
}
