package services

import (
	"context"
	"fmt"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
)

// FundService provides read access to the fund ledger.
type FundService struct {
	fundRepo portsrepo.FundRepositoryFacade
}

// NewFundService creates a new FundService.
func NewFundService(fundRepo portsrepo.FundRepositoryFacade) *FundService {
	return &FundService{fundRepo: fundRepo}
}

var _ portssvc.FundSvcFacade = (*FundService)(nil)

// GetFundByKey retrieves one fund balance row.
func (s *FundService) GetFundByKey(ctx context.Context, key domain.FundKey) (*domain.FundBalance, error) {
	if key.EntityKey == "" || key.AccountKey == "" || key.Period == "" {
		return nil, fmt.Errorf("%w: entity, account and period are all required", apperrors.ErrValidation)
	}
	return s.fundRepo.FindFundByKey(ctx, key)
}

// ListFundsByEntity retrieves all fund rows of one entity for a period.
func (s *FundService) ListFundsByEntity(ctx context.Context, entityKey string, period string) ([]domain.FundBalance, error) {
	if entityKey == "" || period == "" {
		return nil, fmt.Errorf("%w: entity and period are required", apperrors.ErrValidation)
	}
	return s.fundRepo.ListFundsByEntity(ctx, entityKey, period)
}

// NotificationService exposes a user's notification feed.
type NotificationService struct {
	notificationRepo portsrepo.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo portsrepo.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

var _ portssvc.NotificationSvcFacade = (*NotificationService)(nil)

// ListNotificationsForUser retrieves the user's most recent notifications.
func (s *NotificationService) ListNotificationsForUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error) {
	return s.notificationRepo.ListNotificationsByUser(ctx, userID, clampLimit(limit))
}
