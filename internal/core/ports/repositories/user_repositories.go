package repositories

import (
	"context"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// NotificationRepository persists notification events. Writes are
// best-effort from the caller's point of view.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, event domain.NotificationEvent) error
	ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]domain.NotificationEvent, error)
}
