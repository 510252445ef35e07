package services

import (
	"context"

	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
)

// RepoNotifier persists notification events through the notification
// repository. Callers treat delivery as best-effort.
type RepoNotifier struct {
	notificationRepo portsrepo.NotificationRepository
}

func NewRepoNotifier(notificationRepo portsrepo.NotificationRepository) portssvc.Notifier {
	return &RepoNotifier{notificationRepo: notificationRepo}
}

var _ portssvc.Notifier = (*RepoNotifier)(nil)

func (n *RepoNotifier) Notify(ctx context.Context, event domain.NotificationEvent) error {
	return n.notificationRepo.SaveNotification(ctx, event)
}
