package services

import (
	"time"

	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
)

// NewServiceContainer wires the repository provider into the full service
// container used by the handlers.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, jwtSecret string, jwtExpiry time.Duration, jwtIssuer string) *portssvc.ServiceContainer {
	scopeFilter := NewLevelScopeFilter()
	notifier := NewRepoNotifier(repos.NotificationRepo)

	return &portssvc.ServiceContainer{
		Transfer:     NewTransferService(repos.TransferRepo, repos.RejectionRepo, repos.UserRepo, scopeFilter, notifier),
		Fund:         NewFundService(repos.FundRepo),
		User:         NewUserService(repos.UserRepo),
		Token:        NewTokenService(jwtSecret, jwtExpiry, jwtIssuer),
		Notification: NewNotificationService(repos.NotificationRepo),
	}
}
