package services

import (
	"context"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
)

// UserSvcFacade defines user management operations.
type UserSvcFacade interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	Authenticate(ctx context.Context, username string, password string) (*domain.User, error)
}

// TokenSvcFacade issues access tokens for authenticated users.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
}
