package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portsrepo "github.com/bt-suite/budget_transfer_app/internal/core/ports/repositories"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/dto"
	"github.com/bt-suite/budget_transfer_app/internal/utils"
	"github.com/google/uuid"
)

// UserService implements user management and credential checks.
type UserService struct {
	userRepo portsrepo.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

var _ portssvc.UserSvcFacade = (*UserService)(nil)

// CreateUser registers a new user with a bcrypt password hash.
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to hash password", err)
	}

	role := domain.RoleUser
	if req.Role != "" {
		role = domain.UserRole(req.Role)
	}
	if req.Level < 0 || req.Level > domain.MaxApprovalSlots {
		return nil, fmt.Errorf("%w: level must be between 0 and %d", apperrors.ErrValidation, domain.MaxApprovalSlots)
	}

	now := time.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Username:     req.Username,
		Name:         req.Name,
		Role:         role,
		Level:        req.Level,
		PasswordHash: hash,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: username %q is taken", apperrors.ErrDuplicate, req.Username)
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}

// Authenticate verifies a username/password pair. Unknown users and bad
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username string, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}
