package services

import (
	"context"
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/apperrors"
	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
	portssvc "github.com/bt-suite/budget_transfer_app/internal/core/ports/services"
	"github.com/bt-suite/budget_transfer_app/internal/utils"
)

// TokenService issues signed JWT access tokens.
type TokenService struct {
	secret string
	expiry time.Duration
	issuer string
}

// NewTokenService creates a new TokenService.
func NewTokenService(secret string, expiry time.Duration, issuer string) *TokenService {
	return &TokenService{secret: secret, expiry: expiry, issuer: issuer}
}

var _ portssvc.TokenSvcFacade = (*TokenService)(nil)

// GenerateAccessToken issues a token whose subject is the user's ID.
func (s *TokenService) GenerateAccessToken(_ context.Context, user *domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.expiry)
	token, err := utils.GenerateJWT(user.UserID, s.secret, s.expiry, s.issuer)
	if err != nil {
		return "", time.Time{}, apperrors.NewAppError(500, "failed to sign access token", err)
	}
	return token, expiresAt, nil
}
