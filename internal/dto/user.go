package dto

import (
	"time"

	"github.com/bt-suite/budget_transfer_app/internal/core/domain"
)

// CreateUserRequest defines the payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin user"`
	Level    int    `json:"level" binding:"gte=0,lte=4"`
}

// LoginRequest defines the payload for authentication.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// UserResponse is the API shape of a user.
type UserResponse struct {
	UserID   string `json:"userID"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Level    int    `json:"level"`
}

// ToUserResponse converts a domain user to its API shape.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Role:     string(u.Role),
		Level:    u.Level,
	}
}
