package dto

import (
	"time"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public profile of an account.
type UserResponse struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	FullName    string      `json:"full_name"`
	DisplayName string      `json:"display_name"`
	Role        domain.Role `json:"role"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// AuthResponse standard response for login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		DisplayName: u.DisplayName(),
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

func NewSessionUserResponse(s *domain.Session) UserResponse {
	return UserResponse{
		ID:          s.Identity,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Role:        s.Role,
	}
}
