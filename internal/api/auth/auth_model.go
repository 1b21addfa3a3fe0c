package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/coursehub/campus-api/internal/models"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name            string `json:"name" example:"Ann Pereira"`
	Email           string `json:"email" example:"ann@example.com"`
	Password        string `json:"password" example:"Str0ngP@ss!"`
	ConfirmPassword string `json:"confirm_password" example:"Str0ngP@ss!"`
	Role            string `json:"role" example:"student"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"Str0ngP@ss!"`
}

// UserResponse is the identity summary returned by every auth operation.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse represents the successful register/login response body.
type AuthResponse struct {
	Message     string       `json:"message"`
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Claims represents the custom claims included in the JWT access token.
// Subject carries the numeric user id as a decimal string.
type Claims struct {
	Role string `json:"rol"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}
