package services

import (
	"context"

	"filestorage/internal/domain/models"
)

// UserService handles registration and login
type UserService interface {
	// Register creates the user and its root folder
	Register(ctx context.Context, req *RegisterRequest) (*models.AuthToken, error)

	// Login exchanges credentials for an access token
	Login(ctx context.Context, req *LoginRequest) (*models.AuthToken, error)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login"` // email or username
	Password string `json:"password"`
}

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	Issue(user *models.User) (*models.AuthToken, error)
}
