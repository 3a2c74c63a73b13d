package services

import (
	"context"
	"errors"

	"safesight/domain/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserInactive       = errors.New("user account is inactive")
)

type AuthService interface {
	// Login verifies credentials and returns a signed JWT plus the user
	Login(ctx context.Context, username, password string) (string, *models.User, error)

	// Register creates an operator account (admin only)
	Register(ctx context.Context, username, email, password, role string) (*models.User, error)
}
