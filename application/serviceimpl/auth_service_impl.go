package serviceimpl

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"safesight/domain/models"
	"safesight/domain/repositories"
	"safesight/domain/services"
	"safesight/pkg/logger"
	"safesight/pkg/utils"
)

type AuthServiceImpl struct {
	userRepo  repositories.UserRepository
	jwtSecret string
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) services.AuthService {
	return &AuthServiceImpl{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, services.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, services.ErrInvalidCredentials
	}

	if !user.IsActive {
		return "", nil, services.ErrUserInactive
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.AuthError("last_login_update_failed", "Failed to update last login", err, map[string]interface{}{"username": username})
	}

	logger.Auth("login", "User logged in", map[string]interface{}{"username": username})
	return token, user, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, services.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = "operator"
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Auth("register", "User registered", map[string]interface{}{"username": username, "role": role})
	return user, nil
}
