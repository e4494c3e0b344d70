package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration and credential checks.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *apperrors.Error)
	Login(ctx context.Context, username, password string) (*models.User, string, *apperrors.Error)
	GetUser(ctx context.Context, claims *SessionClaims) (*models.User, *apperrors.Error)
}

type authServiceImpl struct {
	users  repository.UserRepository
	tokens *TokenService
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *TokenService, logger *zap.Logger) AuthService {
	return &authServiceImpl{users: users, tokens: tokens, logger: logger}
}

func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, *apperrors.Error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Failed to check username", zap.Error(err))
		return nil, apperrors.Internal("Registration failed", err)
	}
	if exists {
		return nil, apperrors.Conflict("Username is already taken")
	}

	exists, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email", zap.Error(err))
		return nil, apperrors.Internal("Registration failed", err)
	}
	if exists {
		return nil, apperrors.Conflict("Email is already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Username or email already exists")
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, apperrors.Internal("Registration failed", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("username", user.Username))
	return user, nil
}

// Login verifies the credentials and issues a session token.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.User, string, *apperrors.Error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("Failed to load user", zap.Error(err))
		}
		return nil, "", apperrors.New(http.StatusUnauthorized, "Invalid username or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apperrors.New(http.StatusUnauthorized, "Invalid username or password", nil)
	}

	token, err := s.tokens.GenerateSessionToken(user)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to create session", err)
	}
	return user, token, nil
}

func (s *authServiceImpl) GetUser(ctx context.Context, claims *SessionClaims) (*models.User, *apperrors.Error) {
	if claims == nil {
		return nil, apperrors.New(http.StatusUnauthorized, "Not authenticated", nil)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("Failed to load user", err)
	}
	return user, nil
}
