package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"approvalflow/internal/middleware"
	"approvalflow/internal/model"
	"approvalflow/internal/repository"
	"approvalflow/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// DTOs for Request validation
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, *TokenResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type userService struct {
	users  repository.UserRepository
	tokens repository.RefreshTokenRepository
	logger *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(users repository.UserRepository, tokens repository.RefreshTokenRepository, logger ...*zap.Logger) UserService {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &userService{users: users, tokens: tokens, logger: l}
}

var emailRegex = regexp.MustCompile(`(?i)^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Helper: parse model to standard json API response
func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, *TokenResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, nil, apperror.Validation("Invalid role: must be CREATOR or APPROVER")
	}

	// Basic Email format validation fallback
	if !emailRegex.MatchString(req.Email) {
		return nil, nil, apperror.Validation("Invalid email format")
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, nil, apperror.Validation("Email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperror.Store(err, "Server error while registering user")
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     req.Role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		s.logger.Error("failed to create user", zap.String("email", req.Email), zap.Error(err))
		return nil, nil, apperror.Store(err, "Server error while registering user")
	}

	tokens, err := s.issueTokens(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	return mapToUserResponse(&user), tokens, nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid user identity")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		s.logger.Error("failed to fetch user", zap.String("id", id), zap.Error(err))
		return nil, apperror.Store(err, "Server error while fetching user")
	}
	return mapToUserResponse(user), nil
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokens.DeleteByToken(ctx, refreshToken)
		return nil, apperror.Unauthorized("Refresh token has expired")
	}

	// Rotate: the old refresh token is single-use
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		s.logger.Error("failed to rotate refresh token", zap.Error(err))
		return nil, apperror.Store(err, "Server error while refreshing token")
	}

	return s.issueTokens(ctx, &stored.User)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
		s.logger.Error("failed to delete refresh token", zap.Error(err))
		return apperror.Store(err, "Server error while logging out")
	}
	return nil
}

// issueTokens generates a signed access token and a stored refresh token
func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, apperror.Store(err, "Failed to generate token")
	}

	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, &refresh); err != nil {
		s.logger.Error("failed to store refresh token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperror.Store(err, "Failed to generate token")
	}

	return &TokenResponse{Token: tokenString, RefreshToken: refresh.Token}, nil
}
