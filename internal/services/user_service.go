package services

import (
	"context"
	"errors"

	"github.com/civicfix/backend/internal/database"
	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/repository"
	"github.com/civicfix/backend/pkg/apperrors"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	Register(ctx context.Context, req *models.UserRegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req *models.UserLoginRequest) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, token string) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error)
}

type userService struct {
	userRepo     repository.UserRepository
	jwtManager   *utils.JWTManager
	sessionStore *database.SessionStore
}

func NewUserService(userRepo repository.UserRepository, jwtManager *utils.JWTManager, sessionStore *database.SessionStore) UserService {
	return &userService{
		userRepo:     userRepo,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

func (s *userService) Register(ctx context.Context, req *models.UserRegisterRequest) (*models.AuthResponse, error) {
	if _, err := s.userRepo.FindByPhone(ctx, req.Phone); err == nil {
		return nil, apperrors.NewValidationError("phone", "phone number is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperrors.PersistenceError{Op: "lookup user", Err: err}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "hash password", Err: err}
	}

	user := &models.User{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: hash,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, &apperrors.PersistenceError{Op: "create user", Err: err}
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Login(ctx context.Context, req *models.UserLoginRequest) (*models.AuthResponse, error) {
	user, err := s.userRepo.FindByPhone(ctx, req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewValidationError("credentials", "invalid phone or password")
		}
		return nil, &apperrors.PersistenceError{Op: "lookup user", Err: err}
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.NewValidationError("credentials", "invalid phone or password")
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, &apperrors.PersistenceError{Op: "update last login", Err: err}
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.NewValidationError("refresh_token", "invalid or expired refresh token")
	}

	blacklisted, err := s.sessionStore.IsTokenBlacklisted(ctx, refreshToken)
	if err == nil && blacklisted {
		return nil, apperrors.NewValidationError("refresh_token", "token has been revoked")
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", claims.UserID.String())
		}
		return nil, &apperrors.PersistenceError{Op: "lookup user", Err: err}
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.sessionStore.BlacklistToken(ctx, token, s.jwtManager.AccessTokenTTL()); err != nil {
		return &apperrors.PersistenceError{Op: "blacklist token", Err: err}
	}
	if err := s.sessionStore.DeleteUserSession(ctx, userID.String()); err != nil {
		return &apperrors.PersistenceError{Op: "delete session", Err: err}
	}
	return nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", userID.String())
		}
		return nil, &apperrors.PersistenceError{Op: "lookup user", Err: err}
	}

	resp := models.ToUserResponse(user)
	return &resp, nil
}

func (s *userService) issueTokens(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(user)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "generate token", Err: err}
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "generate refresh token", Err: err}
	}

	if err := s.sessionStore.SetUserSession(ctx, user.ID.String(), accessToken, s.jwtManager.AccessTokenTTL()); err != nil {
		return nil, &apperrors.PersistenceError{Op: "store session", Err: err}
	}

	return &models.AuthResponse{
		User:         models.ToUserResponse(user),
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}
