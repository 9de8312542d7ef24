package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/peerrent/verification/internal/domain"
	"github.com/peerrent/verification/internal/repository"
	"github.com/peerrent/verification/pkg/auth"
	"github.com/peerrent/verification/pkg/config"
	"github.com/peerrent/verification/pkg/events"
	"github.com/peerrent/verification/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	eventBus events.EventBus
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, eventBus events.EventBus, config *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("user with this email already exists")
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Email, passwordHash, req.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("invalid credentials")
	}

	accessToken, err := auth.NewAccessToken(
		user.ID,
		user.Email,
		user.Role,
		s.config.Auth.JWTSecret,
		s.config.Auth.AccessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:        user.ToUserInfo(),
	}, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
