package services

import (
	"context"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/entities"
	"github.com/Mr-Georgie/weather-api/domain/events"
	"github.com/Mr-Georgie/weather-api/pkg/auth"
	appErrors "github.com/Mr-Georgie/weather-api/pkg/errors"
	"github.com/Mr-Georgie/weather-api/pkg/utils"
)

// SignupRequest is the signup payload
type SignupRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult carries the issued access token.
type AuthResult struct {
	Token string `json:"token"`
}

// AuthService handles signup and login
type AuthService struct {
	users     *UserService
	hasher    *auth.PasswordHasher
	tokens    *auth.JWTService
	publisher ports.EventPublisher
	logger    ports.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *UserService, hasher *auth.PasswordHasher, tokens *auth.JWTService, publisher ports.EventPublisher, logger ports.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
	}
}

// Signup registers an account and returns a token for it.
// Emails of deleted accounts stay reserved.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.Email = entities.NormalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	existing, err := s.users.FindByEmail(ctx, req.Email, true)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.NewBadRequestError(appErrors.CodeEmailAlreadyExists, appErrors.MsgEmailAlreadyExists)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to hash password")
	}

	user, err := s.users.CreateUser(ctx, req.Email, hash)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.NewUserRegistered(user.ID, user.Email, user.CreatedAt))
	return s.issue(user)
}

// Login checks credentials and returns a token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = entities.NormalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error())
	}

	user, err := s.users.FindByEmail(ctx, req.Email, false)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, appErrors.NewBadRequestError(appErrors.CodeAccountNotFound, appErrors.MsgAccountNotFound)
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to verify password")
	}
	if !ok {
		s.logger.Debug("Password mismatch", "user_id", user.ID)
		return nil, appErrors.NewBadRequestError(appErrors.CodePasswordMismatch, appErrors.MsgPasswordMismatch)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *entities.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to issue token")
	}
	s.logger.Info("Token issued", "user_id", user.ID)
	return &AuthResult{Token: token}, nil
}
