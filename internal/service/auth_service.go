package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/auth"
	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrLocalAuthDisabled is returned by password operations when the server
// authenticates through Auth0 only
var ErrLocalAuthDisabled = errors.New("local authentication is disabled")

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo        domain.UserRepository
	settingsService *SettingsService
	tokens          *auth.TokenManager
	validate        *validator.Validate
}

// NewAuthService creates a new AuthService. tokens is nil when local
// accounts are disabled.
func NewAuthService(userRepo domain.UserRepository, settingsService *SettingsService, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		settingsService: settingsService,
		tokens:          tokens,
		validate:        validator.New(),
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	IsNewUser bool
	Token     string
	ExpiresAt time.Time
}

// AuthenticateSubject resolves an Auth0 subject to a user, creating the user
// and seeding default settings on first sight
func (s *AuthService) AuthenticateSubject(ctx context.Context, subject, email string) (*AuthResult, error) {
	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err == nil {
		log.Debug().Str("user_id", user.ID.String()).Msg("Existing user authenticated")
		return &AuthResult{User: user}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to get user")
		return nil, err
	}

	user, err = s.createUser(ctx, &domain.User{
		Subject: subject,
		Email:   strings.ToLower(strings.TrimSpace(email)),
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, IsNewUser: true}, nil
}

// Signup registers a local account and returns a signed token
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	if s.tokens == nil {
		return nil, ErrLocalAuthDisabled
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, &domain.User{
		Subject:      domain.LocalSubjectPrefix + email,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	return s.issueToken(user, true)
}

// SignIn verifies a local account's password and returns a signed token
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	if s.tokens == nil {
		return nil, ErrLocalAuthDisabled
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueToken(user, false)
}

// EnsureOwner returns the owner id for subject, provisioning the user when missing
func (s *AuthService) EnsureOwner(ctx context.Context, subject, email string) (uuid.UUID, error) {
	result, err := s.AuthenticateSubject(ctx, subject, email)
	if err != nil {
		return uuid.Nil, err
	}
	return result.User.ID, nil
}

// OwnerBySubject returns the owner id of the user with subject
func (s *AuthService) OwnerBySubject(ctx context.Context, subject string) (uuid.UUID, error) {
	user, err := s.userRepo.GetBySubject(ctx, subject)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) createUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if !errors.Is(err, domain.ErrEmailExists) {
			log.Error().Err(err).Str("subject", user.Subject).Msg("Failed to create user")
		}
		return nil, err
	}

	if err := s.settingsService.SeedDefaults(ctx, created.ID); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", created.ID.String()).Msg("Created new user with default settings")
	return created, nil
}

func (s *AuthService) issueToken(user *domain.User, isNew bool) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Generate(user.ID, user.Subject, user.Email)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to issue token")
		return nil, err
	}
	return &AuthResult{
		User:      user,
		IsNewUser: isNew,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
