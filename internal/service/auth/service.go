package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/repository"
	"github.com/splax/teamup/pkg/config"
	"github.com/splax/teamup/pkg/crypto"
	jwtpkg "github.com/splax/teamup/pkg/jwt"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenRequired is returned when no bearer token was supplied.
	ErrTokenRequired = errors.New("auth: token required")
	// ErrInvalidToken wraps token parse and validation failures.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// SignupInput carries registration fields. Role defaults to user; admin cannot be self-assigned.
type SignupInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// Signup registers a new user.
func (s Service) Signup(ctx context.Context, input SignupInput) (*domain.User, TokenPair, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	switch {
	case name == "":
		return nil, TokenPair{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	case domain.IsLegacyDeletedName(name):
		return nil, TokenPair{}, fmt.Errorf("%w: name is reserved", domain.ErrValidation)
	case !validEmail(email):
		return nil, TokenPair{}, fmt.Errorf("%w: email is invalid", domain.ErrValidation)
	case len(input.Password) < minPasswordLength:
		return nil, TokenPair{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLength)
	case role != domain.RoleUser && role != domain.RoleOrganizer:
		return nil, TokenPair{}, fmt.Errorf("%w: role must be user or organizer", domain.ErrValidation)
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, TokenPair{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, TokenPair{}, domain.StorageError(err)
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "role", string(user.Role))
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, domain.StorageError(err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if !user.Visible() {
		return nil, TokenPair{}, fmt.Errorf("%w: account is disabled", domain.ErrForbidden)
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, tokens, nil
}

// Authorize validates a bearer token and returns the associated user and claims. The role is
// taken from the stored user so a demotion takes effect before the token expires.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, ErrTokenRequired
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return nil, nil, domain.StorageError(err)
	}
	if !user.IsActive || user.Deleted {
		return nil, nil, fmt.Errorf("%w: account is disabled", domain.ErrForbidden)
	}
	claims.Role = string(user.Role)
	return user, claims, nil
}

func (s Service) issueTokens(user *domain.User) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(user.ID, string(user.Role), s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(user.ID, string(user.Role), s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
