// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/psilva/grana/adapters/metrics"
	"github.com/psilva/grana/domain/finance"
	"github.com/psilva/grana/ports"
)

// ErrInvalidCredentials is returned on a failed login. It deliberately
// does not say whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer mints authentication tokens for logged-in users.
type TokenIssuer interface {
	GenerateToken(userID, email string) (token string, expiresAt time.Time, err error)
}

// AuthService handles user registration and login.
type AuthService struct {
	users   ports.UserStore
	hasher  ports.Hasher
	ids     ports.IDGenerator
	tokens  TokenIssuer
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(users ports.UserStore, hasher ports.Hasher, ids ports.IDGenerator, tokens TokenIssuer, m *metrics.Collector, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:   users,
		hasher:  hasher,
		ids:     ids,
		tokens:  tokens,
		metrics: m,
		logger:  logger.With().Str("service", "auth").Logger(),
	}
}

// Register creates a new user account and returns it with a token.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (ports.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return ports.User{}, "", finance.Invalid("email", "must be a valid address")
	}
	if len(password) < 8 {
		return ports.User{}, "", finance.Invalid("password", "must be at least 8 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return ports.User{}, "", err
	}

	u := ports.User{
		ID:           s.ids.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return ports.User{}, "", err
	}

	token, _, err := s.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		return ports.User{}, "", err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("user registered")
	return u, token, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (ports.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.metrics.AuthFailures.Inc()
		return ports.User{}, "", ErrInvalidCredentials
	}

	if !s.hasher.Compare(u.PasswordHash, password) {
		s.metrics.AuthFailures.Inc()
		s.logger.Warn().Str("user_id", u.ID).Msg("failed login attempt")
		return ports.User{}, "", ErrInvalidCredentials
	}

	token, _, err := s.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		return ports.User{}, "", err
	}
	return u, token, nil
}
