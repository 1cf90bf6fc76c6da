package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dealerhub/internal/apperr"
	"dealerhub/internal/models"
	"dealerhub/internal/repository"
	"dealerhub/internal/security"
	"dealerhub/internal/session"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	ErrUserSuspended      = fmt.Errorf("user suspended: %w", apperr.ErrForbidden)
)

// UserDirectory resolves stored users. Lookups of unknown users return
// repository.ErrUserNotFound.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type AuthService struct {
	users    UserDirectory
	sessions *session.Store
	tokens   *security.TokenIssuer
	ttl      time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

func NewAuthService(
	users UserDirectory,
	sessions *session.Store,
	tokens *security.TokenIssuer,
	ttl time.Duration,
	timeout time.Duration,
	log zerolog.Logger,
) *AuthService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		timeout:  timeout,
		log:      log,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Principal models.Principal
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return AuthResult{}, fmt.Errorf("email and password required: %w", apperr.ErrMalformedRequest)
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return AuthResult{}, ErrUserSuspended
	}

	record, err := s.sessions.Create(ctx, user.ID, s.ttl)
	if err != nil {
		return AuthResult{}, err
	}

	principal, ok := models.NewPrincipal(user, record.ID)
	if !ok {
		s.log.Error().Str("user_id", user.ID).Msg("user has unknown role")
		s.discardSession(ctx, record.ID)
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, record.ID, record.ExpiresAt)
	if err != nil {
		s.discardSession(ctx, record.ID)
		return AuthResult{}, err
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("role", string(principal.Role)).
		Msg("session created")

	return AuthResult{
		Token:     token,
		ExpiresAt: record.ExpiresAt,
		Principal: principal,
	}, nil
}

// discardSession drops a session created by a login that then failed. The
// record is unreachable without a token, so a failure only leaves it to expire.
func (s *AuthService) discardSession(ctx context.Context, id string) {
	if err := s.sessions.Revoke(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("discard session after failed login")
	}
}

// Verify resolves a raw bearer token to a Principal. Every credential problem
// yields apperr.ErrUnauthenticated; store faults yield apperr.ErrUnavailable.
// It never writes.
func (s *AuthService) Verify(ctx context.Context, rawToken string) (models.Principal, error) {
	if rawToken == "" {
		return models.Principal{}, apperr.ErrUnauthenticated
	}

	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return models.Principal{}, apperr.ErrUnauthenticated
	}

	record, err := s.sessions.Lookup(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		s.log.Debug().Str("user_id", claims.UserID).Msg("session missing or expired")
		return models.Principal{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return models.Principal{}, err
	}
	if record.UserID != claims.UserID {
		s.log.Warn().Str("user_id", claims.UserID).Msg("session user mismatch")
		return models.Principal{}, apperr.ErrUnauthenticated
	}

	user, err := s.getUser(ctx, record.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return models.Principal{}, apperr.ErrUnauthenticated
	}
	if err != nil {
		return models.Principal{}, err
	}
	if user.Status != models.UserStatusActive {
		return models.Principal{}, apperr.ErrUnauthenticated
	}

	principal, ok := models.NewPrincipal(user, record.ID)
	if !ok {
		s.log.Warn().Str("user_id", user.ID).Msg("user has unknown role")
		return models.Principal{}, apperr.ErrUnauthenticated
	}
	return principal, nil
}

// Logout revokes the session behind rawToken. Tokens that do not parse have
// nothing to revoke and are ignored.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("session revoked")
	return nil
}

func (s *AuthService) getUser(ctx context.Context, id string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("user lookup: %w: %w", apperr.ErrUnavailable, err)
	}
	return user, err
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("user lookup: %w: %w", apperr.ErrUnavailable, err)
	}
	return user, err
}
