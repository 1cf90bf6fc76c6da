package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dealerhub/internal/apperr"
	"dealerhub/internal/ids"
	"dealerhub/internal/models"
	"dealerhub/internal/repository"
	"dealerhub/internal/security"
)

type UserWriter interface {
	UserDirectory
	Create(ctx context.Context, user models.User) error
	UpdateStatus(ctx context.Context, id string, status models.UserStatus) error
}

var ErrEmailTaken = fmt.Errorf("email already registered: %w", apperr.ErrMalformedRequest)

const defaultUserTimeout = 2 * time.Second

// UserService provisions platform accounts. Only admins reach it.
type UserService struct {
	users   UserWriter
	timeout time.Duration
	log     zerolog.Logger
}

func NewUserService(users UserWriter, log zerolog.Logger) *UserService {
	return &UserService{users: users, timeout: defaultUserTimeout, log: log}
}

// WithTimeout bounds each directory call. Non-positive values keep the default.
func (s *UserService) WithTimeout(d time.Duration) *UserService {
	if d > 0 {
		s.timeout = d
	}
	return s
}

type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
	TenantID    string
	DealerID    string
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (models.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || len(input.Password) < 8 {
		return models.User{}, fmt.Errorf("email and a password of at least 8 characters required: %w", apperr.ErrMalformedRequest)
	}

	role, ok := models.ParseUserRole(input.Role)
	if !ok {
		return models.User{}, fmt.Errorf("unknown role %q: %w", input.Role, apperr.ErrMalformedRequest)
	}
	if role != models.UserRoleAdmin && role != models.UserRolePublic && input.TenantID == "" {
		return models.User{}, fmt.Errorf("tenant required for role %s: %w", role, apperr.ErrMalformedRequest)
	}
	if input.DealerID != "" && role != models.UserRoleSeller {
		return models.User{}, fmt.Errorf("dealer id only valid for sellers: %w", apperr.ErrMalformedRequest)
	}

	if _, err := s.findByEmail(ctx, email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("user lookup: %w: %w", apperr.ErrUnavailable, err)
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
		Role:         string(role),
		Status:       models.UserStatusActive,
		TenantID:     optional(input.TenantID),
		DealerID:     optional(input.DealerID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if role == models.UserRoleAdmin {
		user.TenantID = nil
	}

	// the unique index settles concurrent creates for the same email
	if err := s.insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, fmt.Errorf("create user: %w: %w", apperr.ErrUnavailable, err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user created")
	return user, nil
}

func (s *UserService) SetStatus(ctx context.Context, id string, status models.UserStatus) error {
	switch status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusPending:
	default:
		return fmt.Errorf("unknown status %q: %w", status, apperr.ErrMalformedRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.users.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update status: %w: %w", apperr.ErrUnavailable, err)
	}
	s.log.Info().Str("user_id", id).Str("status", string(status)).Msg("user status changed")
	return nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.users.FindByEmail(ctx, email)
}

func (s *UserService) insert(ctx context.Context, user models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.users.Create(ctx, user)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
