package models

import "time"

type UserRole string

const (
	UserRoleAdmin      UserRole = "admin"
	UserRoleDealer     UserRole = "dealer"
	UserRoleSeller     UserRole = "seller"
	UserRoleAdvertiser UserRole = "advertiser"
	UserRolePublic     UserRole = "public"
)

// ParseUserRole accepts only the closed set of platform roles.
func ParseUserRole(raw string) (UserRole, bool) {
	switch role := UserRole(raw); role {
	case UserRoleAdmin, UserRoleDealer, UserRoleSeller, UserRoleAdvertiser, UserRolePublic:
		return role, true
	default:
		return "", false
	}
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	Role         string // raw column value, validated when a Principal is built
	Status       UserStatus
	TenantID     *string
	DealerID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its absolute expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
