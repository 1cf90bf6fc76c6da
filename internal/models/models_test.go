package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestParseUserRole(t *testing.T) {
	for _, raw := range []string{"admin", "dealer", "seller", "advertiser", "public"} {
		role, ok := ParseUserRole(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, UserRole(raw), role)
	}

	for _, raw := range []string{"", "Admin", "superadmin", "user"} {
		_, ok := ParseUserRole(raw)
		assert.False(t, ok, raw)
	}
}

func TestParseDashboard(t *testing.T) {
	d, ok := ParseDashboard("dealer")
	assert.True(t, ok)
	assert.Equal(t, DashboardDealer, d)

	_, ok = ParseDashboard("billing")
	assert.False(t, ok)
}

func TestNewPrincipal(t *testing.T) {
	t.Run("seller keeps dealer and tenant", func(t *testing.T) {
		p, ok := NewPrincipal(User{
			ID:       "u1",
			Email:    "s@example.com",
			Role:     "seller",
			TenantID: strPtr("t1"),
			DealerID: strPtr("d1"),
		}, "s1")
		assert.True(t, ok)
		assert.Equal(t, Principal{
			UserID:    "u1",
			Email:     "s@example.com",
			Role:      UserRoleSeller,
			TenantID:  "t1",
			DealerID:  "d1",
			SessionID: "s1",
		}, p)
	})

	t.Run("dealer id dropped for non sellers", func(t *testing.T) {
		p, ok := NewPrincipal(User{ID: "u2", Role: "dealer", TenantID: strPtr("t1"), DealerID: strPtr("d1")}, "s2")
		assert.True(t, ok)
		assert.Empty(t, p.DealerID)
		assert.Equal(t, "t1", p.TenantID)
	})

	t.Run("admins are platform level", func(t *testing.T) {
		p, ok := NewPrincipal(User{ID: "u3", Role: "admin", TenantID: strPtr("t1")}, "s3")
		assert.True(t, ok)
		assert.Empty(t, p.TenantID)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, ok := NewPrincipal(User{ID: "u4", Role: "owner"}, "s4")
		assert.False(t, ok)
	})
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Second)}

	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Second)))
	assert.True(t, s.Expired(now.Add(3*time.Second)))
}
