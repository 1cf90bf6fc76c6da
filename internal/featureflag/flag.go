// Package featureflag stores per-dashboard feature toggles with optional
// tenant overrides. Readers treat a missing flag as enabled.
package featureflag

import (
	"context"
	"errors"
	"strings"
	"time"

	"dealerhub/internal/models"
)

var ErrNotFound = errors.New("feature flag not found")

// Key addresses a single flag. An empty TenantID is the dashboard default.
type Key struct {
	Dashboard models.Dashboard
	Feature   string
	TenantID  string
}

func (k Key) String() string {
	return strings.Join([]string{string(k.Dashboard), k.Feature, k.TenantID}, ":")
}

// Default returns the dashboard-wide key for k.
func (k Key) Default() Key {
	return Key{Dashboard: k.Dashboard, Feature: k.Feature}
}

type Flag struct {
	Key
	Enabled   bool
	UpdatedAt time.Time
}

// Source is the read side used by the access gate.
type Source interface {
	Get(ctx context.Context, key Key) (Flag, error)
}

// Store is the administrative side.
type Store interface {
	Source
	Set(ctx context.Context, flag Flag) error
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context, dashboard models.Dashboard) ([]Flag, error)
}

// Resolve folds the flags of one dashboard into the effective state seen by
// tenantID. A tenant override replaces the dashboard default; overrides for
// other tenants are ignored.
func Resolve(flags []Flag, tenantID string) map[string]bool {
	out := make(map[string]bool, len(flags))
	overridden := make(map[string]bool)
	for _, f := range flags {
		switch {
		case f.TenantID == "":
			if !overridden[f.Feature] {
				out[f.Feature] = f.Enabled
			}
		case f.TenantID == tenantID:
			out[f.Feature] = f.Enabled
			overridden[f.Feature] = true
		}
	}
	return out
}
