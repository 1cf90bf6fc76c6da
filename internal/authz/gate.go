// Package authz decides whether a verified principal may perform an action,
// based on its role and on per-tenant feature flags.
package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dealerhub/internal/apperr"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/models"
)

var tracer = otel.Tracer("dealerhub/authz")

type Reason string

const (
	ReasonForbiddenRole   Reason = "forbidden-role"
	ReasonFeatureDisabled Reason = "feature-disabled"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err converts a deny into an error wrapping apperr.ErrForbidden.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%s: %w", d.Reason, apperr.ErrForbidden)
}

// Requirement describes what an operation needs. Zero fields are not checked;
// Dashboard and Feature must be given together.
type Requirement struct {
	Role      models.UserRole
	Dashboard models.Dashboard
	Feature   string
}

type Gate struct {
	flags   featureflag.Source
	timeout time.Duration
}

func NewGate(flags featureflag.Source, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Gate{flags: flags, timeout: timeout}
}

// Authorize checks the role first so a caller with the wrong role learns
// nothing about flag state. Missing flags allow.
func (g *Gate) Authorize(ctx context.Context, p models.Principal, req Requirement) (Decision, error) {
	if err := req.validate(); err != nil {
		return Decision{}, err
	}

	if req.Role != "" && p.Role != req.Role {
		return Deny(ReasonForbiddenRole), nil
	}

	if req.Feature == "" {
		return Allow(), nil
	}

	enabled, err := g.featureEnabled(ctx, featureflag.Key{
		Dashboard: req.Dashboard,
		Feature:   req.Feature,
		TenantID:  p.TenantID,
	})
	if err != nil {
		return Decision{}, err
	}
	if !enabled {
		return Deny(ReasonFeatureDisabled), nil
	}
	return Allow(), nil
}

func (g *Gate) featureEnabled(ctx context.Context, key featureflag.Key) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "authz.feature_enabled", trace.WithAttributes(
		attribute.String("dashboard", string(key.Dashboard)),
		attribute.String("feature", key.Feature),
		attribute.Bool("tenant_scoped", key.TenantID != ""),
	))
	defer span.End()

	keys := []featureflag.Key{key.Default()}
	if key.TenantID != "" {
		keys = []featureflag.Key{key, key.Default()}
	}

	for _, k := range keys {
		flag, err := g.flags.Get(ctx, k)
		if errors.Is(err, featureflag.ErrNotFound) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "flag lookup failed")
			return false, fmt.Errorf("feature flag %s: %w: %w", k, apperr.ErrUnavailable, err)
		}
		span.SetAttributes(attribute.Bool("enabled", flag.Enabled), attribute.Bool("override", k.TenantID != ""))
		return flag.Enabled, nil
	}
	span.SetAttributes(attribute.Bool("enabled", true), attribute.Bool("configured", false))
	return true, nil
}

func (r Requirement) validate() error {
	if r.Role != "" {
		if _, ok := models.ParseUserRole(string(r.Role)); !ok {
			return fmt.Errorf("unknown role %q: %w", r.Role, apperr.ErrMalformedRequest)
		}
	}
	if (r.Dashboard == "") != (r.Feature == "") {
		return fmt.Errorf("dashboard and feature must be given together: %w", apperr.ErrMalformedRequest)
	}
	if r.Dashboard != "" {
		if _, ok := models.ParseDashboard(string(r.Dashboard)); !ok {
			return fmt.Errorf("unknown dashboard %q: %w", r.Dashboard, apperr.ErrMalformedRequest)
		}
	}
	return nil
}
