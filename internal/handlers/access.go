package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/apperr"
	"dealerhub/internal/authz"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/middleware"
	"dealerhub/internal/models"
)

type accessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Access evaluates an arbitrary requirement for the current principal so
// front ends can hide what the API would refuse.
func (h HandlerSet) Access(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		respondError(c, apperr.ErrUnauthenticated)
		return
	}

	req := authz.Requirement{
		Dashboard: models.Dashboard(c.Query("dashboard")),
		Feature:   c.Query("feature"),
	}
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseUserRole(raw)
		if !ok {
			respondError(c, fmt.Errorf("unknown role %q: %w", raw, apperr.ErrMalformedRequest))
			return
		}
		req.Role = role
	}

	decision, err := h.gate.Authorize(c.Request.Context(), principal, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, accessResponse{Reason: string(decision.Reason)})
		return
	}
	c.JSON(http.StatusOK, accessResponse{Allowed: true})
}

type featuresResponse struct {
	Dashboard string          `json:"dashboard"`
	Features  map[string]bool `json:"features"`
}

// dashboardFeatures lists the configured features of one dashboard as the
// caller's tenant sees them. Unlisted features are enabled.
func (h HandlerSet) dashboardFeatures(dashboard models.Dashboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.CurrentPrincipal(c)
		if !ok {
			respondError(c, apperr.ErrUnauthenticated)
			return
		}

		flags, err := h.listFlags(c.Request.Context(), dashboard)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, featuresResponse{
			Dashboard: string(dashboard),
			Features:  featureflag.Resolve(flags, principal.TenantID),
		})
	}
}

func (h HandlerSet) listFlags(ctx context.Context, dashboard models.Dashboard) ([]featureflag.Flag, error) {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Flags.Timeout)
	defer cancel()

	flags, err := h.flags.List(ctx, dashboard)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w: %w", apperr.ErrUnavailable, err)
	}
	return flags, nil
}
