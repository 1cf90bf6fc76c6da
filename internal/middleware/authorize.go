package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/apperr"
	"dealerhub/internal/authz"
	"dealerhub/internal/models"
)

type Authorizer interface {
	Authorize(ctx context.Context, p models.Principal, req authz.Requirement) (authz.Decision, error)
}

// RequireRole admits only principals holding role.
func RequireRole(gate Authorizer, role models.UserRole) gin.HandlerFunc {
	return Require(gate, authz.Requirement{Role: role})
}

// RequireFeature admits principals while the dashboard feature is enabled
// for their tenant.
func RequireFeature(gate Authorizer, dashboard models.Dashboard, feature string) gin.HandlerFunc {
	return Require(gate, authz.Requirement{Dashboard: dashboard, Feature: feature})
}

func Require(gate Authorizer, req authz.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			abortWithError(c, apperr.ErrUnauthenticated)
			return
		}

		decision, err := gate.Authorize(c.Request.Context(), principal, req)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  "forbidden",
				"reason": decision.Reason,
			})
			return
		}

		c.Next()
	}
}
