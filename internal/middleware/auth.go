package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/apperr"
	"dealerhub/internal/models"
)

const principalKey = "principal"

// Verifier resolves a raw bearer token to a principal.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (models.Principal, error)
}

// ExtractToken reads the credential from the Authorization header or, when
// that header is absent, from the auth cookie. A present but malformed header
// is a failure; it never falls back to the cookie.
func ExtractToken(r *http.Request, cookieName string) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Auth verifies the request credential and stores the principal on the
// context. Every credential failure produces the same 401 body.
func Auth(verifier Verifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractToken(c.Request, cookieName)
		if !ok {
			abortWithError(c, apperr.ErrUnauthenticated)
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by Auth.
func CurrentPrincipal(c *gin.Context) (models.Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return models.Principal{}, false
	}
	p, ok := val.(models.Principal)
	return p, ok
}

func abortWithError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Code(err)})
}
