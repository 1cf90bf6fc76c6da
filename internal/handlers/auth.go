package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/middleware"
	"dealerhub/internal/models"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type principalResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId,omitempty"`
	DealerID string `json:"dealerId,omitempty"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      principalResponse `json:"user"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	session.SetCookie(c.Writer, result.Token, h.cookie)
	c.JSON(http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toPrincipalResponse(result.Principal),
	})
}

// Logout always clears the cookie. The session is revoked when the presented
// token still names one; a missing or unreadable token is not an error.
func (h HandlerSet) Logout(c *gin.Context) {
	session.ClearCookie(c.Writer, h.cookie)

	token, ok := middleware.ExtractToken(c.Request, h.cookie.Name)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, toPrincipalResponse(principal))
}

func toPrincipalResponse(p models.Principal) principalResponse {
	return principalResponse{
		UserID:   p.UserID,
		Email:    p.Email,
		Role:     string(p.Role),
		TenantID: p.TenantID,
		DealerID: p.DealerID,
	}
}
