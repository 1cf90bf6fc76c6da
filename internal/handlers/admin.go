package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dealerhub/internal/apperr"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/middleware"
	"dealerhub/internal/models"
	"dealerhub/internal/service"
)

type flagResponse struct {
	Dashboard string    `json:"dashboard"`
	Feature   string    `json:"feature"`
	TenantID  string    `json:"tenantId,omitempty"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toFlagResponse(f featureflag.Flag) flagResponse {
	return flagResponse{
		Dashboard: string(f.Dashboard),
		Feature:   f.Feature,
		TenantID:  f.TenantID,
		Enabled:   f.Enabled,
		UpdatedAt: f.UpdatedAt,
	}
}

func (h HandlerSet) ListFlags(c *gin.Context) {
	dashboard, ok := models.ParseDashboard(c.Query("dashboard"))
	if !ok {
		respondError(c, fmt.Errorf("unknown dashboard %q: %w", c.Query("dashboard"), apperr.ErrMalformedRequest))
		return
	}

	flags, err := h.listFlags(c.Request.Context(), dashboard)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]flagResponse, 0, len(flags))
	for _, f := range flags {
		items = append(items, toFlagResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type setFlagRequest struct {
	Dashboard string `json:"dashboard" binding:"required"`
	Feature   string `json:"feature" binding:"required"`
	TenantID  string `json:"tenantId"`
	Enabled   *bool  `json:"enabled" binding:"required"`
}

func (h HandlerSet) SetFlag(c *gin.Context) {
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}
	key, err := flagKey(req.Dashboard, req.Feature, req.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}

	flag := featureflag.Flag{Key: key, Enabled: *req.Enabled}
	err = h.withFlagTimeout(c.Request.Context(), func(ctx context.Context) error {
		return h.flags.Set(ctx, flag)
	})
	if err != nil {
		respondError(c, fmt.Errorf("set flag: %w: %w", apperr.ErrUnavailable, err))
		return
	}

	h.log.Info().
		Str("actor", actorID(c)).
		Str("flag", key.String()).
		Bool("enabled", flag.Enabled).
		Msg("feature flag set")
	c.JSON(http.StatusOK, toFlagResponse(flag))
}

func (h HandlerSet) DeleteFlag(c *gin.Context) {
	key, err := flagKey(c.Query("dashboard"), c.Query("feature"), c.Query("tenantId"))
	if err != nil {
		respondError(c, err)
		return
	}

	err = h.withFlagTimeout(c.Request.Context(), func(ctx context.Context) error {
		return h.flags.Delete(ctx, key)
	})
	if err != nil {
		respondError(c, fmt.Errorf("delete flag: %w: %w", apperr.ErrUnavailable, err))
		return
	}

	h.log.Info().
		Str("actor", actorID(c)).
		Str("flag", key.String()).
		Msg("feature flag deleted")
	c.Status(http.StatusNoContent)
}

func flagKey(rawDashboard, feature, tenantID string) (featureflag.Key, error) {
	dashboard, ok := models.ParseDashboard(rawDashboard)
	if !ok {
		return featureflag.Key{}, fmt.Errorf("unknown dashboard %q: %w", rawDashboard, apperr.ErrMalformedRequest)
	}
	if feature == "" {
		return featureflag.Key{}, fmt.Errorf("feature required: %w", apperr.ErrMalformedRequest)
	}
	return featureflag.Key{Dashboard: dashboard, Feature: feature, TenantID: tenantID}, nil
}

func (h HandlerSet) withFlagTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, h.cfg.Flags.Timeout)
	defer cancel()
	return fn(ctx)
}

func actorID(c *gin.Context) string {
	principal, _ := middleware.CurrentPrincipal(c)
	return principal.UserID
}

type createUserRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
	Role        string `json:"role" binding:"required"`
	TenantID    string `json:"tenantId"`
	DealerID    string `json:"dealerId"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	TenantID    *string   `json:"tenantId,omitempty"`
	DealerID    *string   `json:"dealerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		TenantID:    req.TenantID,
		DealerID:    req.DealerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Status:      string(user.Status),
		TenantID:    user.TenantID,
		DealerID:    user.DealerID,
		CreatedAt:   user.CreatedAt,
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus changes an account's status. Suspended users fail
// verification on their next request; their sessions are left to expire.
func (h HandlerSet) SetUserStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return
	}

	if err := h.users.SetStatus(c.Request.Context(), c.Param("id"), models.UserStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
