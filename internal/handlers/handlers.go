package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerhub/internal/authz"
	"dealerhub/internal/config"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/middleware"
	"dealerhub/internal/models"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Log      zerolog.Logger
	Config   *config.AppConfig
	Auth     *service.AuthService
	Users    *service.UserService
	Gate     *authz.Gate
	Flags    featureflag.Store
	Database Pinger
	Cache    redis.UniversalClient
}

type HandlerSet struct {
	log    zerolog.Logger
	cfg    *config.AppConfig
	auth   *service.AuthService
	users  *service.UserService
	gate   *authz.Gate
	flags  featureflag.Store
	db     Pinger
	cache  redis.UniversalClient
	cookie session.CookieOptions
}

func NewHandlerSet(deps Deps) HandlerSet {
	return HandlerSet{
		log:   deps.Log,
		cfg:   deps.Config,
		auth:  deps.Auth,
		users: deps.Users,
		gate:  deps.Gate,
		flags: deps.Flags,
		db:    deps.Database,
		cache: deps.Cache,
		cookie: session.CookieOptions{
			Name:   deps.Config.Session.CookieName,
			Secure: deps.Config.Session.CookieSecure || deps.Config.IsProduction(),
			MaxAge: deps.Config.Session.TTL,
		},
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	requireAuth := middleware.Auth(h.auth, h.cookie.Name)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", requireAuth, h.Me)

		v1.GET("/access", requireAuth, h.Access)
	}

	for _, role := range []models.UserRole{
		models.UserRoleDealer,
		models.UserRoleSeller,
		models.UserRoleAdvertiser,
	} {
		dashboard := v1.Group("/"+string(role), requireAuth, middleware.RequireRole(h.gate, role))
		dashboard.GET("/features", h.dashboardFeatures(models.Dashboard(role)))
	}

	public := v1.Group("/public", requireAuth)
	public.GET("/features", h.dashboardFeatures(models.DashboardPublic))

	admin := v1.Group("/admin", requireAuth, middleware.RequireRole(h.gate, models.UserRoleAdmin))
	{
		admin.GET("/features", h.dashboardFeatures(models.DashboardAdmin))

		admin.GET("/flags", h.ListFlags)
		admin.PUT("/flags", h.SetFlag)
		admin.DELETE("/flags", h.DeleteFlag)

		admin.POST("/users", h.CreateUser)
		admin.PATCH("/users/:id/status", h.SetUserStatus)
	}
}
