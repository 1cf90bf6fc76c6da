package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"dealerhub/internal/authz"
	"dealerhub/internal/config"
	"dealerhub/internal/featureflag"
	"dealerhub/internal/handlers"
	"dealerhub/internal/security"
	"dealerhub/internal/service"
	"dealerhub/internal/session"
)

func newServer(t *testing.T) *HTTPServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment:      "development",
		HTTP:             config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Session:          config.SessionConfig{Backend: "memory", TTL: session.DefaultTTL, Timeout: time.Second, CookieName: "authToken"},
		Flags:            config.FlagsConfig{Backend: "memory", Timeout: time.Second},
		AllowCORSOrigins: []string{"https://admin.example.com"},
	}
	flags := featureflag.NewMemoryStore()
	sessions := session.NewStore(session.NewMemoryBackend())
	auth := service.NewAuthService(nil, sessions, security.NewTokenIssuer("server-test"), cfg.Session.TTL, time.Second, zerolog.Nop())

	h := handlers.NewHandlerSet(handlers.Deps{
		Log:    zerolog.Nop(),
		Config: cfg,
		Auth:   auth,
		Gate:   authz.NewGate(flags, time.Second),
		Flags:  flags,
	})
	return NewHTTPServer(cfg, zerolog.Nop(), h)
}

func TestRoutes(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/healthz", http.StatusOK},
		{http.MethodGet, "/api/v1/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/admin/flags", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/auth/logout", http.StatusNoContent},
		{http.MethodGet, "/api/v1/nowhere", http.StatusNotFound},
		{http.MethodDelete, "/api/healthz", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}
