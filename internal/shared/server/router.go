package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "narrate-backend/internal/auth"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/pipeline"
	"narrate-backend/internal/services/health"
	"narrate-backend/internal/shared/config"
	"narrate-backend/internal/shared/metrics"
	"narrate-backend/internal/shared/server/middleware"
	"narrate-backend/internal/shared/server/respond"
	"narrate-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up. Bootstrap builds them;
// tests can substitute any of them.
type RouterDeps struct {
	Config             config.Config
	DocumentHandler    *documents.Handler
	GenerateHandler    *pipeline.Handler
	EntitlementHandler *entitlements.Handler
	UserHandler        *users.Handler
	GoogleAuth         *googleauth.GoogleService
	Health             *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
	)

	r.GET("/metrics", metrics.Handler())

	// Local narration artifacts are served straight from disk; with an S3
	// store the AUDIO_BASE_URL points at the bucket or CDN instead.
	if deps.Config.ObjectStoreType == "local" {
		r.Static("/audio", filepath.Join(deps.Config.LocalStoreDir, "audio"))
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			respond.JSON(c, http.StatusOK, deps.Health.Status())
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOAD":   {Rate: 0.5, Burst: 5},
			"GENERATE": {Rate: 0.2, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			switch {
			case strings.HasSuffix(c.FullPath(), "/generate"):
				return "GENERATE"
			case strings.HasSuffix(c.FullPath(), "/documents"):
				return "UPLOAD"
			}
			return ""
		},
	}))

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.GenerateHandler != nil {
		deps.GenerateHandler.RegisterRoutes(api)
	}
	if deps.EntitlementHandler != nil {
		deps.EntitlementHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
