package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"igma-backend/internal/assessments"
	"igma-backend/internal/catalog"
	"igma-backend/internal/services/health"
	"igma-backend/internal/shared/config"
	"igma-backend/internal/shared/metrics"
	"igma-backend/internal/shared/server/middleware"
	"igma-backend/internal/shared/server/respond"
)

// RouterDeps holds the handlers mounted on the router.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	CatalogHandler    *catalog.Handler
	AssessmentHandler *assessments.Handler
	RateLimiter       *middleware.RateLimiter
}

// DefaultRateLimits throttles calculation triggers harder than reads.
var DefaultRateLimits = map[string]middleware.RateLimitRule{
	"DEFAULT": {Rate: 20, Burst: 40},
	"COMPUTE": {Rate: 1, Burst: 5},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	limited := api.Group("", middleware.RateLimit(middleware.RateLimitConfig{
		Rules:    DefaultRateLimits,
		GroupFor: middleware.ComputeGroups,
		Limiter:  deps.RateLimiter,
	}))
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.RegisterRoutes(limited)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterRoutes(limited)
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
