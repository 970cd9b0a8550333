package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"career-backend/internal/account"
	googleauth "career-backend/internal/auth"
	"career-backend/internal/coverletters"
	"career-backend/internal/navigation"
	"career-backend/internal/services/health"
	"career-backend/internal/shared/config"
	"career-backend/internal/shared/metrics"
	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/validation"
	"career-backend/internal/usage"
	"career-backend/internal/users"
)

const rateLimitGenerate = "GENERATE"

// RouterDeps carries the handlers mounted on the API.
type RouterDeps struct {
	Config             config.Config
	UserHandler        *users.Handler
	CoverLetterHandler *coverletters.Handler
	NavHandler         *navigation.Handler
	UsageHandler       *usage.Handler
	AccountHandler     *account.Handler
	GoogleAuth         *googleauth.GoogleService
	Health             *health.Service
	RateLimiter        *middleware.RateLimiter
}

// DefaultRateLimitRules allows bursts of ordinary traffic and a few generations per minute.
func DefaultRateLimitRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		"DEFAULT":         {Rate: 10, Burst: 40},
		rateLimitGenerate: {Rate: 0.1, Burst: 3},
	}
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.Register()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Authenticate(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: DefaultRateLimitRules(),
			GroupFor: middleware.GroupByRoute(map[string]string{
				"POST /api/v1/cover-letters": rateLimitGenerate,
			}),
			Limiter: deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status())
	})
	api.GET("/ready", func(c *gin.Context) {
		res := healthSvc.Ready(c.Request.Context())
		status := http.StatusOK
		if !res.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, res)
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.NavHandler != nil {
		deps.NavHandler.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireUser())
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(protected)
	}
	if deps.CoverLetterHandler != nil {
		deps.CoverLetterHandler.RegisterRoutes(protected)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(protected)
		if deps.Config.IsDevLike() {
			deps.UsageHandler.RegisterDevRoutes(protected.Group("/dev"))
		}
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(protected)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})
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
