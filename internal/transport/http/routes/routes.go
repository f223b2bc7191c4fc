package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arklim/shopfront/internal/infra/config"
	"github.com/arklim/shopfront/internal/transport/http/handlers"
	"github.com/arklim/shopfront/internal/transport/http/middleware"
	"github.com/arklim/shopfront/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth     *usecase.AuthService
	Users    *usecase.UserService
	Captchas *usecase.CaptchaService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// AccessRules is the storefront tier table. Order matters: the specific
// anonymous carve-outs sit above the API catch-all, which sits above the
// site-wide session rule.
func AccessRules() []middleware.AccessRule {
	return []middleware.AccessRule{
		{Pattern: "/healthz", Tier: middleware.TierAnonymous},
		{Pattern: "/readyz", Tier: middleware.TierAnonymous},
		{Pattern: "/metrics", Tier: middleware.TierAnonymous},
		{Pattern: "/api/captcha/**", Tier: middleware.TierAnonymous},
		{Pattern: "/api/users/login", Tier: middleware.TierAnonymous},
		{Pattern: "/api/users/register", Tier: middleware.TierAnonymous},
		{Pattern: "/api/users", Tier: middleware.TierAnonymous},
		{Pattern: "/api/vision/**", Tier: middleware.TierAnonymous},
		{Pattern: "/api/**", Tier: middleware.TierBearer},
		{Pattern: "/**", Tier: middleware.TierSession},
	}
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{}); err == nil {
		r.Use(metrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	r.Use(middleware.Access(AccessRules(), deps.Services.Auth))

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		captchaHandler := handlers.NewCaptchaHandler(deps.Services.Captchas)
		captchaHandler.RegisterRoutes(api.Group("/captcha"))

		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		userHandler := handlers.NewUserHandler(deps.Services.Users)

		userGroup := api.Group("/users")
		userGroup.POST("/login", append(loginMiddlewares(deps), authHandler.Login)...)
		userGroup.POST("/register", userHandler.Register)
		userGroup.GET("", userHandler.List)
		userGroup.GET("/:id", userHandler.Get)
		userGroup.PUT("/:id", userHandler.Update)
		userGroup.DELETE("/:id", userHandler.Delete)
	}

	return r
}

func loginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	window := deps.Config.RateLimit.WindowDuration
	if limit <= 0 || window <= 0 {
		return nil
	}

	return []gin.HandlerFunc{
		deps.RateLimiter.Limit(middleware.RateLimitRule{
			Name:   "login",
			Limit:  limit,
			Window: window,
		}),
	}
}
