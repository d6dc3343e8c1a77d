package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aldergrove/cms-auth/internal/core/port"
	"github.com/aldergrove/cms-auth/internal/infra/config"
	"github.com/aldergrove/cms-auth/internal/transport/http/handlers"
	"github.com/aldergrove/cms-auth/internal/transport/http/middleware"
	"github.com/aldergrove/cms-auth/internal/transport/http/session"
	"github.com/aldergrove/cms-auth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Validator *usecase.TokenValidator
	Guard     *usecase.LoginGuard
	TwoFactor *usecase.TwoFactorService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Sessions    *session.Store
	Services    ServiceSet
	Events      port.EventPublisher
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.Ping))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	whitelist := middleware.IPWhitelist(deps.Config.Firewall, deps.Logger)

	var loginLimit gin.HandlerFunc
	if deps.RateLimiter != nil {
		loginLimit = deps.RateLimiter.Limit(middleware.RateLimitRule{
			Name:       "login",
			Limit:      deps.Config.RateLimit.LoginMaxAttempts,
			Window:     deps.Config.RateLimit.WindowDuration,
			Identifier: middleware.ClientIPIdentifier(),
		})
	}

	// Browser facing auth routes: session cookie, whitelist, throttle.
	auth := r.Group("/auth")
	auth.Use(whitelist)
	auth.Use(deps.Sessions.Middleware())

	authHandler := handlers.NewAuthHandler(deps.Services.Guard, deps.Config.TwoFactor.Enabled, deps.Logger)
	if loginLimit != nil {
		authHandler.RegisterRoutes(auth, loginLimit)
	} else {
		authHandler.RegisterRoutes(auth)
	}

	if deps.Config.TwoFactor.Enabled && deps.Services.TwoFactor != nil {
		twoFactorHandler := handlers.NewTwoFactorHandler(deps.Services.TwoFactor, deps.Logger)
		if loginLimit != nil {
			twoFactorHandler.RegisterRoutes(auth, loginLimit)
		} else {
			twoFactorHandler.RegisterRoutes(auth)
		}
	}

	// Cross-domain API routes guarded by token validation.
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.Services.Validator, middleware.JWTAuthOptions{
		Events:  deps.Events,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}))

	handlers.NewTokenHandler().RegisterRoutes(api)

	return r
}
