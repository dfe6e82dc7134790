package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/comitanigiacomo/kanso-pulse/docs"
	"github.com/comitanigiacomo/kanso-pulse/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-pulse/internal/config"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDependencies struct {
	WeeklyHandler *WeeklyHandler
	UserHandler   *UserHandler
	Upstream      Pinger
	Redis         *redis.Client
	Config        *config.Config
	Logger        logger.Logger
	StartTime     time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))

	if corsConfig, ok := newCORSConfig(deps.Config); ok {
		router.Use(cors.New(corsConfig))
	}

	if deps.Redis != nil {
		router.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.Config.Limits.RateLimit, deps.Config.Limits.RateWindow, deps.Logger))
	}

	router.GET("/health", healthHandler(deps))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	apiV1 := router.Group("/api/v1")
	deps.WeeklyHandler.RegisterRoutes(apiV1)
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(apiV1)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "route " + c.Request.URL.Path + " not found"})
	})

	return router
}

// newCORSConfig allows every origin outside production. In production only the
// configured origins are allowed, and with none configured CORS stays off.
func newCORSConfig(cfg *config.Config) (cors.Config, bool) {
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction() {
		if len(cfg.App.AllowedOrigins) == 0 {
			return corsConfig, false
		}
		corsConfig.AllowOrigins = cfg.App.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization", middleware.RequestIDHeader)
	corsConfig.AddExposeHeaders(middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset")
	return corsConfig, true
}

// healthHandler answers 503 when the backend or an enabled Redis is unreachable.
func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		upstreamStatus := "connected"
		if deps.Upstream == nil || deps.Upstream.Ping(ctx) != nil {
			upstreamStatus = "unreachable"
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		status, statusCode := "ok", http.StatusOK
		if upstreamStatus == "unreachable" || redisStatus == "unreachable" {
			status, statusCode = "degraded", http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"upstream": upstreamStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
