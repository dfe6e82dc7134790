package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-pulse/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-pulse/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-pulse/internal/adapters/upstream"
	"github.com/comitanigiacomo/kanso-pulse/internal/config"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/services"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

// @title Kanso Pulse API
// @version 1.0
// @description Weekly health dashboards (water, calories, exercise) built on top of the entries backend.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	startTime := time.Now()

	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		logger.New("info", "development").Fatalf("Critical: %v", err)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, rdb := buildRouter(cfg, log, startTime)
	if rdb != nil {
		defer rdb.Close()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.Upstream.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infof("Kanso Pulse running on http://localhost:%s (backend %s)", cfg.App.Port, cfg.Upstream.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("Stop signal received. Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Forced shutdown error: %v", err)
		return
	}

	log.Infof("Server stopped gracefully.")
}

// buildRouter wires adapters, service and handlers. Redis is optional: when it
// is disabled or unreachable the service runs uncached and without rate limits.
func buildRouter(cfg *config.Config, log logger.Logger, startTime time.Time) (*gin.Engine, *redis.Client) {
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)

	opts := []services.WeeklyOption{services.WithLocation(cfg.App.DefaultTimezone)}

	var rdb *redis.Client
	var weeklyCache domain.WeeklyCache
	if cfg.Redis.Enabled {
		var err error
		rdb, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.WithError(err).Warnf("Redis unavailable, continuing without cache")
			rdb = nil
		} else {
			log.Infof("Redis connected, caching weekly views for %s", cfg.Redis.CacheTTL)
			weeklyCache = cache.NewRedisWeeklyCache(rdb, cfg.Redis.CacheTTL)
			opts = append(opts, services.WithCache(weeklyCache))
		}
	}

	weeklyService := services.NewWeeklyService(client, log.WithField("component", "weekly_service"), opts...)
	weeklyHandler := adapterHTTP.NewWeeklyHandler(weeklyService, cfg.App.DefaultTimezone, log.WithField("component", "weekly_handler"))

	userService := services.NewUserService(client, weeklyCache, log.WithField("component", "user_service"))
	userHandler := adapterHTTP.NewUserHandler(userService, log.WithField("component", "user_handler"))

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		WeeklyHandler: weeklyHandler,
		UserHandler:   userHandler,
		Upstream:      client,
		Redis:         rdb,
		Config:        cfg,
		Logger:        log.WithField("component", "http"),
		StartTime:     startTime,
	})
	return router, rdb
}
