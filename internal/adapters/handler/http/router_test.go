package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-pulse/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-pulse/internal/config"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/services"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig(env string, origins ...string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: env, AllowedOrigins: origins, DefaultTimezone: time.UTC},
		Limits: config.LimitsConfig{
			RateLimit:  100,
			RateWindow: time.Minute,
		},
	}
}

func setupRouter(cfg *config.Config, upstream Pinger, rdb *redis.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := services.NewWeeklyService(new(MockEntrySource), logger.Discard())
	return NewRouter(RouterDependencies{
		WeeklyHandler: NewWeeklyHandler(svc, cfg.App.DefaultTimezone, logger.Discard()),
		Upstream:      upstream,
		Redis:         rdb,
		Config:        cfg,
		Logger:        logger.Discard(),
		StartTime:     time.Now(),
	})
}

func TestRouter_Health(t *testing.T) {
	t.Run("Healthy without Redis", func(t *testing.T) {
		router := setupRouter(testConfig("development"), pingFunc(func(context.Context) error { return nil }), nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "connected", body["upstream"])
		assert.Equal(t, "disabled", body["redis"])
		assert.NotEmpty(t, body["uptime"])
	})

	t.Run("Backend down degrades to 503", func(t *testing.T) {
		router := setupRouter(testConfig("development"), pingFunc(func(context.Context) error { return errors.New("refused") }), nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"upstream":"unreachable"`)
	})
}

func TestRouter_Middleware(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })

	t.Run("Every response carries a request id", func(t *testing.T) {
		router := setupRouter(testConfig("development"), ok, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("Development allows any origin", func(t *testing.T) {
		router := setupRouter(testConfig("development"), ok, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		router.ServeHTTP(w, req)

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Production only allows configured origins", func(t *testing.T) {
		router := setupRouter(testConfig("production", "https://pulse.kanso.app"), ok, nil)

		allowed := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://pulse.kanso.app")
		router.ServeHTTP(allowed, req)
		assert.Equal(t, "https://pulse.kanso.app", allowed.Header().Get("Access-Control-Allow-Origin"))

		denied := httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		router.ServeHTTP(denied, req)
		assert.Equal(t, http.StatusForbidden, denied.Code)
	})

	t.Run("Unknown routes return JSON 404", func(t *testing.T) {
		router := setupRouter(testConfig("development"), ok, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/v2/nothing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "/api/v2/nothing")
	})

	t.Run("Swagger document is served", func(t *testing.T) {
		router := setupRouter(testConfig("development"), ok, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/users/{user_id}/weekly/{metric}")
	})
}
