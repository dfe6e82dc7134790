package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingUpstream = errors.New("UPSTREAM_BASE_URL is required")

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Limits   LimitsConfig
}

type AppConfig struct {
	Port            string
	Env             string
	LogLevel        string
	DefaultTimezone *time.Location
	AllowedOrigins  []string
}

type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type LimitsConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

// Load reads an optional .env file from path (empty means ".env") and then the
// process environment. Variables already set in the environment win.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var errs []error

	tz, err := time.LoadLocation(getEnv("DEFAULT_TIMEZONE", "UTC"))
	if err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}

	cfg := &Config{
		App: AppConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			DefaultTimezone: tz,
			AllowedOrigins:  splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/"),
			Timeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second, &errs),
		},
		Redis: RedisConfig{
			Enabled:  getBool("REDIS_ENABLED", true, &errs),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0, &errs),
			CacheTTL: getDuration("CACHE_TTL", 5*time.Minute, &errs),
		},
		Limits: LimitsConfig{
			RateLimit:  getInt("RATE_LIMIT", 100, &errs),
			RateWindow: getDuration("RATE_WINDOW", time.Minute, &errs),
		},
	}

	if cfg.Upstream.BaseURL == "" {
		errs = append(errs, ErrMissingUpstream)
	} else if u, err := url.Parse(cfg.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("UPSTREAM_BASE_URL: invalid url %q", cfg.Upstream.BaseURL))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
