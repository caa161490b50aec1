// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

type HTTPConfig struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Mode            string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MatchingConfig tunes the geo engine. Defaults mirror the product rules.
type MatchingConfig struct {
	DefaultRadiusMiles  float64
	ActiveWindow        time.Duration
	HotspotWindow       time.Duration
	HotspotGridSize     float64
	HotspotMinCount     int
	HotspotCacheTTL     time.Duration
	ActivityRadiusMiles float64
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Config is the full application configuration
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Database    database.Config
	Redis       RedisConfig
	Auth        AuthConfig
	Log         telemetry.LogConfig
	Telemetry   telemetry.Config
	Matching    MatchingConfig
	RateLimit   RateLimitConfig
}

// Load reads an optional .env file and then the process environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// a missing .env is normal outside local development
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only
func FromEnv() (*Config, error) {
	var errs []string
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	cfg := &Config{Environment: envOr("ENVIRONMENT", "development")}

	cfg.HTTP = HTTPConfig{
		Addr:           envOr("HTTP_ADDR", ":8080"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		Mode:           envOr("GIN_MODE", "release"),
	}
	var err error
	cfg.HTTP.ShutdownTimeout, err = envDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second)
	collect(err)

	cfg.Database = database.Config{
		Host:     envOr("DB_HOST", "localhost"),
		Port:     envOr("DB_PORT", "5432"),
		User:     envOr("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   envOr("DB_NAME", "odoyewu"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
		URL:      os.Getenv("DATABASE_URL"),
	}
	cfg.Database.MaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 25)
	collect(err)
	cfg.Database.MaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", 5)
	collect(err)
	cfg.Database.ConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	collect(err)
	cfg.Database.Instrumented, err = envBool("DB_INSTRUMENTED", true)
	collect(err)

	cfg.Redis = RedisConfig{
		Host:     envOr("REDIS_HOST", "localhost"),
		Port:     envOr("REDIS_PORT", "6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
	cfg.Redis.Enabled, err = envBool("REDIS_ENABLED", false)
	collect(err)
	cfg.Redis.DB, err = envInt("REDIS_DB", 0)
	collect(err)
	cfg.Redis.PoolSize, err = envInt("REDIS_POOL_SIZE", 10)
	collect(err)

	cfg.Auth = AuthConfig{JWTSecret: os.Getenv("SECRET_KEY")}
	cfg.Auth.TokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 30*time.Minute)
	collect(err)

	cfg.Log = *telemetry.DefaultLogConfig()
	cfg.Log.Level = telemetry.LogLevel(strings.ToLower(envOr("LOG_LEVEL", "info")))
	format := "text"
	if cfg.IsProduction() {
		format = "json"
	}
	cfg.Log.Format = envOr("LOG_FORMAT", format)
	if file := os.Getenv("LOG_FILE"); file != "" {
		cfg.Log.Output = file
		cfg.Log.Rotation = true
	}

	cfg.Telemetry = *telemetry.DefaultConfig()
	cfg.Telemetry.ServiceName = envOr("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.ServiceVersion = envOr("OTEL_SERVICE_VERSION", cfg.Telemetry.ServiceVersion)
	cfg.Telemetry.Environment = cfg.Environment
	cfg.Telemetry.OTLPEndpoint = envOr("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.Enabled, err = envBool("OTEL_ENABLED", false)
	collect(err)
	cfg.Telemetry.SampleRatio, err = envFloat("OTEL_SAMPLE_RATIO", 1)
	collect(err)

	cfg.Matching.DefaultRadiusMiles, err = envFloat("NEARBY_DEFAULT_RADIUS_MILES", 50)
	collect(err)
	cfg.Matching.ActiveWindow, err = envDuration("NEARBY_ACTIVE_WINDOW", 72*time.Hour)
	collect(err)
	cfg.Matching.HotspotWindow, err = envDuration("HOTSPOT_ACTIVE_WINDOW", 24*time.Hour)
	collect(err)
	cfg.Matching.HotspotGridSize, err = envFloat("HOTSPOT_GRID_SIZE", 0.1)
	collect(err)
	cfg.Matching.HotspotMinCount, err = envInt("HOTSPOT_MIN_COUNT", 3)
	collect(err)
	cfg.Matching.HotspotCacheTTL, err = envDuration("HOTSPOT_CACHE_TTL", time.Minute)
	collect(err)
	cfg.Matching.ActivityRadiusMiles, err = envFloat("ACTIVITY_DEFAULT_RADIUS_MILES", 10)
	collect(err)

	cfg.RateLimit.RequestsPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", 60)
	collect(err)
	cfg.RateLimit.Burst, err = envInt("RATE_LIMIT_BURST", 20)
	collect(err)

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the service misbehave at runtime
func (c *Config) Validate() error {
	switch {
	case c.Auth.JWTSecret == "":
		return fmt.Errorf("SECRET_KEY is required")
	case c.IsProduction() && c.HTTP.Mode == "debug":
		return fmt.Errorf("GIN_MODE=debug is not allowed in production")
	case c.Database.URL == "" && c.Database.DBName == "":
		return fmt.Errorf("DB_NAME or DATABASE_URL is required")
	case c.Matching.DefaultRadiusMiles <= 0:
		return fmt.Errorf("NEARBY_DEFAULT_RADIUS_MILES must be positive")
	case c.Matching.ActiveWindow <= 0 || c.Matching.HotspotWindow <= 0:
		return fmt.Errorf("activity windows must be positive")
	case c.Matching.HotspotGridSize <= 0:
		return fmt.Errorf("HOTSPOT_GRID_SIZE must be positive")
	case c.Matching.HotspotMinCount < 1:
		return fmt.Errorf("HOTSPOT_MIN_COUNT must be at least 1")
	case c.RateLimit.RequestsPerMinute <= 0:
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
