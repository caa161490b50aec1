package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/cache"
	"github.com/odoyewu/odoyewu/internal/config"
	"github.com/odoyewu/odoyewu/internal/database"
	"github.com/odoyewu/odoyewu/internal/httpserver"
	"github.com/odoyewu/odoyewu/internal/middleware"
	"github.com/odoyewu/odoyewu/internal/monitoring"
	"github.com/odoyewu/odoyewu/internal/services"
	"github.com/odoyewu/odoyewu/internal/telemetry"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "token: %v\n", err)
			os.Exit(2)
		}
		return
	}

	if err := telemetry.InitGlobalLogger(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "user" {
		if err := runUserCommand(ctx, os.Args[2:], cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "user: %v\n", err)
			stop()
			os.Exit(2)
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		telemetry.GetContextualLogger(ctx).WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.GetContextualLogger(ctx).WithFields(map[string]interface{}{
		"service":     cfg.Telemetry.ServiceName,
		"environment": cfg.Environment,
		"operation":   "startup",
	})

	shutdownOtel, err := telemetry.InitializeOpenTelemetry(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer shutdownOtel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	poolMetrics, err := monitoring.RegisterPoolMetrics(nil, db.DB)
	if err != nil {
		return err
	}
	defer func() { _ = poolMetrics.Unregister() }()

	store, err := monitoring.NewTracedStore(database.NewPostgresStore(db), nil, nil)
	if err != nil {
		return err
	}

	health := monitoring.NewHealthChecker(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	health.RegisterDatabaseCheck("database", db.DB)
	health.RegisterCustomCheck("schema", false, schemaCheck(db.SchemaVersion))

	var hotspotCache services.JSONCache
	if cfg.Redis.Enabled {
		redisService, err := cache.NewRedisService(ctx, cfg.Redis, cfg.Telemetry.Enabled)
		if err != nil {
			// hotspots are recomputed on every request without a cache
			logger.WithError(err).Warn("Redis unavailable, continuing without cache")
		} else {
			defer redisService.Close()
			// start from an empty cache namespace
			if err := redisService.InvalidateAll(ctx); err != nil {
				logger.WithError(err).Warn("Failed to clear cache")
			}
			hotspotCache = redisService
			health.RegisterRedisCheck("redis", redisService)
		}
	}

	router, limiter, err := newRouter(cfg, store, hotspotCache, health)
	if err != nil {
		return err
	}

	go sweepLimiter(ctx, limiter)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTP.Addr).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// newRouter wires the services over store. hotspotCache may be nil.
func newRouter(cfg *config.Config, store database.Store, hotspotCache services.JSONCache, health *monitoring.HealthChecker) (*gin.Engine, *middleware.RateLimitMiddleware, error) {
	domainMetrics, err := monitoring.NewDomainMetrics(nil)
	if err != nil {
		return nil, nil, err
	}
	httpMetrics, err := monitoring.NewHTTPMetrics(nil)
	if err != nil {
		return nil, nil, err
	}
	recorder := services.WithRecorder(domainMetrics)

	svc := httpserver.Services{
		Matching:  services.NewMatchingService(store, cfg.Matching, recorder),
		Hotspots:  services.NewHotspotService(store, hotspotCache, cfg.Matching),
		Missions:  services.NewMissionService(store, nil, recorder),
		Safety:    services.NewSafetyService(store),
		Reveal:    services.NewRevealService(store),
		Messaging: services.NewMessagingService(store),
		Users:     services.NewUserService(store),
	}

	limiter := middleware.NewRateLimitMiddleware(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	gin.SetMode(cfg.HTTP.Mode)
	router := httpserver.NewRouter(svc, httpserver.Options{
		ServiceName:    cfg.Telemetry.ServiceName,
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Health:         health,
		HTTPMetrics:    httpMetrics,
		RateLimiter:    limiter,
		Tracing:        cfg.Telemetry.Enabled,
	})
	return router, limiter, nil
}

// schemaCheck reports the applied migration version
func schemaCheck(version func(ctx context.Context) (int64, error)) func(ctx context.Context) monitoring.ComponentHealth {
	return func(ctx context.Context) monitoring.ComponentHealth {
		v, err := version(ctx)
		if err != nil {
			return monitoring.ComponentHealth{
				Status:  monitoring.HealthStatusUnhealthy,
				Message: fmt.Sprintf("Schema version unavailable: %v", err),
			}
		}
		return monitoring.ComponentHealth{
			Status:  monitoring.HealthStatusHealthy,
			Message: "Schema migrated",
			Details: map[string]interface{}{"version": v},
		}
	}
}

func sweepLimiter(ctx context.Context, limiter *middleware.RateLimitMiddleware) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				telemetry.GetContextualLogger(ctx).WithField("removed", n).Debug("Swept idle rate limiters")
			}
		}
	}
}
