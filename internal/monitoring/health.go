package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	Latency     *int64       `json:"latency_ms,omitempty"`
	LastChecked time.Time    `json:"last_checked"`
	Details     interface{}  `json:"details,omitempty"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status     HealthStatus               `json:"status"`
	Service    string                     `json:"service"`
	Version    string                     `json:"version"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
	System     SystemInfo                 `json:"system"`
}

type SystemInfo struct {
	Goroutines int    `json:"goroutines"`
	CPUCount   int    `json:"cpu_count"`
	GoVersion  string `json:"go_version"`
	HeapBytes  uint64 `json:"heap_alloc_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

// Pinger is anything that can report its own reachability
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type check struct {
	fn       func(ctx context.Context) ComponentHealth
	critical bool
}

// HealthChecker runs registered component checks on demand. A failing
// critical component makes the service unhealthy; a failing optional one
// only degrades it.
type HealthChecker struct {
	mu        sync.RWMutex
	startTime time.Time
	service   string
	version   string
	timeout   time.Duration
	checks    map[string]check
}

func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		service:   service,
		version:   version,
		timeout:   5 * time.Second,
		checks:    make(map[string]check),
	}
}

// RegisterDatabaseCheck pings db and reports pool statistics
func (hc *HealthChecker) RegisterDatabaseCheck(name string, db *sql.DB) {
	hc.register(name, true, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := db.PingContext(ctx)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			return ComponentHealth{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Database connection failed: %v", err),
				Latency: &latency,
			}
		}

		stats := db.Stats()
		status := HealthStatusHealthy
		if latency > 1000 {
			status = HealthStatusDegraded
		}
		return ComponentHealth{
			Status:  status,
			Message: "Database connection successful",
			Latency: &latency,
			Details: map[string]interface{}{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
				"wait_count":       stats.WaitCount,
				"wait_duration":    stats.WaitDuration.String(),
			},
		}
	})
}

// RegisterRedisCheck pings the cache. The cache is optional, so an outage
// degrades rather than fails the service.
func (hc *HealthChecker) RegisterRedisCheck(name string, p Pinger) {
	hc.register(name, false, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := p.HealthCheck(ctx)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			return ComponentHealth{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Redis connection failed: %v", err),
				Latency: &latency,
			}
		}
		status := HealthStatusHealthy
		if latency > 500 {
			status = HealthStatusDegraded
		}
		return ComponentHealth{Status: status, Message: "Redis connection successful", Latency: &latency}
	})
}

// RegisterCustomCheck adds an arbitrary check
func (hc *HealthChecker) RegisterCustomCheck(name string, critical bool, fn func(ctx context.Context) ComponentHealth) {
	hc.register(name, critical, fn)
}

func (hc *HealthChecker) register(name string, critical bool, fn func(ctx context.Context) ComponentHealth) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check{fn: fn, critical: critical}
}

// GetHealth runs every check concurrently and aggregates the result
func (hc *HealthChecker) GetHealth(ctx context.Context) HealthResponse {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	checks := make(map[string]check, len(hc.checks))
	for k, v := range hc.checks {
		checks[k] = v
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	results := make([]ComponentHealth, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, c check) {
			defer wg.Done()
			res := c.fn(ctx)
			res.LastChecked = time.Now().UTC()
			results[i] = res
		}(i, checks[name])
	}
	wg.Wait()

	overall := HealthStatusHealthy
	components := make(map[string]ComponentHealth, len(names))
	for i, name := range names {
		res := results[i]
		components[name] = res
		switch {
		case res.Status == HealthStatusUnhealthy && checks[name].critical:
			overall = HealthStatusUnhealthy
		case res.Status != HealthStatusHealthy && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return HealthResponse{
		Status:     overall,
		Service:    hc.service,
		Version:    hc.version,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(hc.startTime).Round(time.Second).String(),
		Components: components,
		System: SystemInfo{
			Goroutines: runtime.NumGoroutine(),
			CPUCount:   runtime.NumCPU(),
			GoVersion:  runtime.Version(),
			HeapBytes:  mem.HeapAlloc,
			NumGC:      mem.NumGC,
		},
	}
}

// HealthHandler serves the full report; unhealthy maps to 503
func (hc *HealthChecker) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		health := hc.GetHealth(c.Request.Context())
		status := http.StatusOK
		if health.Status == HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
			telemetry.GetContextualLogger(c.Request.Context()).WithFields(map[string]interface{}{
				"operation":  "health_check",
				"components": health.Components,
			}).Warn("Health check failed")
		}
		c.JSON(status, health)
	}
}

// LivenessHandler answers as long as the process serves HTTP
func (hc *HealthChecker) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive", "timestamp": time.Now().UTC()})
	}
}
