package monitoring

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName    = "github.com/odoyewu/odoyewu/internal/monitoring"
	instrumentationVersion = "1.0.0"
)

// DomainMetrics records matching and progression events. It satisfies
// services.Recorder.
type DomainMetrics struct {
	matchesCreated    metric.Int64Counter
	missionsCompleted metric.Int64Counter
	xpAwarded         metric.Int64Counter
	levelUps          metric.Int64Counter
	nearbyResults     metric.Int64Histogram
}

// NewDomainMetrics registers instruments on meter, or on the global meter
// provider when meter is nil
func NewDomainMetrics(meter metric.Meter) (*DomainMetrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))
	}

	matchesCreated, err := meter.Int64Counter(
		"matches_created_total",
		metric.WithDescription("Number of new matches"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create matches_created_total counter: %w", err)
	}

	missionsCompleted, err := meter.Int64Counter(
		"missions_completed_total",
		metric.WithDescription("Number of completed missions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create missions_completed_total counter: %w", err)
	}

	xpAwarded, err := meter.Int64Counter(
		"xp_awarded_total",
		metric.WithDescription("Experience points granted for missions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create xp_awarded_total counter: %w", err)
	}

	levelUps, err := meter.Int64Counter(
		"level_ups_total",
		metric.WithDescription("Number of mission completions that raised a level"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create level_ups_total counter: %w", err)
	}

	nearbyResults, err := meter.Int64Histogram(
		"nearby_search_results",
		metric.WithDescription("Candidates returned per nearby search"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250, 500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create nearby_search_results histogram: %w", err)
	}

	return &DomainMetrics{
		matchesCreated:    matchesCreated,
		missionsCompleted: missionsCompleted,
		xpAwarded:         xpAwarded,
		levelUps:          levelUps,
		nearbyResults:     nearbyResults,
	}, nil
}

func (m *DomainMetrics) MatchCreated(ctx context.Context) {
	m.matchesCreated.Add(ctx, 1)
}

func (m *DomainMetrics) MissionCompleted(ctx context.Context, xp int, leveledUp bool) {
	m.missionsCompleted.Add(ctx, 1)
	m.xpAwarded.Add(ctx, int64(xp))
	if leveledUp {
		m.levelUps.Add(ctx, 1)
	}
}

func (m *DomainMetrics) NearbySearched(ctx context.Context, results int) {
	m.nearbyResults.Record(ctx, int64(results))
}

// HTTPMetrics counts requests per route. Spans come from otelgin.
type HTTPMetrics struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	activeRequests  metric.Int64UpDownCounter
}

func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))
	}

	requestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests counter: %w", err)
	}

	return &HTTPMetrics{
		requestsTotal:   requestsTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// GinMiddleware records one observation per request labelled by route
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.activeRequests.Add(ctx, 1)
		defer m.activeRequests.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		m.requestsTotal.Add(ctx, 1, attrs)
		m.requestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
