package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/odoyewu/odoyewu/internal/telemetry"
)

// CorrelationIDHeader carries the request correlation id in both directions
const CorrelationIDHeader = "X-Correlation-ID"

// LoggingConfig holds the configuration for logging middleware
type LoggingConfig struct {
	SkipPaths     []string
	SlowThreshold time.Duration
}

func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths:     []string{"/health"},
		SlowThreshold: 2 * time.Second,
	}
}

// LoggingMiddleware attaches a correlation id to the request context and
// logs one line per completed request. Skipped paths still get an id.
func LoggingMiddleware(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	skip := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = telemetry.NewCorrelationID()
		}
		c.Header(CorrelationIDHeader, correlationID)
		ctx := telemetry.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if skip[c.Request.URL.Path] {
			return
		}

		duration := time.Since(start)
		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"query":       c.Request.URL.RawQuery,
			"remote_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
			"status":      c.Writer.Status(),
			"size":        c.Writer.Size(),
			"duration_ms": float64(duration.Nanoseconds()) / 1e6,
		}
		if userID := GetUserID(c); userID != "" {
			fields["user_id"] = userID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.Errors()
		}

		entry := telemetry.GetContextualLogger(ctx).WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("HTTP request completed with server error")
		case status >= 400:
			entry.Warn("HTTP request completed with client error")
		case duration > config.SlowThreshold:
			entry.Warn("HTTP request completed (slow)")
		default:
			entry.Info("HTTP request completed")
		}
	}
}
