// Package httpserver exposes the matching, mission and safety services over
// a JSON API.
package httpserver

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/odoyewu/odoyewu/internal/errors"
	"github.com/odoyewu/odoyewu/internal/middleware"
	"github.com/odoyewu/odoyewu/internal/monitoring"
	"github.com/odoyewu/odoyewu/internal/services"
)

// Services are the engines behind the API. All fields are required.
type Services struct {
	Matching  *services.MatchingService
	Hotspots  *services.HotspotService
	Missions  *services.MissionService
	Safety    *services.SafetyService
	Reveal    *services.RevealService
	Messaging *services.MessagingService
	Users     *services.UserService
}

// Options configures the router. Nil optional fields disable the feature.
type Options struct {
	ServiceName    string
	JWTSecret      []byte
	AllowedOrigins []string

	Health      *monitoring.HealthChecker
	HTTPMetrics *monitoring.HTTPMetrics
	RateLimiter *middleware.RateLimitMiddleware
	Logging     *middleware.LoggingConfig
	// Tracing wraps every request in an otelgin span
	Tracing bool
}

type handler struct {
	svc Services
}

// NewRouter builds the gin engine with the full middleware chain
func NewRouter(svc Services, opts Options) *gin.Engine {
	if opts.ServiceName == "" {
		opts.ServiceName = "odoyewu"
	}
	if opts.Logging == nil {
		opts.Logging = middleware.DefaultLoggingConfig()
	}
	if opts.Health == nil {
		opts.Health = monitoring.NewHealthChecker(opts.ServiceName, "")
	}

	r := gin.New()
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(middleware.LoggingMiddleware(opts.Logging))
	r.Use(middleware.ErrorHandler())
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	}
	if opts.HTTPMetrics != nil {
		r.Use(opts.HTTPMetrics.GinMiddleware())
	}

	r.GET("/health", opts.Health.HealthHandler())
	r.GET("/health/live", opts.Health.LivenessHandler())

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(opts.JWTSecret, func(ctx context.Context, userID string) error {
		_, err := svc.Users.GetUser(ctx, userID)
		return err
	}))
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Handler())
	}

	h := &handler{svc: svc}
	h.register(api)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(errors.NewNotFoundError("route"))
	})
	return r
}

func (h *handler) register(api *gin.RouterGroup) {
	matches := api.Group("/matches")
	matches.POST("/location", h.updateLocation)
	matches.GET("/nearby", h.findNearby)
	matches.POST("", h.createMatch)
	matches.GET("", h.listMatches)

	hotspots := api.Group("/hotspots")
	hotspots.GET("", h.hotspots)
	hotspots.GET("/nearby-activity", h.nearbyActivity)

	m := api.Group("/missions")
	m.GET("/daily", h.dailyMissions)
	m.POST("/:id/complete", h.completeMission)
	m.GET("/stats", h.missionStats)
	m.GET("/weekly-preview", h.weeklyPreview)

	safety := api.Group("/safety")
	safety.POST("/blocks/:user_id", h.blockUser)
	safety.DELETE("/blocks/:user_id", h.unblockUser)
	safety.GET("/blocks", h.listBlocked)
	safety.POST("/reports/:user_id", h.reportUser)
	safety.GET("/reports", h.listReports)

	reveal := api.Group("/reveal")
	reveal.POST("/matches/:id", h.reveal)
	reveal.GET("/matches/:id", h.revealStatus)

	chat := api.Group("/chat")
	chat.POST("/matches/:id/messages", h.sendMessage)
	chat.GET("/matches/:id/messages", h.listMessages)

	users := api.Group("/users")
	users.GET("/me", h.me)
	users.PUT("/me", h.updateProfile)
}
