package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/middleware"
	"github.com/sliea/antennadesk/internal/models"
	"github.com/sliea/antennadesk/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log           *logrus.Logger
	DB            Pinger
	Schema        SchemaChecker
	Hub           *ws.Hub
	Requests      RequestService
	Equipment     EquipmentLookup
	Verifier      middleware.TokenVerifier
	CORSOrigins   []string
	Version       string
	SchemaVersion int64
}

// Router-level limits.
const (
	maxBodySize = 1 << 20 // 1 MB
	wsRoute     = "/api/v1/ws"
)

// Limiter settings. Handshakes are limited separately since each one
// holds a connection for its lifetime.
var (
	ipLimit        = middleware.LimitConfig{Name: "ip", Rate: 50, Burst: 100, Key: middleware.ByClientIP}
	principalLimit = middleware.LimitConfig{Name: "principal", Rate: 20, Burst: 40, Key: middleware.ByPrincipal}
	handshakeLimit = middleware.LimitConfig{Name: "handshake", Rate: 1, Burst: 5, Key: middleware.ByClientIP}
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewLimiter(ctx, ipLimit).Handler())
	r.Use(middleware.Instrument(wsRoute))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	var hubStats HubStats
	if deps.Hub != nil {
		hubStats = deps.Hub
	}

	health := NewHealthHandler(deps.DB, deps.Schema, hubStats, log, deps.Version, deps.SchemaVersion)
	requests := NewRequestHandler(deps.Requests, log)
	equipment := NewEquipmentHandler(deps.Equipment, log)
	stats := NewStatsHandler(deps.Requests, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// The WebSocket endpoint verifies its token before the upgrade.
	api.GET("/ws",
		middleware.NewLimiter(ctx, handshakeLimit).Handler(),
		wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.Verifier))

	authed := api.Group("",
		middleware.AuthMiddleware(deps.Verifier, log),
		middleware.NewLimiter(ctx, principalLimit).Handler())
	staff := authed.Group("", middleware.RequireRole(models.RoleAdmin))

	// Requests.
	authed.POST("/requests", requests.Create)
	authed.GET("/requests/:id", requests.Get)
	staff.GET("/requests", requests.List)
	staff.PUT("/requests/:id", requests.Update)
	staff.PATCH("/requests/:id/status", requests.SetStatus)
	staff.DELETE("/requests/:id", requests.Delete)

	// Per-client views.
	authed.GET("/clients/:clientId/requests", requests.ByClient)
	authed.GET("/clients/:clientId/requests/pending", requests.PendingForClient)

	// Stats.
	staff.GET("/stats/requests", stats.GetStats)

	// Equipment.
	authed.GET("/equipment/:id", equipment.Get)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
