package http

import (
	"os"
	"strconv"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/http/handlers"
	"github.com/jasmnyeh/staircase-fairy/internal/http/middleware"
	"github.com/jasmnyeh/staircase-fairy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// RegisterRoutes wires the API surface: event ingestion, query endpoints,
// the live feed and health checks.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, hub *ws.Hub, db *pgxpool.Pool, rdb *redis.Client, version string) {
	healthHandler := handlers.NewHealthHandler(db, rdb, version)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	// Live scan feed
	r.GET("/ws", h.WS(hub))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Query-API token
	v1.POST("/auth", h.Auth)

	// Inbound engine events (transport boundary)
	v1.POST("/events/scan", h.PostScan)
	v1.POST("/events/location", h.PostLocation)
	v1.POST("/events/consent", h.PostConsent)

	// Per-user queries
	v1.GET("/progress", middleware.JWT(), h.MyProgress)
	v1.GET("/leaderboard/me", middleware.JWT(), h.GetMyRank)
	v1.GET("/impact/me", middleware.JWT(), h.GetMyImpact)

	// Public queries
	v1.GET("/leaderboard", h.GetLeaderboard)
	v1.GET("/impact", h.GetImpact)

	// Admin
	v1.POST("/admin/leaderboard/recompute", middleware.JWT(), h.RecomputeLeaderboard)
}
