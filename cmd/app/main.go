package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jasmnyeh/staircase-fairy/internal/catalog"
	"github.com/jasmnyeh/staircase-fairy/internal/config"
	"github.com/jasmnyeh/staircase-fairy/internal/db"
	"github.com/jasmnyeh/staircase-fairy/internal/geo"
	httpServer "github.com/jasmnyeh/staircase-fairy/internal/http"
	"github.com/jasmnyeh/staircase-fairy/internal/http/handlers"
	"github.com/jasmnyeh/staircase-fairy/internal/http/middleware"
	"github.com/jasmnyeh/staircase-fairy/internal/logger"
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
	"github.com/jasmnyeh/staircase-fairy/internal/service"
	"github.com/jasmnyeh/staircase-fairy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT()

	cat, err := catalog.Load(cfg.LocationsFile)
	if err != nil {
		logger.Fatal("failed to load location catalog", "file", cfg.LocationsFile, "error", err)
	}
	logger.Info("location catalog loaded", "locations", cat.Len())

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is not set")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal("failed to ping redis", "error", err)
		}
		cancel()
	}
	defer rdb.Close()
	middleware.SetRedisClient(rdb)

	userRepo := repository.NewUserRepository(dbPool)
	scanRepo := repository.NewScanRepository(dbPool)
	progressionRepo := repository.NewProgressionRepository(dbPool)
	pendingRepo := repository.NewPendingTriggerRepository(rdb, cfg.PendingTriggerTTL)

	hub := ws.NewHub()

	var resolver service.PositionResolver
	if cfg.PositionMode == config.PositionModeNetwork {
		resolver = geo.NewProviderClient(cfg.GeolocationURL, cfg.GeolocationAPIKey, cfg.GeolocationTimeout)
	}

	scanService := service.NewScanService(
		userRepo,
		scanRepo,
		pendingRepo,
		cat,
		resolver,
		geo.Geofence{RadiusM: cfg.GeofenceRadiusM},
		cfg.ScanCooldown,
		cfg.PositionMode,
		service.MultiNotifier{service.LogNotifier{}, hub},
	)
	leaderboardService := service.NewLeaderboardService(progressionRepo)
	impactService := service.NewImpactService(scanRepo)

	h := handlers.NewHandler(scanService, leaderboardService, impactService, userRepo, progressionRepo, scanRepo)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, hub, dbPool, rdb, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "position_mode", string(cfg.PositionMode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
