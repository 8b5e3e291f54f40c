package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lingomarket/lingomarket-api/api/swagger"
	"github.com/lingomarket/lingomarket-api/internal/handler"
	"github.com/lingomarket/lingomarket-api/internal/middleware"
	"github.com/lingomarket/lingomarket-api/internal/router"
	"github.com/lingomarket/lingomarket-api/internal/service"
	"github.com/lingomarket/lingomarket-api/pkg/cache"
	"github.com/lingomarket/lingomarket-api/pkg/config"
	"github.com/lingomarket/lingomarket-api/pkg/database"
	"github.com/lingomarket/lingomarket-api/pkg/logger"
	corsmiddleware "github.com/lingomarket/lingomarket-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lingomarket/lingomarket-api/pkg/middleware/requestid"
)

// @title LingoMarket API
// @version 1.0.0
// @description Language trainer marketplace API
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, discovery cache disabled", "error", err)
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		start := time.Now()
		err := db.PingContext(c.Request.Context())
		metrics.ObserveDBQuery("ping", time.Since(start))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if err := router.RegisterRoutes(r, router.Dependencies{
		Config:  cfg,
		Logger:  logr,
		DB:      db,
		Redis:   redisClient,
		Metrics: metrics,
	}); err != nil {
		logr.Sugar().Fatalw("failed to register routes", "error", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
