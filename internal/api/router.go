package api

import (
	"time"

	"food-co2-estimator/internal/api/handlers/estimate"
	"food-co2-estimator/internal/api/handlers/health"
	"food-co2-estimator/internal/api/middleware"
	"food-co2-estimator/internal/infrastructure/config"
	"food-co2-estimator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由使用的服務
type Dependencies struct {
	Estimator    estimate.Runner
	DB           health.Pinger
	Queue        health.QueueReporter
	CacheBackend string
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RequestContext())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	router.NoRoute(middleware.NoRoute)

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg.App.Version, deps.DB, deps.Queue, deps.CacheBackend)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Handler())
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		estimateHandler := estimate.NewHandler(deps.Estimator, cfg.Estimator.NegligibleThreshold, cfg.App.Debug)
		api.POST("/estimate", estimateHandler.HandleEstimate)
		api.GET("/estimate", estimateHandler.HandleCalculate)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.String("cache_backend", deps.CacheBackend),
	)

	return router
}
