package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ZanzyTHEbar/cogscreen/docs"
	"github.com/ZanzyTHEbar/cogscreen/internal/app"
	"github.com/ZanzyTHEbar/cogscreen/internal/config"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/middleware"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/privacy"
	"github.com/ZanzyTHEbar/cogscreen/internal/ratelimit"
	"github.com/ZanzyTHEbar/cogscreen/internal/security"
)

// server holds the dependencies of the HTTP handlers.
type server struct {
	cfg         *config.Config
	app         *app.App
	security    *security.Middleware
	compression *middleware.CompressionMiddleware
	limiter     *ratelimit.RateLimiter
	retention   *privacy.Service
}

func newServer(cfg *config.Config, a *app.App, limiter *ratelimit.RateLimiter) *server {
	return &server{
		cfg:         cfg,
		app:         a,
		security:    security.NewMiddleware(cfg.Security),
		compression: middleware.NewCompressionMiddleware(cfg.Compression),
		limiter:     limiter,
		retention:   privacy.NewService(a.Service, cfg.Privacy, a.Logger),
	}
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()

	// Recovery and monitoring first so they see every request
	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(s.app.Metrics, s.app.Logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.app.Logger, s.security.Config().MaxBodyBytes))

	r.Use(s.security.CORS())
	r.Use(s.security.SecurityHeaders())
	r.Use(s.compression.Handler())
	r.Use(s.security.LimitBody())
	r.Use(s.security.ValidateContentType())
	r.Use(s.security.RequestTimeout())
	r.Use(apperrors.ErrorHandler())

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	rl := s.limiter.Config()
	api := r.Group("/api/v1")
	api.Use(s.limiter.IPRateLimitMiddleware())
	{
		scoped := s.limiter.EndpointRateLimitMiddleware("analyze", rl.AnalyzeLimitPerMin)
		api.POST("/features", scoped, s.handleFeatures)
		api.POST("/score", scoped, s.handleScore)
		api.POST("/attribute", scoped, s.handleAttribute)
		api.POST("/analyze", scoped, s.handleAnalyze)
		api.POST("/analyze/batch", s.limiter.EndpointRateLimitMiddleware("batch", rl.BatchLimitPerMin), s.handleBatch)

		api.GET("/results", s.handleListResults)
		api.GET("/results/:id", s.handleGetResult)
		api.DELETE("/results/:id", s.handleDeleteResult)
		api.POST("/compare", s.handleCompare)

		api.GET("/privacy", s.handlePrivacy)
		api.GET("/ratelimit", s.limiter.HandleRateLimitStatus)
	}

	return r
}
