// Command server exposes the cognitive analysis pipeline over REST.
//
//	@title						cogscreen API
//	@version					1.0
//	@description				Transcript-based cognitive health screening: feature extraction, risk scoring, attribution and comparison.
//	@BasePath					/
//	@schemes					http https
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/cogscreen/internal/app"
	"github.com/ZanzyTHEbar/cogscreen/internal/config"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/ratelimit"
)

// version is set at build time with -ldflags.
var version = "dev"

func main() {
	configFile := flag.String("config", os.Getenv("COGSCREEN_CONFIG"), "config file (default: $HOME/.cogscreen/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(config.New(), *configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	logger := monitoring.NewLoggerWithWriter(os.Stdout, monitoring.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger.Logger)
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *monitoring.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	a, err := app.New(cfg, app.Options{Logger: logger, Metrics: metrics})
	if err != nil {
		return err
	}
	defer a.Close()

	// Redis is optional; the limiter falls back to in-process buckets.
	redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	if redisClient.IsEnabled() {
		a.Health.RegisterService("redis", redisClient.HealthCheck)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, cfg.RateLimit, metrics)
	defer limiter.Close()

	go monitoring.NewRuntimeSampler(metrics, logger, 15*time.Second, 0.9).Run(ctx)

	s := newServer(cfg, a, limiter)
	go s.retention.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(s),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "mode", cfg.Server.Mode, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
