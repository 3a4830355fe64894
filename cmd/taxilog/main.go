package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"taxilog/internal/cli"
	apphttp "taxilog/internal/http"
	applog "taxilog/internal/log"
	"taxilog/internal/telemetry"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	res := cli.InitBackend(context.Background(), logger, cfg)
	rec := telemetry.New()
	engine := cli.NewEngine(cfg, res, logger, rec)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Telemetry:          rec,
	}, engine)
	if err != nil {
		logger.Error("Failed to configure HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err, applog.FieldOperation, applog.OpShutdown)
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", "error", err, applog.FieldBackend, cfg.DataBackend)
		}
	})

	logger.Info("Starting taxilog server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", cfg.Timezone,
		"default_period", string(engine.DefaultPeriod()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
