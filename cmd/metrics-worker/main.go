package main

import (
	"context"
	"errors"
	"os"
	"time"

	"taxilog/internal/amqp"
	"taxilog/internal/cli"
	applog "taxilog/internal/log"
	"taxilog/internal/telemetry"
	"taxilog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)

	logger.Info("Starting metrics-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the metrics worker")
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	defer res.Close()

	engine := cli.NewEngine(cfg, res, logger, telemetry.New())
	metricsWorker := worker.NewMetricsWorker(engine, logger)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err, applog.FieldOperation, applog.OpShutdown)
		}
	})

	logger.Info("Consuming metrics requests",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		applog.FieldBackend, cfg.DataBackend)

	if err := amqpClient.Run(ctx, metricsWorker.HandleMetricsRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Metrics worker stopped")
}
