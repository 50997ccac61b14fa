package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkarpenko/fashion-rag-service/internal/bootstrap"
	"github.com/mkarpenko/fashion-rag-service/internal/config"
	"github.com/mkarpenko/fashion-rag-service/internal/observability/logging"
	"github.com/mkarpenko/fashion-rag-service/internal/observability/metrics"
)

const serviceName = "fashion-rag-worker"

const crawlRunTimeout = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger, serviceName)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRefreshRequested(ctx, func(handlerCtx context.Context) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, crawlRunTimeout)
		defer cancel()

		workerMetrics.StartCrawl()
		start := time.Now()

		stats, err := app.IngestUC.IngestCrawled(runCtx)
		workerMetrics.FinishCrawl(serviceName, time.Since(start), stats.Chunks, err)
		if err != nil {
			logger.Error("crawl_run_failed", "error", err)
			return err
		}

		logger.Info("crawl_run_completed",
			"documents", stats.Documents,
			"chunks", stats.Chunks,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
