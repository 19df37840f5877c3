package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/reservoir-dashboard-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/reservoir-dashboard-service/internal/adapter/kafka"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/adapter/storage"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/config"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/observability"
	"github.com/couchcryptid/reservoir-dashboard-service/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Object storage when a base URL is configured, otherwise the local data directory.
	var store source.Store
	if cfg.StorageBaseURL != "" {
		store = storage.NewHTTPStore(cfg.StorageBaseURL, storage.HTTPOptions{
			Timeout:    cfg.StorageTimeout,
			MaxRetries: cfg.StorageMaxRetries,
		}, logger, metrics)
		logger.Info("reading sources from object storage", "base_url", cfg.StorageBaseURL)
	} else {
		store = storage.NewDirStore(cfg.DataDir)
		logger.Info("reading sources from directory", "dir", cfg.DataDir)
	}

	// Alert notices are feature-flagged via KAFKA_ENABLED.
	var publisher dashboard.AlertPublisher
	var writer *kafkaadapter.AlertWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, logger)
		publisher = writer
		logger.Info("alert notices enabled", "topic", cfg.KafkaAlertTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("alert notices disabled")
	}

	loader := source.NewLoader(store, logger, metrics)
	dash := dashboard.New(loader, publisher, cfg.ViewCacheSize, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler, err := dashboard.NewScheduler(ctx, dash, cfg.RefreshSchedule, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, dash, cfg.CORSAllowedOrigins, logger)

	// Start HTTP server. /readyz reports not ready until the first load completes.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial load, then scheduled reloads.
	go func() {
		dash.Reload(ctx)
		if ctx.Err() == nil {
			scheduler.Start()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
