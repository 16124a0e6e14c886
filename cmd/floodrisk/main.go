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
	"github.com/couchcryptid/storm-flood-risk/internal/adapter/elevation"
	httpadapter "github.com/couchcryptid/storm-flood-risk/internal/adapter/http"
	"github.com/couchcryptid/storm-flood-risk/internal/adapter/hydrology"
	kafkaadapter "github.com/couchcryptid/storm-flood-risk/internal/adapter/kafka"
	"github.com/couchcryptid/storm-flood-risk/internal/calibration"
	"github.com/couchcryptid/storm-flood-risk/internal/config"
	"github.com/couchcryptid/storm-flood-risk/internal/domain"
	"github.com/couchcryptid/storm-flood-risk/internal/observability"
	"github.com/couchcryptid/storm-flood-risk/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", "storm-flood-risk")
	metrics := observability.NewMetrics()

	client := elevation.NewClient(cfg.ElevationURL, cfg.ElevationTimeout, metrics, logger)
	elevationProvider := elevation.NewCachedProvider(client, cfg.ElevationCacheSize, metrics)
	logger.Info("elevation provider configured", "url", cfg.ElevationURL, "cache_size", cfg.ElevationCacheSize)

	// Hydrology is feature-flagged via HYDROLOGY_ENABLED / HYDROLOGY_URL.
	var hydrologyProvider domain.HydrologyProvider
	if cfg.HydrologyEnabled {
		hydrologyProvider = hydrology.NewClient(cfg.HydrologyURL, cfg.ElevationTimeout, metrics, logger)
		logger.Info("hydrology enabled", "url", cfg.HydrologyURL)
	}

	var options []pipeline.Option
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaAssessmentTopic, logger)
		options = append(options, pipeline.WithPublisher(writer))
		logger.Info("assessment publishing enabled", "topic", cfg.KafkaAssessmentTopic)
	}

	engine, err := pipeline.New(elevationProvider, hydrologyProvider, cfg.Engine(), logger, metrics, options...)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	// Calibration replays the configured strategies with fixed cuts.
	harnessCfg := calibration.DefaultConfig(cfg.StudyArea)
	harnessCfg.Options = cfg.Engine()
	harnessCfg.Options.Categorizer = domain.CategorizerThreshold
	harness := calibration.NewHarness(engine, harnessCfg, logger, metrics)

	api := httpadapter.NewAPI(engine, harness, httpadapter.Defaults{
		NumPoints:     cfg.DefaultNumPoints,
		MinDistanceKm: cfg.DefaultMinDistanceKm,
		Timeout:       cfg.AssessmentTimeout,
	}, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, api, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Readiness flips once the elevation provider answers.
	go func() {
		if err := engine.WaitReady(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("elevation provider never became ready", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

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
