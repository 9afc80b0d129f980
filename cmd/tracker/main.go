package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/cyclone-track-service/internal/adapter/export"
	httpadapter "github.com/couchcryptid/cyclone-track-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cyclone-track-service/internal/adapter/kafka"
	"github.com/couchcryptid/cyclone-track-service/internal/adapter/mapbox"
	"github.com/couchcryptid/cyclone-track-service/internal/adapter/source"
	"github.com/couchcryptid/cyclone-track-service/internal/config"
	"github.com/couchcryptid/cyclone-track-service/internal/domain"
	"github.com/couchcryptid/cyclone-track-service/internal/observability"
	"github.com/couchcryptid/cyclone-track-service/internal/pipeline"
	"github.com/couchcryptid/cyclone-track-service/internal/viewer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	v, err := viewer.New(cfg.DefaultYear, metrics)
	if err != nil {
		logger.Error("failed to create viewer", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var (
		sinks  []pipeline.Sink
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}
	if cfg.ExportPath != "" {
		sinks = append(sinks, export.NewFileSink(cfg.ExportPath))
		logger.Info("parquet export enabled", "path", cfg.ExportPath)
	}

	loader := source.NewLoader(cfg.SourceTimeout, logger)
	p := pipeline.New(loader, cfg.SourcePath, v, logger, metrics, sinks...)
	player := viewer.NewPlayer(v, cfg.PlaybackInterval, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, v, p, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load the source once. A failure leaves the viewer empty.
	go func() {
		_ = p.Run(ctx)
	}()

	go player.Run(ctx)

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
