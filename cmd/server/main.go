// Command server runs the bloom data service: it loads the observation
// dataset through the fallback chain, optionally starts the live stream
// pipeline, and serves the REST API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/floralens/bloom-data-service/internal/adapter/geocode"
	"github.com/floralens/bloom-data-service/internal/adapter/httpapi"
	kafkaadapter "github.com/floralens/bloom-data-service/internal/adapter/kafka"
	"github.com/floralens/bloom-data-service/internal/adapter/weather"
	"github.com/floralens/bloom-data-service/internal/config"
	"github.com/floralens/bloom-data-service/internal/dataset"
	"github.com/floralens/bloom-data-service/internal/ingest"
	"github.com/floralens/bloom-data-service/internal/observability"
	"github.com/floralens/bloom-data-service/internal/pipeline"
	"github.com/floralens/bloom-data-service/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the dataset up front. The loader never fails outright: it walks
	// the fallback chain down to synthetic data, so the API always has
	// something to serve.
	store := dataset.NewStore(metrics)
	loader := ingest.NewLoader(cfg.DatasetSource, &http.Client{Timeout: cfg.DatasetFetchTimeout}, logger, metrics)
	observations, report := loader.LoadDataset(ctx)
	store.Replace(observations, report)

	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, metrics, logger)
	weatherProvider := weather.NewCachedProvider(weatherClient, cfg.WeatherCacheSize, metrics)

	geocodeClient := geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, metrics, logger)
	placeSearcher := geocode.NewCachedSearcher(geocodeClient, cfg.GeocodeCacheSize, metrics)

	region := query.Americas
	region.DistanceDeg = cfg.RegionDistanceDeg

	srv := httpapi.New(cfg.HTTPAddr, cfg.ShutdownTimeout, store, weatherProvider, placeSearcher, region, logger, metrics)

	// Live stream pipeline (feature-flagged via KAFKA_ENABLED).
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)

		sink := pipeline.NewFanoutLoader(pipeline.NewDatasetSink(store), writer)
		p := pipeline.New(reader, pipeline.NewTransformer(logger), sink, logger, metrics, cfg.BatchSize)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("stream pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("live stream disabled")
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("http server error", "error", err)
	}

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
