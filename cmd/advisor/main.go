package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/brisalabs/air-advisor/internal/adapter/http"
	kafkaadapter "github.com/brisalabs/air-advisor/internal/adapter/kafka"
	"github.com/brisalabs/air-advisor/internal/adapter/mapbox"
	"github.com/brisalabs/air-advisor/internal/adapter/openweather"
	"github.com/brisalabs/air-advisor/internal/adapter/tempo"
	"github.com/brisalabs/air-advisor/internal/advisor"
	"github.com/brisalabs/air-advisor/internal/config"
	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/observability"
	"github.com/brisalabs/air-advisor/internal/resolve"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	// OpenWeather carries the mandatory weather feed and doubles as the
	// pollutant fallback.
	weather := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, httpClient, logger)

	// The satellite source is feature-flagged via TEMPO_ENABLED / TEMPO_BASE_URL.
	var primary resolve.PollutantSource
	if cfg.TempoEnabled {
		primary = tempo.NewClient(cfg.TempoBaseURL, cfg.TempoToken, httpClient, logger)
		logger.Info("tempo pollutant source enabled", "base_url", cfg.TempoBaseURL)
	} else {
		logger.Info("tempo pollutant source disabled, air quality served by openweather only")
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled, requests must carry coordinates")
	}

	// Alert publishing is feature-flagged via ALERTS_ENABLED / KAFKA_BROKERS.
	var sink advisor.AlertSink
	var publisher *kafkaadapter.Publisher
	if cfg.AlertsEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.AlertsTopic, logger)
		sink = publisher
		metrics.PublisherEnabled.Set(1)
		logger.Info("alert publishing enabled", "topic", cfg.AlertsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("alert publishing disabled")
	}

	resolver := resolve.New(weather, primary, weather, logger, metrics, cfg.PrimaryGraceWindow, cfg.WeatherRetryWait)

	svc := advisor.New(resolver, geocoder, sink, advisor.Config{
		Rules:          cfg.Ruleset,
		RequestTimeout: cfg.RequestTimeout,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("alert publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
