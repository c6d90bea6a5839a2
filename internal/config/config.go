// Package config loads service settings from environment variables, an
// optional .env file, and an optional YAML ruleset override.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brisalabs/air-advisor/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RequestTimeout bounds one advice request end to end, upstream calls
	// included.
	RequestTimeout time.Duration

	// PrimaryGraceWindow is how long a fallback pollutant reading waits for
	// the primary source to supersede it.
	PrimaryGraceWindow time.Duration

	// WeatherRetryWait is the pause before the single weather retry.
	WeatherRetryWait time.Duration

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	TempoBaseURL string
	TempoToken   string
	TempoEnabled bool

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Kafka alert publishing configuration.
	KafkaBrokers  []string
	AlertsTopic   string
	AlertsEnabled bool

	// Ruleset holds the scoring and alert thresholds: the compiled-in
	// defaults, overlaid with the file at RULESET_PATH when set.
	Ruleset domain.Ruleset
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first when
// present.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	graceWindow, err := parseDuration("PRIMARY_GRACE_WINDOW", "2s")
	if err != nil {
		return nil, err
	}
	retryWait, err := parseDuration("WEATHER_RETRY_WAIT", "1s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	tempoBaseURL := os.Getenv("TEMPO_BASE_URL")
	tempoEnabled := tempoBaseURL != ""
	if v := os.Getenv("TEMPO_ENABLED"); v != "" {
		tempoEnabled = v == "true"
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	alertsEnabled := len(brokers) > 0
	if v := os.Getenv("ALERTS_ENABLED"); v != "" {
		alertsEnabled = v == "true"
	}

	ruleset, err := loadRuleset(os.Getenv("RULESET_PATH"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RequestTimeout:     requestTimeout,
		PrimaryGraceWindow: graceWindow,
		WeatherRetryWait:   retryWait,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),

		TempoBaseURL: tempoBaseURL,
		TempoToken:   os.Getenv("TEMPO_TOKEN"),
		TempoEnabled: tempoEnabled,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parsePositiveInt("MAPBOX_CACHE_SIZE", 1000),

		KafkaBrokers:  brokers,
		AlertsTopic:   envOrDefault("ALERTS_TOPIC", "outdoor-alerts"),
		AlertsEnabled: alertsEnabled,

		Ruleset: ruleset,
	}

	if cfg.OpenWeatherAPIKey == "" {
		return nil, errors.New("OPENWEATHER_API_KEY is required")
	}
	if cfg.TempoEnabled && cfg.TempoBaseURL == "" {
		return nil, errors.New("TEMPO_ENABLED is true but TEMPO_BASE_URL is not set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.AlertsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// loadRuleset returns the compiled-in thresholds, overlaid with the YAML
// file at path when one is given. A partial file overrides only the keys it
// names.
func loadRuleset(path string) (domain.Ruleset, error) {
	rules := domain.DefaultRuleset()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Ruleset{}, fmt.Errorf("read ruleset file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return domain.Ruleset{}, fmt.Errorf("parse ruleset file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return domain.Ruleset{}, err
	}
	return rules, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parsePositiveInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
