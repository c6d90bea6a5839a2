package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisalabs/air-advisor/internal/domain"
)

const testAPIKey = "ow-test-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.PrimaryGraceWindow)
	assert.Equal(t, 1*time.Second, cfg.WeatherRetryWait)

	assert.Equal(t, testAPIKey, cfg.OpenWeatherAPIKey)
	assert.Empty(t, cfg.OpenWeatherBaseURL)

	assert.False(t, cfg.TempoEnabled)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "outdoor-alerts", cfg.AlertsTopic)
	assert.False(t, cfg.AlertsEnabled)

	assert.Equal(t, domain.DefaultRuleset(), cfg.Ruleset)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("OPENWEATHER_BASE_URL", "http://localhost:9100/data/2.5")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REQUEST_TIMEOUT", "15s")
	t.Setenv("PRIMARY_GRACE_WINDOW", "500ms")
	t.Setenv("WEATHER_RETRY_WAIT", "2s")
	t.Setenv("TEMPO_BASE_URL", "http://localhost:9101")
	t.Setenv("TEMPO_TOKEN", "tempo-token")
	t.Setenv("MAPBOX_TOKEN", "pk.test-token")
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("ALERTS_TOPIC", "custom-alerts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.PrimaryGraceWindow)
	assert.Equal(t, 2*time.Second, cfg.WeatherRetryWait)

	assert.Equal(t, "http://localhost:9100/data/2.5", cfg.OpenWeatherBaseURL)
	assert.Equal(t, "http://localhost:9101", cfg.TempoBaseURL)
	assert.Equal(t, "tempo-token", cfg.TempoToken)
	assert.True(t, cfg.TempoEnabled)

	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, "pk.test-token", cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-alerts", cfg.AlertsTopic)
	assert.True(t, cfg.AlertsEnabled)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeRequestTimeout(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("REQUEST_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_TIMEOUT")
}

func TestLoad_InvalidGraceWindow(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("PRIMARY_GRACE_WINDOW", "fast")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIMARY_GRACE_WINDOW")
}

func TestLoad_TempoBaseURLImpliesEnabled(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("TEMPO_BASE_URL", "http://localhost:9101")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TempoEnabled)
}

func TestLoad_TempoExplicitlyDisabled(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("TEMPO_BASE_URL", "http://localhost:9101")
	t.Setenv("TEMPO_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.TempoEnabled)
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_AlertsEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("ALERTS_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokersImplyAlerts(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AlertsEnabled)
}

func TestLoad_RulesetOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	ruleset := `
alerts:
  heat:
    info: 28
    warning: 33
    severe: 37
activities:
  running:
    comfort:
      min_c: 6
      max_c: 26
    wind_limit: 7
    mist_sensitive: true
`
	require.NoError(t, os.WriteFile(path, []byte(ruleset), 0o600))

	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("RULESET_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, domain.Tiers{Info: 28, Warning: 33, Severe: 37}, cfg.Ruleset.Alerts.Heat)
	assert.Equal(t, 7.0, cfg.Ruleset.Activities[domain.ActivityRunning].WindLimit)

	// Keys the file does not name keep their defaults.
	defaults := domain.DefaultRuleset()
	assert.Equal(t, defaults.Alerts.Wind, cfg.Ruleset.Alerts.Wind)
	assert.Equal(t, defaults.Activities[domain.ActivityWalking], cfg.Ruleset.Activities[domain.ActivityWalking])
	assert.Equal(t, defaults.Breakpoints, cfg.Ruleset.Breakpoints)
}

func TestLoad_RulesetFileMissing(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("RULESET_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read ruleset file")
}

func TestLoad_RulesetFailsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	ruleset := `
alerts:
  heat:
    info: 40
    warning: 35
    severe: 30
`
	require.NoError(t, os.WriteFile(path, []byte(ruleset), 0o600))

	t.Setenv("OPENWEATHER_API_KEY", testAPIKey)
	t.Setenv("RULESET_PATH", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heat tiers")
}

func TestLoad_ReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "OPENWEATHER_API_KEY=from-dotenv\nHTTP_ADDR=:7070\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Chdir(dir)

	// godotenv writes into the process environment; undo it so later tests
	// start clean.
	t.Cleanup(func() {
		os.Unsetenv("OPENWEATHER_API_KEY")
		os.Unsetenv("HTTP_ADDR")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OpenWeatherAPIKey)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
}
