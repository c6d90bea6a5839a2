package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisor service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec // labels: endpoint={advice,voice}, outcome={ok,invalid,not_found,unavailable,error}
	RequestDuration *prometheus.HistogramVec
	ScoreValues     prometheus.Histogram

	// Upstream source metrics.
	ProviderRequests *prometheus.CounterVec // labels: provider, outcome={ok,coverage_gap,error}
	ProviderDuration *prometheus.HistogramVec
	SourceSelections *prometheus.CounterVec // labels: role={primary,fallback,none}

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: method={forward,reverse}, result={hit,miss}

	// Alert metrics.
	AlertsGenerated  *prometheus.CounterVec // labels: kind, severity
	AlertsPublished  *prometheus.CounterVec // labels: outcome={ok,error}
	PublisherEnabled prometheus.Gauge

	VoiceCommands *prometheus.CounterVec // labels: outcome={located,unlocated}
}

// NewMetrics creates and registers all advisor metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ScoreValues,
		m.ProviderRequests,
		m.ProviderDuration,
		m.SourceSelections,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.AlertsGenerated,
		m.AlertsPublished,
		m.PublisherEnabled,
		m.VoiceCommands,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "requests_total",
			Help:      "Advice requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "air_advisor",
			Name:      "request_duration_seconds",
			Help:      "End-to-end advice request duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ScoreValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "air_advisor",
			Name:      "score_values",
			Help:      "Distribution of advisability scores served.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "provider_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "air_advisor",
			Name:      "provider_request_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		SourceSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "pollutant_source_selections_total",
			Help:      "Which pollutant source role won each resolution.",
		}, []string{"role"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "alerts_generated_total",
			Help:      "Alerts produced by kind and severity.",
		}, []string{"kind", "severity"}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "alerts_published_total",
			Help:      "Alert events handed to the delivery topic by outcome.",
		}, []string{"outcome"}),
		PublisherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "air_advisor",
			Name:      "alert_publisher_enabled",
			Help:      "1 when the Kafka alert publisher is configured, 0 otherwise.",
		}),
		VoiceCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "air_advisor",
			Name:      "voice_commands_total",
			Help:      "Interpreted voice commands by outcome.",
		}, []string{"outcome"}),
	}
}
