// Package advisor orchestrates one advice request end to end: geocode the
// place if needed, resolve the observation, score it, generate alerts,
// narrate the summary, and hand urgent alerts to the delivery boundary.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/observability"
)

// ErrPlaceNotFound reports that the geocoder had no match for the requested
// place name. Recoverable: the caller picks another place.
var ErrPlaceNotFound = errors.New("place not found")

// ObservationResolver produces the merged observation for a location.
type ObservationResolver interface {
	Resolve(ctx context.Context, loc domain.Location, when time.Time) (domain.NormalizedObservation, error)
}

// AlertSink receives warning and severe alerts for out-of-band delivery.
// Publishing is best-effort: sink failures are logged and never fail the
// advice request that produced the alerts.
type AlertSink interface {
	PublishAlerts(ctx context.Context, loc domain.Location, observedAt time.Time, alerts []domain.AlertEvent) error
}

// Config carries the service's tunables.
type Config struct {
	Rules          domain.Ruleset
	RequestTimeout time.Duration
}

// Service is the advice orchestrator. Stateless across requests; safe for
// concurrent use.
type Service struct {
	resolver ObservationResolver
	geocoder domain.Geocoder // nil disables place-name lookup
	sink     AlertSink       // nil disables alert publishing
	rules    domain.Ruleset
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
}

// New creates a Service. geocoder and sink may be nil.
func New(resolver ObservationResolver, geocoder domain.Geocoder, sink AlertSink, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		resolver: resolver,
		geocoder: geocoder,
		sink:     sink,
		rules:    cfg.Rules,
		timeout:  cfg.RequestTimeout,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
}

// CheckReadiness reports whether the service can take traffic.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.resolver == nil {
		return errors.New("observation resolver not configured")
	}
	return nil
}

// AdviceRequest identifies the place and profile to advise on. Either
// Location (pre-resolved coordinates) or Place (a name for the geocoder)
// must be set; Location wins when both are.
type AdviceRequest struct {
	Location *domain.Location
	Place    string
	Profile  domain.UserProfile
}

// Advice is the full advisory payload.
type Advice struct {
	Observation domain.NormalizedObservation `json:"observation"`
	Score       domain.AdvisabilityScore     `json:"score"`
	Alerts      []domain.AlertEvent          `json:"alerts"`
	Summary     string                       `json:"summary"`
}

// Advise runs the advice pipeline for one request. Failures are scoped to
// the request: nothing is shared with or carried into the next call.
func (s *Service) Advise(ctx context.Context, req AdviceRequest) (Advice, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := req.Profile.Validate(); err != nil {
		return Advice{}, err
	}

	loc, err := s.resolveLocation(ctx, req)
	if err != nil {
		return Advice{}, err
	}

	obs, err := s.resolver.Resolve(ctx, loc, s.clock.Now())
	if err != nil {
		return Advice{}, err
	}

	score := domain.Score(obs, req.Profile, s.rules)
	alerts := domain.Alerts(obs, s.rules)
	summary := domain.Summary(obs, req.Profile, score, alerts, s.rules)

	s.metrics.ScoreValues.Observe(float64(score.Value))
	for _, a := range alerts {
		s.metrics.AlertsGenerated.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	}
	s.logger.Info("advice served",
		"location", loc.Label(),
		"activity", req.Profile.Activity,
		"score", score.Value,
		"status", score.Status,
		"pollutant_source", obs.PollutantSource,
		"alerts", len(alerts),
	)

	s.publishUrgent(ctx, obs, alerts)

	return Advice{Observation: obs, Score: score, Alerts: alerts, Summary: summary}, nil
}

// resolveLocation turns the request into validated coordinates: passed
// through when pre-resolved, geocoded when given as a place name. Bare
// coordinates get a reverse-geocoded label when possible; a labeling
// failure degrades to the coordinate string rather than failing the
// request.
func (s *Service) resolveLocation(ctx context.Context, req AdviceRequest) (domain.Location, error) {
	if req.Location != nil {
		loc := *req.Location
		if err := loc.Validate(); err != nil {
			return domain.Location{}, err
		}
		if loc.Name == "" && s.geocoder != nil {
			res, err := s.geocoder.ReverseGeocode(ctx, loc.Lat, loc.Lon)
			if err != nil {
				s.logger.Warn("reverse geocode for label failed", "lat", loc.Lat, "lon", loc.Lon, "error", err)
			} else if res.Location.Name != "" {
				loc.Name = res.Location.Name
			}
		}
		return loc, nil
	}

	if req.Place == "" {
		return domain.Location{}, fmt.Errorf("%w: no place or coordinates given", domain.ErrInvalidLocation)
	}
	if s.geocoder == nil {
		return domain.Location{}, errors.New("place lookup requires a geocoder")
	}

	res, err := s.geocoder.ForwardGeocode(ctx, req.Place)
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", req.Place, err)
	}
	if res.Location.Lat == 0 && res.Location.Lon == 0 && res.FormattedAddress == "" {
		return domain.Location{}, fmt.Errorf("%w: %q", ErrPlaceNotFound, req.Place)
	}

	loc := res.Location
	if loc.Name == "" {
		loc.Name = req.Place
	}
	if err := loc.Validate(); err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

// publishUrgent hands warning and severe alerts to the sink without holding
// up the response. The goroutine gets its own deadline detached from the
// request context so an already-finished request cannot cancel delivery.
func (s *Service) publishUrgent(ctx context.Context, obs domain.NormalizedObservation, alerts []domain.AlertEvent) {
	if s.sink == nil {
		return
	}

	urgent := make([]domain.AlertEvent, 0, len(alerts))
	for _, a := range alerts {
		if a.Severity == domain.SeverityWarning || a.Severity == domain.SeveritySevere {
			urgent = append(urgent, a)
		}
	}
	if len(urgent) == 0 {
		return
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()

		if err := s.sink.PublishAlerts(pubCtx, obs.Location, obs.FetchedAt, urgent); err != nil {
			s.logger.Error("alert publish failed", "location", obs.Location.Label(), "count", len(urgent), "error", err)
			s.metrics.AlertsPublished.WithLabelValues("error").Inc()
			return
		}
		s.metrics.AlertsPublished.WithLabelValues("ok").Inc()
	}()
}
