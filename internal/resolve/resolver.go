// Package resolve turns a location into one normalized observation by
// coordinating the weather provider and the two pollutant sources.
//
// Weather is mandatory: one failure is retried once after a short backoff,
// and a second failure makes the whole resolution fail. Pollutants are
// optional: the satellite-derived primary and the ground/commercial fallback
// are queried concurrently, the primary wins whenever it answers usably, and
// losing both merely degrades the observation to weather-only. The two
// sources are never blended; whichever wins supplies the entire pollutant
// field set.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/observability"
)

// ErrAllSourcesUnavailable reports that the mandatory weather provider could
// not be reached even after the retry. There is no advisory without weather.
var ErrAllSourcesUnavailable = errors.New("all weather sources unavailable")

// ErrCoverageGap is returned by a pollutant source that is reachable but has
// no valid reading for the requested coordinates and time: out of the
// satellite's field of regard, a nighttime orbit gap, cloud obstruction, or
// a quality-flagged retrieval. It is an expected outcome, not a failure; the
// resolver falls back silently.
var ErrCoverageGap = errors.New("coverage gap")

// WeatherSource fetches current weather for a location.
type WeatherSource interface {
	Name() string
	FetchWeather(ctx context.Context, loc domain.Location, when time.Time) (domain.RawWeather, error)
}

// PollutantSource fetches pollutant concentrations for a location.
type PollutantSource interface {
	Name() string
	FetchPollutants(ctx context.Context, loc domain.Location, when time.Time) (domain.RawPollutants, error)
}

// Resolver races the pollutant sources and joins the winner with the
// weather reading. Safe for concurrent use; all state is per-call.
type Resolver struct {
	weather  WeatherSource
	primary  PollutantSource
	fallback PollutantSource
	logger   *slog.Logger
	metrics  *observability.Metrics

	// grace is how long a fallback result waits for the primary to
	// supersede it. After it expires the fallback stands for good.
	grace time.Duration

	// retryWait is the pause before the single weather retry.
	retryWait time.Duration
}

// New creates a Resolver. Either pollutant source may be nil, leaving that
// slot permanently empty; the weather source must not be nil.
func New(weather WeatherSource, primary, fallback PollutantSource, logger *slog.Logger, metrics *observability.Metrics, grace, retryWait time.Duration) *Resolver {
	return &Resolver{
		weather:   weather,
		primary:   primary,
		fallback:  fallback,
		logger:    logger,
		metrics:   metrics,
		grace:     grace,
		retryWait: retryWait,
	}
}

// Resolve produces the observation for a location at a point in time. It
// honors ctx's deadline: once the deadline passes, whatever pollutant data
// has arrived is used and the rest abandoned. The returned observation is
// tagged with the pollutant source role that won.
func (r *Resolver) Resolve(ctx context.Context, loc domain.Location, when time.Time) (domain.NormalizedObservation, error) {
	if err := loc.Validate(); err != nil {
		return domain.NormalizedObservation{}, err
	}

	// Kick off the pollutant race before the blocking weather call so all
	// three upstreams work concurrently. Buffered channels let abandoned
	// fetches finish without leaking goroutines.
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	primaryCh := r.fetchPollutants(raceCtx, r.primary, loc, when)
	fallbackCh := r.fetchPollutants(raceCtx, r.fallback, loc, when)

	weather, err := r.fetchWeather(ctx, loc, when)
	if err != nil {
		return domain.NormalizedObservation{}, fmt.Errorf("%w: %w", ErrAllSourcesUnavailable, err)
	}

	bundle, role := r.awaitPollutants(ctx, primaryCh, fallbackCh)
	obs := domain.Normalize(loc, weather, bundle, role)

	if obs.PollutantSource == domain.SourceNone {
		r.logger.Warn("no pollutant source usable, serving weather-only observation",
			"location", loc.Label())
	}
	r.metrics.SourceSelections.WithLabelValues(string(obs.PollutantSource)).Inc()
	return obs, nil
}

// fetchWeather tries the weather source, retrying exactly once after
// retryWait. Weather has no substitute, so the second failure is final.
func (r *Resolver) fetchWeather(ctx context.Context, loc domain.Location, when time.Time) (domain.RawWeather, error) {
	w, err := r.doFetchWeather(ctx, loc, when)
	if err == nil {
		return w, nil
	}
	if ctx.Err() != nil {
		return domain.RawWeather{}, err
	}

	r.logger.Warn("weather fetch failed, retrying once",
		"location", loc.Label(), "retry_wait", r.retryWait, "error", err)
	if !sleepWithContext(ctx, r.retryWait) {
		return domain.RawWeather{}, err
	}

	w, retryErr := r.doFetchWeather(ctx, loc, when)
	if retryErr != nil {
		return domain.RawWeather{}, fmt.Errorf("retry failed: %w", retryErr)
	}
	return w, nil
}

func (r *Resolver) doFetchWeather(ctx context.Context, loc domain.Location, when time.Time) (domain.RawWeather, error) {
	start := time.Now()
	w, err := r.weather.FetchWeather(ctx, loc, when)
	r.metrics.ProviderDuration.WithLabelValues(r.weather.Name()).Observe(time.Since(start).Seconds())
	r.metrics.ProviderRequests.WithLabelValues(r.weather.Name(), fetchOutcome(err)).Inc()
	return w, err
}

type pollutantResult struct {
	bundle domain.RawPollutants
	name   string
	err    error
}

// fetchPollutants runs one source fetch in the background. A nil source
// yields a nil channel, which the select in awaitPollutants ignores forever.
func (r *Resolver) fetchPollutants(ctx context.Context, src PollutantSource, loc domain.Location, when time.Time) <-chan pollutantResult {
	if src == nil {
		return nil
	}

	ch := make(chan pollutantResult, 1)
	go func() {
		start := time.Now()
		bundle, err := src.FetchPollutants(ctx, loc, when)
		r.metrics.ProviderDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
		r.metrics.ProviderRequests.WithLabelValues(src.Name(), fetchOutcome(err)).Inc()
		ch <- pollutantResult{bundle: bundle, name: src.Name(), err: err}
	}()
	return ch
}

func fetchOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCoverageGap):
		return "coverage_gap"
	default:
		return "error"
	}
}

// awaitPollutants applies the selection policy to the race:
//
//   - a usable primary result always wins, even when the fallback already
//     answered;
//   - after the primary fails or reports a gap, the fallback's answer is
//     taken (waiting for it if necessary);
//   - when the fallback answers first, the primary gets a grace window to
//     supersede it; once the window expires the fallback result stands and
//     is never retroactively replaced;
//   - ctx expiry returns whatever has already arrived, or nothing.
//
// Returns a nil bundle and SourceNone when no source produced a usable
// reading.
func (r *Resolver) awaitPollutants(ctx context.Context, primaryCh, fallbackCh <-chan pollutantResult) (*domain.RawPollutants, domain.SourceRole) {
	var (
		fallbackBundle *domain.RawPollutants
		graceCh        <-chan time.Time
	)
	if primaryCh == nil && fallbackCh == nil {
		return nil, domain.SourceNone
	}

	for {
		select {
		case <-ctx.Done():
			if fallbackBundle != nil {
				return fallbackBundle, domain.SourceFallback
			}
			return nil, domain.SourceNone

		case res := <-primaryCh:
			primaryCh = nil
			if res.err == nil {
				return &res.bundle, domain.SourcePrimary
			}
			if errors.Is(res.err, ErrCoverageGap) {
				r.logger.Debug("primary pollutant source has no coverage, falling back",
					"provider", res.name, "error", res.err)
			} else {
				r.logger.Warn("primary pollutant source failed, falling back",
					"provider", res.name, "error", res.err)
			}
			if fallbackBundle != nil {
				return fallbackBundle, domain.SourceFallback
			}
			if fallbackCh == nil {
				return nil, domain.SourceNone
			}

		case res := <-fallbackCh:
			fallbackCh = nil
			if res.err != nil {
				r.logger.Warn("fallback pollutant source failed",
					"provider", res.name, "error", res.err)
				if primaryCh == nil {
					return nil, domain.SourceNone
				}
				continue
			}
			if primaryCh == nil {
				return &res.bundle, domain.SourceFallback
			}
			// Fallback answered first: hold it while the primary gets its
			// grace window.
			bundle := res.bundle
			fallbackBundle = &bundle
			timer := time.NewTimer(r.grace)
			defer timer.Stop()
			graceCh = timer.C

		case <-graceCh:
			return fallbackBundle, domain.SourceFallback
		}
	}
}

// sleepWithContext pauses for d unless the context ends first. Returns false
// when interrupted.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
