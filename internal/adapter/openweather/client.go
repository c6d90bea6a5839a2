// Package openweather adapts the OpenWeather current-weather and air
// pollution APIs. It is the mandatory weather source and the ground-station
// fallback pollutant source.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brisalabs/air-advisor/internal/adapter/resilience"
	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/resolve"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client talks to OpenWeather. One instance serves both the weather and the
// fallback pollutant fetches; they share the circuit breaker because they
// share the upstream.
type Client struct {
	apiKey  string
	baseURL string
	httpCfg resilience.ClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates an OpenWeather client. An empty baseURL selects the
// public API endpoint.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: resilience.ClientConfig{
			Client:  httpClient,
			Backoff: resilience.DefaultBackoff(),
		},
		circuit: resilience.NewBreaker("openweather"),
		logger:  logger,
	}
}

// Name identifies this adapter in logs and metrics.
func (c *Client) Name() string { return "openweather" }

// FetchWeather retrieves current conditions in metric units.
func (c *Client) FetchWeather(ctx context.Context, loc domain.Location, when time.Time) (domain.RawWeather, error) {
	if c.apiKey == "" {
		return domain.RawWeather{}, errors.New("openweather api key not configured")
	}

	resp, err := resilience.Do(ctx, c.httpCfg, c.circuit, func() (*http.Request, error) {
		q := c.coordQuery(loc)
		q.Set("units", "metric")
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	})
	if err != nil {
		return domain.RawWeather{}, fmt.Errorf("openweather weather request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64  `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  float64  `json:"humidity"`
			Pressure  float64  `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Sys struct {
			Sunrise int64 `json:"sunrise"`
			Sunset  int64 `json:"sunset"`
		} `json:"sys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawWeather{}, fmt.Errorf("decode weather response: %w", err)
	}

	w := domain.RawWeather{
		TempC:      payload.Main.Temp,
		FeelsLikeC: payload.Main.FeelsLike,
		Humidity:   payload.Main.Humidity,
		WindSpeed:  payload.Wind.Speed,
		Pressure:   payload.Main.Pressure,
		Condition:  domain.ConditionUnknown,
		ObservedAt: unixOr(payload.Dt, when),
	}
	if len(payload.Weather) > 0 {
		w.Condition = mapCondition(payload.Weather[0].Main)
		w.Description = payload.Weather[0].Description
	}
	if payload.Sys.Sunrise > 0 {
		w.Sunrise = time.Unix(payload.Sys.Sunrise, 0).UTC()
	}
	if payload.Sys.Sunset > 0 {
		w.Sunset = time.Unix(payload.Sys.Sunset, 0).UTC()
	}
	return w, nil
}

// FetchPollutants retrieves ground-station pollutant concentrations in
// µg/m³. A reachable API with no reading for the coordinates reports a
// coverage gap, not a failure.
func (c *Client) FetchPollutants(ctx context.Context, loc domain.Location, when time.Time) (domain.RawPollutants, error) {
	if c.apiKey == "" {
		return domain.RawPollutants{}, errors.New("openweather api key not configured")
	}

	resp, err := resilience.Do(ctx, c.httpCfg, c.circuit, func() (*http.Request, error) {
		q := c.coordQuery(loc)
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/air_pollution?"+q.Encode(), nil)
	})
	if err != nil {
		return domain.RawPollutants{}, fmt.Errorf("openweather air pollution request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt         int64              `json:"dt"`
			Components map[string]float64 `json:"components"`
		} `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawPollutants{}, fmt.Errorf("decode air pollution response: %w", err)
	}
	if len(payload.List) == 0 {
		c.logger.Debug("openweather returned no air pollution reading", "location", loc.Label())
		return domain.RawPollutants{}, fmt.Errorf("%w: empty reading list", resolve.ErrCoverageGap)
	}

	reading := payload.List[0]
	conc := make(map[domain.Pollutant]float64, len(domain.CanonicalPollutants))
	for _, p := range domain.CanonicalPollutants {
		if v, ok := reading.Components[string(p)]; ok {
			conc[p] = v
		}
	}
	if len(conc) == 0 {
		return domain.RawPollutants{}, fmt.Errorf("%w: no known pollutants in reading", resolve.ErrCoverageGap)
	}

	return domain.RawPollutants{
		Provider:       c.Name(),
		Concentrations: conc,
		Partial:        len(conc) < len(domain.CanonicalPollutants),
		ObservedAt:     unixOr(reading.Dt, when),
	}, nil
}

func (c *Client) coordQuery(loc domain.Location) url.Values {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	return q
}

func unixOr(sec int64, fallback time.Time) time.Time {
	if sec <= 0 {
		return fallback.UTC()
	}
	return time.Unix(sec, 0).UTC()
}

func mapCondition(main string) domain.Condition {
	switch main {
	case "Clear":
		return domain.ConditionClear
	case "Clouds":
		return domain.ConditionClouds
	case "Rain", "Drizzle":
		return domain.ConditionRain
	case "Snow":
		return domain.ConditionSnow
	case "Thunderstorm", "Tornado", "Squall":
		return domain.ConditionStorm
	case "Mist", "Fog", "Haze", "Smoke":
		return domain.ConditionMist
	default:
		return domain.ConditionUnknown
	}
}
