package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidLocation reports coordinates outside the WGS-84 envelope.
// Requests carrying such a location fail fast and are never retried.
var ErrInvalidLocation = errors.New("invalid location")

// Location identifies the place an advisory is produced for.
type Location struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Validate checks that the coordinates are finite and inside the WGS-84
// envelope. Violations wrap [ErrInvalidLocation].
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsInf(l.Lat, 0) || math.IsNaN(l.Lon) || math.IsInf(l.Lon, 0) {
		return fmt.Errorf("%w: non-finite coordinates", ErrInvalidLocation)
	}
	if l.Lat < -90 || l.Lat > 90 {
		return fmt.Errorf("%w: latitude %.4f out of range [-90, 90]", ErrInvalidLocation, l.Lat)
	}
	if l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("%w: longitude %.4f out of range [-180, 180]", ErrInvalidLocation, l.Lon)
	}
	return nil
}

// Label returns the location's display name, falling back to formatted
// coordinates when no name is known.
func (l Location) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lon)
}

// Condition is the coarse sky and precipitation state reported by the
// weather provider.
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionClouds Condition = "clouds"
	ConditionRain   Condition = "rain"
	ConditionSnow   Condition = "snow"
	ConditionStorm  Condition = "storm"
	ConditionMist   Condition = "mist"

	// ConditionUnknown covers provider states with no mapping. It carries
	// no penalty and fires no storm alert.
	ConditionUnknown Condition = "unknown"
)

// Pollutant identifies one measured air pollutant.
type Pollutant string

const (
	PollutantNO2  Pollutant = "no2"
	PollutantO3   Pollutant = "o3"
	PollutantPM25 Pollutant = "pm2_5"
	PollutantPM10 Pollutant = "pm10"
	PollutantSO2  Pollutant = "so2"
	PollutantCO   Pollutant = "co"
)

// CanonicalPollutants lists every pollutant the advisor scores, in the fixed
// order used for deterministic iteration and tie-breaking. Readings for
// pollutants outside this list are ignored rather than guessed at.
var CanonicalPollutants = []Pollutant{
	PollutantPM25,
	PollutantPM10,
	PollutantO3,
	PollutantNO2,
	PollutantSO2,
	PollutantCO,
}

// SourceRole tags which pollutant source supplied an observation's
// concentration fields.
type SourceRole string

const (
	SourcePrimary  SourceRole = "primary"
	SourceFallback SourceRole = "fallback"

	// SourceNone marks the degraded weather-only observation: no pollutant
	// source answered, concentrations are unknown.
	SourceNone SourceRole = "none"
)

// RawWeather is a weather provider reading before normalization.
type RawWeather struct {
	TempC       float64
	FeelsLikeC  *float64 // nil when the provider omits it
	Humidity    float64  // percent
	WindSpeed   float64  // m/s
	Pressure    float64  // hPa
	Condition   Condition
	Description string
	Sunrise     time.Time
	Sunset      time.Time
	ObservedAt  time.Time
}

// RawPollutants is a pollutant source reading before normalization. The
// whole bundle comes from a single source; fields from different sources are
// never mixed.
type RawPollutants struct {
	Provider       string // adapter name, e.g. "tempo" or "openweather"
	Concentrations map[Pollutant]float64
	Partial        bool // source reported an incomplete field set
	ObservedAt     time.Time
}

// NormalizedObservation is the single merged input consumed by scoring,
// alerting, and narration. Every field is either a finite value or
// explicitly unknown; pollutant fields that are unknown are absent from the
// map and the source role is [SourceNone].
type NormalizedObservation struct {
	Location    Location  `json:"location"`
	FetchedAt   time.Time `json:"fetched_at"`
	TempC       float64   `json:"temp_c"`
	FeelsLikeC  float64   `json:"feels_like_c"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Pressure    float64   `json:"pressure"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	Sunrise     time.Time `json:"sunrise,omitzero"`
	Sunset      time.Time `json:"sunset,omitzero"`

	Pollutants        map[Pollutant]float64 `json:"pollutants,omitempty"`
	PollutantSource   SourceRole            `json:"pollutant_source"`
	PollutantProvider string                `json:"pollutant_provider,omitempty"`
	Partial           bool                  `json:"partial,omitempty"`
}

// HasPollutants reports whether any usable pollutant reading is present.
func (o NormalizedObservation) HasPollutants() bool {
	return o.PollutantSource != SourceNone && len(o.Pollutants) > 0
}

// Normalize merges a weather reading and an optional pollutant bundle into
// one observation. Feels-like defaults to the dry-bulb temperature when the
// provider omitted it. A nil bundle produces the degraded weather-only
// observation with role [SourceNone] regardless of the role argument.
// The observation is stamped with the package clock's current time.
func Normalize(loc Location, w RawWeather, p *RawPollutants, role SourceRole) NormalizedObservation {
	obs := NormalizedObservation{
		Location:        loc,
		FetchedAt:       clock.Now().UTC(),
		TempC:           w.TempC,
		FeelsLikeC:      w.TempC,
		Humidity:        w.Humidity,
		WindSpeed:       w.WindSpeed,
		Pressure:        w.Pressure,
		Condition:       w.Condition,
		Description:     w.Description,
		Sunrise:         w.Sunrise,
		Sunset:          w.Sunset,
		PollutantSource: SourceNone,
	}
	if w.FeelsLikeC != nil {
		obs.FeelsLikeC = *w.FeelsLikeC
	}
	if p == nil || len(p.Concentrations) == 0 {
		return obs
	}

	obs.Pollutants = make(map[Pollutant]float64, len(p.Concentrations))
	for k, v := range p.Concentrations {
		obs.Pollutants[k] = v
	}
	obs.PollutantSource = role
	obs.PollutantProvider = p.Provider
	obs.Partial = p.Partial
	return obs
}
