package domain

import (
	"fmt"
	"sort"
)

// AlertKind identifies one of the five proactive alert rules.
type AlertKind string

const (
	AlertStorm          AlertKind = "storm"
	AlertPoorAirQuality AlertKind = "poor-air-quality"
	AlertExtremeHeat    AlertKind = "extreme-heat"
	AlertExtremeCold    AlertKind = "extreme-cold"
	AlertHighWind       AlertKind = "high-wind"
)

// Severity is the alert urgency level.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
)

// severityRank orders severities for sorting; higher is more urgent.
var severityRank = map[Severity]int{
	SeverityInfo:    0,
	SeverityWarning: 1,
	SeveritySevere:  2,
}

// kindRank fixes the order of alert kinds within one severity level.
var kindRank = map[AlertKind]int{
	AlertStorm:          0,
	AlertPoorAirQuality: 1,
	AlertExtremeHeat:    2,
	AlertExtremeCold:    3,
	AlertHighWind:       4,
}

// AlertEvent is one advisory produced by the alert rules. Messages name the
// condition and the protective action; they never command devices or
// deliver themselves.
type AlertEvent struct {
	Kind     AlertKind `json:"kind"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

// Alerts evaluates the five alert rules against an observation. Each kind
// fires at most once, at the highest tier its thresholds satisfy; a value
// exactly at a threshold belongs to the higher tier. The result is ordered
// severity-descending, ties broken by fixed kind order, so identical inputs
// always yield the identical slice. Unknown pollutant data suppresses the
// poor-air-quality kind rather than guessing.
func Alerts(obs NormalizedObservation, rules Ruleset) []AlertEvent {
	var out []AlertEvent

	if a, ok := stormAlert(obs.Condition); ok {
		out = append(out, a)
	}
	if a, ok := airAlert(obs, rules); ok {
		out = append(out, a)
	}
	if a, ok := heatAlert(obs.TempC, rules.Alerts.Heat); ok {
		out = append(out, a)
	}
	if a, ok := coldAlert(obs.TempC, rules.Alerts.Cold); ok {
		out = append(out, a)
	}
	if a, ok := windAlert(obs.WindSpeed, rules.Alerts.Wind); ok {
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if severityRank[out[i].Severity] != severityRank[out[j].Severity] {
			return severityRank[out[i].Severity] > severityRank[out[j].Severity]
		}
		return kindRank[out[i].Kind] < kindRank[out[j].Kind]
	})
	return out
}

func stormAlert(c Condition) (AlertEvent, bool) {
	switch c {
	case ConditionStorm:
		return AlertEvent{AlertStorm, SeveritySevere, "Thunderstorm in the area. Seek shelter indoors immediately."}, true
	case ConditionSnow:
		return AlertEvent{AlertStorm, SeverityWarning, "Snowfall expected. Roads and paths may be slippery."}, true
	case ConditionRain:
		return AlertEvent{AlertStorm, SeverityInfo, "Rain expected. Carry an umbrella."}, true
	default:
		return AlertEvent{}, false
	}
}

func airAlert(obs NormalizedObservation, rules Ruleset) (AlertEvent, bool) {
	if !obs.HasPollutants() {
		return AlertEvent{}, false
	}
	dom, conc, ok := DominantPollutant(obs.Pollutants, rules.Breakpoints)
	if !ok {
		return AlertEvent{}, false
	}

	reading := fmt.Sprintf("%s at %.1f µg/m³", dom, conc)
	switch rules.Breakpoints[dom].BandFor(conc) {
	case BandUnhealthy, BandVeryUnhealthy:
		return AlertEvent{AlertPoorAirQuality, SeveritySevere,
			fmt.Sprintf("Air quality is unhealthy (%s). Avoid outdoor activity.", reading)}, true
	case BandSensitiveGroups:
		return AlertEvent{AlertPoorAirQuality, SeverityWarning,
			fmt.Sprintf("Air quality is unhealthy for sensitive groups (%s). Limit prolonged outdoor exertion.", reading)}, true
	case BandModerate:
		return AlertEvent{AlertPoorAirQuality, SeverityInfo,
			fmt.Sprintf("Air quality is moderate (%s). Unusually sensitive people should pace themselves.", reading)}, true
	default:
		return AlertEvent{}, false
	}
}

func heatAlert(temp float64, t Tiers) (AlertEvent, bool) {
	switch {
	case temp >= t.Severe:
		return AlertEvent{AlertExtremeHeat, SeveritySevere,
			fmt.Sprintf("Extreme heat at %.0f°C. Avoid outdoor exertion and stay hydrated.", temp)}, true
	case temp >= t.Warning:
		return AlertEvent{AlertExtremeHeat, SeverityWarning,
			fmt.Sprintf("High temperature at %.0f°C. Stay hydrated and rest in shade.", temp)}, true
	case temp >= t.Info:
		return AlertEvent{AlertExtremeHeat, SeverityInfo,
			fmt.Sprintf("Warm conditions at %.0f°C. Drink water regularly.", temp)}, true
	default:
		return AlertEvent{}, false
	}
}

func coldAlert(temp float64, t Tiers) (AlertEvent, bool) {
	switch {
	case temp <= t.Severe:
		return AlertEvent{AlertExtremeCold, SeveritySevere,
			fmt.Sprintf("Extreme cold at %.0f°C. Limit time outside and cover exposed skin.", temp)}, true
	case temp <= t.Warning:
		return AlertEvent{AlertExtremeCold, SeverityWarning,
			fmt.Sprintf("Freezing conditions at %.0f°C. Dress in warm layers.", temp)}, true
	case temp <= t.Info:
		return AlertEvent{AlertExtremeCold, SeverityInfo,
			fmt.Sprintf("Chilly conditions at %.0f°C. Bring a warm layer.", temp)}, true
	default:
		return AlertEvent{}, false
	}
}

func windAlert(speed float64, t Tiers) (AlertEvent, bool) {
	switch {
	case speed >= t.Severe:
		return AlertEvent{AlertHighWind, SeveritySevere,
			fmt.Sprintf("Dangerously high wind at %.0f m/s. Stay clear of trees and unsecured structures.", speed)}, true
	case speed >= t.Warning:
		return AlertEvent{AlertHighWind, SeverityWarning,
			fmt.Sprintf("Strong wind at %.0f m/s. Secure loose items and take care outdoors.", speed)}, true
	case speed >= t.Info:
		return AlertEvent{AlertHighWind, SeverityInfo,
			fmt.Sprintf("Breezy conditions at %.0f m/s.", speed)}, true
	default:
		return AlertEvent{}, false
	}
}
