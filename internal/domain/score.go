package domain

import (
	"fmt"
	"math"
	"sort"
)

// Status is the coarse recommendation derived from a score value.
type Status string

const (
	StatusRecommended    Status = "recommended"
	StatusCaution        Status = "caution"
	StatusNotRecommended Status = "not-recommended"
)

// AdvisabilityScore is the 0-100 verdict for one observation and profile.
// Rationale lists the contributing deductions in descending impact order,
// with ties kept in evaluation order.
type AdvisabilityScore struct {
	Value     int      `json:"value"`
	Status    Status   `json:"status"`
	Rationale []string `json:"rationale"`
}

// deduction is one labeled subtraction from the base score.
type deduction struct {
	label  string
	points float64
}

// Score computes the advisability of an activity under an observation. It is
// pure and deterministic: no clock, no randomness, no error path. Unknown
// pollutant data contributes exactly zero and is called out in the
// rationale; it is never guessed.
func Score(obs NormalizedObservation, profile UserProfile, rules Ruleset) AdvisabilityScore {
	var deds []deduction
	var notes []string

	if act, ok := rules.Activities[profile.Activity]; ok {
		if d, outside := tempDeduction(obs.TempC, act.Comfort, rules.Scoring); outside {
			deds = append(deds, d)
		}
		if obs.WindSpeed >= act.WindLimit {
			points := rules.Scoring.WindPenalty
			if obs.WindSpeed >= act.WindLimit*rules.Scoring.WindExcessFactor {
				points += rules.Scoring.WindExcessPenalty
			}
			deds = append(deds, deduction{
				label:  fmt.Sprintf("wind %.1f m/s at or above the %.0f m/s limit for %s", obs.WindSpeed, act.WindLimit, profile.Activity),
				points: points,
			})
		}
		if obs.Condition == ConditionMist && act.MistSensitive {
			deds = append(deds, deduction{label: "mist reduces visibility", points: rules.Scoring.MistPenalty})
		}
	}

	if obs.Humidity >= rules.Scoring.HumidityThreshold && obs.TempC >= rules.Scoring.HumidityHeatPairC {
		deds = append(deds, deduction{
			label:  fmt.Sprintf("humid heat: %.0f%% humidity at %.1f°C", obs.Humidity, obs.TempC),
			points: rules.Scoring.HumidityPenalty,
		})
	}

	if points, ok := rules.Scoring.ConditionPenalties[obs.Condition]; ok && points > 0 {
		deds = append(deds, deduction{
			label:  fmt.Sprintf("%s conditions", obs.Condition),
			points: points,
		})
	}

	if d, note := airDeduction(obs, profile, rules); note != "" {
		notes = append(notes, note)
	} else if d.points > 0 {
		deds = append(deds, d)
	}

	sort.SliceStable(deds, func(i, j int) bool { return deds[i].points > deds[j].points })

	total := 100.0
	rationale := make([]string, 0, len(deds)+len(notes))
	for _, d := range deds {
		total -= d.points
		rationale = append(rationale, fmt.Sprintf("%s: -%.0f", d.label, d.points))
	}
	rationale = append(rationale, notes...)

	value := int(math.Round(total))
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	return AdvisabilityScore{
		Value:     value,
		Status:    statusFor(value, rules.Scoring),
		Rationale: rationale,
	}
}

// tempDeduction charges per degree outside the comfort band, capped.
func tempDeduction(temp float64, band ComfortBand, s ScoringRules) (deduction, bool) {
	var outside float64
	var side string
	switch {
	case temp < band.MinC:
		outside = band.MinC - temp
		side = "below"
	case temp > band.MaxC:
		outside = temp - band.MaxC
		side = "above"
	default:
		return deduction{}, false
	}

	points := outside * s.TempPenaltyPerDegC
	if points > s.TempPenaltyCap {
		points = s.TempPenaltyCap
	}
	return deduction{
		label:  fmt.Sprintf("temperature %.1f°C %s the %.0f to %.0f°C comfort band", temp, side, band.MinC, band.MaxC),
		points: points,
	}, true
}

// airDeduction computes the sensitivity-scaled air-quality deduction, or a
// rationale note when pollutant data is unknown.
func airDeduction(obs NormalizedObservation, profile UserProfile, rules Ruleset) (deduction, string) {
	const unavailable = "air quality data unavailable, not counted against the score"

	if !obs.HasPollutants() {
		return deduction{}, unavailable
	}
	dom, conc, ok := DominantPollutant(obs.Pollutants, rules.Breakpoints)
	if !ok {
		return deduction{}, unavailable
	}

	bp := rules.Breakpoints[dom]
	base := airPenalty(conc, bp, rules.Scoring)
	if base <= 0 {
		return deduction{}, ""
	}

	mult, ok := rules.Scoring.Sensitivity[profile.EffectiveSensitivity()]
	if !ok {
		mult = 1
	}
	return deduction{
		label:  fmt.Sprintf("air quality %s (%s %.1f µg/m³)", bp.BandFor(conc), dom, conc),
		points: base * mult,
	}, ""
}

// airPenalty ramps linearly between the breakpoint anchors: zero at zero
// concentration, ModeratePenalty at the moderate edge, SensitivePenalty at
// the sensitive-groups edge, and AirPenaltyMax from the unhealthy edge up.
// Monotone nondecreasing in concentration.
func airPenalty(conc float64, b Breakpoints, s ScoringRules) float64 {
	switch {
	case conc <= 0:
		return 0
	case conc < b.Moderate:
		return lerp(conc, 0, b.Moderate, 0, s.ModeratePenalty)
	case conc < b.SensitiveGroups:
		return lerp(conc, b.Moderate, b.SensitiveGroups, s.ModeratePenalty, s.SensitivePenalty)
	case conc < b.Unhealthy:
		return lerp(conc, b.SensitiveGroups, b.Unhealthy, s.SensitivePenalty, s.AirPenaltyMax)
	default:
		return s.AirPenaltyMax
	}
}

func lerp(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}

func statusFor(value int, s ScoringRules) Status {
	switch {
	case value >= s.RecommendedAt:
		return StatusRecommended
	case value >= s.CautionAt:
		return StatusCaution
	default:
		return StatusNotRecommended
	}
}
