package domain

import (
	"fmt"
	"strings"
)

// speechNames spells pollutants out for the synthesizer; "pm2_5" reads
// badly aloud.
var speechNames = map[Pollutant]string{
	PollutantPM25: "fine particulate matter",
	PollutantPM10: "coarse particulate matter",
	PollutantO3:   "ozone",
	PollutantNO2:  "nitrogen dioxide",
	PollutantSO2:  "sulfur dioxide",
	PollutantCO:   "carbon monoxide",
}

var bandSpeech = map[Band]string{
	BandGood:            "good",
	BandModerate:        "moderate",
	BandSensitiveGroups: "unhealthy for sensitive groups",
	BandUnhealthy:       "unhealthy",
	BandVeryUnhealthy:   "very unhealthy",
}

var statusSpeech = map[Status]string{
	StatusRecommended:    "looking good",
	StatusCaution:        "doable with caution",
	StatusNotRecommended: "not recommended",
}

// Summary renders one observation, score, and alert set as the plain
// sentence sequence handed to the speech synthesizer. Pure: same inputs,
// same text. The narration order is fixed: place, temperature, conditions,
// humidity, wind, pressure, sun times, air quality, recommendation, alerts,
// tips.
func Summary(obs NormalizedObservation, profile UserProfile, score AdvisabilityScore, alerts []AlertEvent, rules Ruleset) string {
	var b strings.Builder

	write := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte(' ')
	}

	write("Here's the outlook for %s.", obs.Location.Label())

	if diff := obs.FeelsLikeC - obs.TempC; diff >= 0.5 || diff <= -0.5 {
		write("It's %.0f degrees, feeling like %.0f.", obs.TempC, obs.FeelsLikeC)
	} else {
		write("It's %.0f degrees.", obs.TempC)
	}

	if obs.Description != "" {
		write("Conditions: %s.", obs.Description)
	} else if obs.Condition != ConditionUnknown && obs.Condition != "" {
		write("Conditions: %s.", obs.Condition)
	}

	write("Humidity is %.0f percent.", obs.Humidity)
	write("Wind at %.1f meters per second.", obs.WindSpeed)
	if obs.Pressure > 0 {
		write("Pressure %.0f hectopascals.", obs.Pressure)
	}
	if !obs.Sunrise.IsZero() && !obs.Sunset.IsZero() {
		write("Sunrise at %s, sunset at %s.",
			obs.Sunrise.UTC().Format("15:04"), obs.Sunset.UTC().Format("15:04"))
	}

	if dom, conc, ok := airReading(obs, rules); ok {
		band := rules.Breakpoints[dom].BandFor(conc)
		write("Air quality is %s, with %s at %.1f micrograms per cubic meter.",
			bandSpeech[band], speechNames[dom], conc)
	} else {
		write("Air quality data is currently unavailable.")
	}

	write("For %s, conditions are %s, scoring %d out of 100.",
		spokenActivity(profile.Activity), statusSpeech[score.Status], score.Value)
	if len(score.Rationale) > 0 && score.Value < 100 {
		write("Main factor: %s.", score.Rationale[0])
	}

	for _, a := range alerts {
		write("%s", a.Message)
	}

	if obs.TempC >= rules.Tips.HeatC {
		write("Remember to stay hydrated.")
	}
	if obs.TempC <= rules.Tips.ColdC {
		write("Dress warmly before heading out.")
	}
	if obs.WindSpeed >= rules.Tips.WindMS {
		write("Hold on to hats and loose layers in this wind.")
	}

	return strings.TrimSpace(b.String())
}

// airReading picks the dominant pollutant for narration, mirroring the
// scoring choice so the spoken verdict matches the deduction.
func airReading(obs NormalizedObservation, rules Ruleset) (Pollutant, float64, bool) {
	if !obs.HasPollutants() {
		return "", 0, false
	}
	return DominantPollutant(obs.Pollutants, rules.Breakpoints)
}

// spokenActivity renders the activity enum as natural speech.
func spokenActivity(a Activity) string {
	return strings.ReplaceAll(string(a), "-", " ")
}
