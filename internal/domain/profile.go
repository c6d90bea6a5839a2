package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField reports an enum value outside the vocabulary, e.g. an
// activity or sensitivity the advisor does not know. Callers surface it as
// invalid input rather than guessing.
var ErrUnknownField = errors.New("unknown field value")

// Activity identifies the outdoor activity an advisory is scored for.
type Activity string

const (
	ActivityRunning         Activity = "running"
	ActivityWalking         Activity = "walking"
	ActivityCycling         Activity = "cycling"
	ActivityOutdoorSports   Activity = "outdoor-sports"
	ActivityLightExercise   Activity = "light-exercise"
	ActivityOutdoorRest     Activity = "outdoor-rest"
	ActivityIndoorSensitive Activity = "indoor-sensitive"
)

// Activities lists every supported activity in canonical order.
var Activities = []Activity{
	ActivityRunning,
	ActivityWalking,
	ActivityCycling,
	ActivityOutdoorSports,
	ActivityLightExercise,
	ActivityOutdoorRest,
	ActivityIndoorSensitive,
}

// ParseActivity normalizes a user-supplied activity string. Underscores and
// spaces are accepted in place of hyphens.
func ParseActivity(s string) (Activity, error) {
	a := Activity(canonicalToken(s))
	for _, known := range Activities {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: activity %q", ErrUnknownField, s)
}

// Sensitivity is the user's self-reported sensitivity to air pollution.
type Sensitivity string

const (
	SensitivityNone     Sensitivity = "none"
	SensitivityModerate Sensitivity = "moderate"
	SensitivityHigh     Sensitivity = "high"
)

// ParseSensitivity normalizes a user-supplied sensitivity string. Empty
// input means none.
func ParseSensitivity(s string) (Sensitivity, error) {
	switch v := Sensitivity(canonicalToken(s)); v {
	case "":
		return SensitivityNone, nil
	case SensitivityNone, SensitivityModerate, SensitivityHigh:
		return v, nil
	default:
		return "", fmt.Errorf("%w: sensitivity %q", ErrUnknownField, s)
	}
}

// AgeBracket is the user's optional age group. It only ever raises the
// effective sensitivity, never lowers it.
type AgeBracket string

const (
	AgeUnspecified AgeBracket = ""
	AgeChild       AgeBracket = "child"
	AgeAdult       AgeBracket = "adult"
	AgeOlderAdult  AgeBracket = "older-adult"
)

// ParseAgeBracket normalizes a user-supplied age bracket string. Empty input
// means unspecified.
func ParseAgeBracket(s string) (AgeBracket, error) {
	switch v := AgeBracket(canonicalToken(s)); v {
	case AgeUnspecified, AgeChild, AgeAdult, AgeOlderAdult:
		return v, nil
	default:
		return "", fmt.Errorf("%w: age bracket %q", ErrUnknownField, s)
	}
}

// UserProfile is the per-request description of who is asking and what they
// want to do. It is supplied with each request and never stored.
type UserProfile struct {
	Activity    Activity    `json:"activity"`
	Sensitivity Sensitivity `json:"sensitivity"`
	Age         AgeBracket  `json:"age,omitempty"`
}

// Validate checks every enum field against its vocabulary.
func (p UserProfile) Validate() error {
	if _, err := ParseActivity(string(p.Activity)); err != nil {
		return err
	}
	if _, err := ParseSensitivity(string(p.Sensitivity)); err != nil {
		return err
	}
	if _, err := ParseAgeBracket(string(p.Age)); err != nil {
		return err
	}
	return nil
}

// EffectiveSensitivity folds the age bracket into the sensitivity level.
// Children and older adults are treated as at least moderately sensitive,
// following EPA sensitive-groups guidance. An explicit moderate or high
// level is never changed.
func (p UserProfile) EffectiveSensitivity() Sensitivity {
	if p.Sensitivity == SensitivityNone && (p.Age == AgeChild || p.Age == AgeOlderAdult) {
		return SensitivityModerate
	}
	if p.Sensitivity == "" {
		if p.Age == AgeChild || p.Age == AgeOlderAdult {
			return SensitivityModerate
		}
		return SensitivityNone
	}
	return p.Sensitivity
}

// canonicalToken lowercases and hyphenates a user-supplied enum token so
// "Outdoor Sports" and "outdoor_sports" both parse.
func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}
