package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// RecognitionState is the explicit phase of a voice exchange. The speech
// client sends its current state with each transcript and receives the next
// state back; nothing about listening is kept as shared service state.
type RecognitionState string

const (
	StateIdle       RecognitionState = "idle"
	StateListening  RecognitionState = "listening"
	StateResponding RecognitionState = "responding"
)

// ParseRecognitionState normalizes a client-supplied state. Empty input
// means idle.
func ParseRecognitionState(s string) (RecognitionState, error) {
	switch v := RecognitionState(canonicalToken(s)); v {
	case "":
		return StateIdle, nil
	case StateIdle, StateListening, StateResponding:
		return v, nil
	default:
		return "", fmt.Errorf("%w: recognition state %q", ErrUnknownField, s)
	}
}

// VoiceCommand is the interpreter's reading of one transcript. A command
// without a location is a recoverable outcome, not an error: Note explains
// what was missing so the caller can re-prompt.
type VoiceCommand struct {
	Transcript string   `json:"transcript"`
	Location   string   `json:"location,omitempty"`
	Activity   Activity `json:"activity,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// NextRecognitionState advances the voice exchange after interpreting a
// command: a located command moves to responding, an unlocated one re-arms
// listening, and an unlocated command while responding settles back to idle.
func NextRecognitionState(cur RecognitionState, cmd VoiceCommand) RecognitionState {
	switch {
	case cmd.Location != "":
		return StateResponding
	case cur == StateResponding:
		return StateIdle
	default:
		return StateListening
	}
}

var (
	// placeRe captures the place after the last locating preposition, e.g.
	// "what's the air quality like in New York?" -> "New York". The lazy
	// capture plus the end anchor drops trailing punctuation.
	placeRe = regexp.MustCompile(`(?i)^.*\b(?:in|at|for|near|around)\s+([a-z][a-z .'-]*?)[\s?.!,]*$`)

	tokenTrim = regexp.MustCompile(`^[^a-zA-Z]+|[^a-zA-Z]+$`)
)

// fillerWords are tokens that never belong to a place name: greetings,
// articles, weather vocabulary, activity words, and time words. A candidate
// place that filters down to nothing is treated as no location.
var fillerWords = map[string]bool{
	"hello": true, "hi": true, "hey": true, "thanks": true, "please": true,
	"a": true, "an": true, "the": true, "my": true, "me": true, "it": true,
	"is": true, "its": true, "are": true, "you": true, "we": true,
	"whats": true, "what": true, "hows": true, "how": true, "can": true,
	"i": true, "go": true, "going": true, "like": true, "looking": true,
	"in": true, "at": true, "for": true, "near": true, "around": true,
	"on": true, "to": true, "and": true, "or": true, "about": true,
	"today": true, "tonight": true, "tomorrow": true, "now": true,
	"there": true, "here": true, "out": true, "outside": true,
	"weather": true, "air": true, "quality": true, "aqi": true,
	"pollution": true, "forecast": true, "conditions": true,
	"temperature": true, "good": true, "bad": true, "safe": true,
	"tell": true, "check": true, "give": true, "show": true,
	"run": true, "running": true, "jog": true, "jogging": true,
	"walk": true, "walking": true, "stroll": true, "hike": true,
	"hiking": true, "bike": true, "biking": true, "cycle": true,
	"cycling": true, "ride": true, "riding": true, "picnic": true,
	"exercise": true, "workout": true, "yoga": true,
}

// activityKeywords maps spoken activity words to the activity they select.
var activityKeywords = map[string]Activity{
	"run": ActivityRunning, "running": ActivityRunning,
	"jog": ActivityRunning, "jogging": ActivityRunning,
	"walk": ActivityWalking, "walking": ActivityWalking,
	"stroll": ActivityWalking, "hike": ActivityWalking, "hiking": ActivityWalking,
	"bike": ActivityCycling, "biking": ActivityCycling,
	"cycle": ActivityCycling, "cycling": ActivityCycling,
	"ride": ActivityCycling, "riding": ActivityCycling,
	"soccer": ActivityOutdoorSports, "football": ActivityOutdoorSports,
	"tennis": ActivityOutdoorSports, "basketball": ActivityOutdoorSports,
	"game": ActivityOutdoorSports,
	"yoga": ActivityLightExercise, "stretch": ActivityLightExercise,
	"picnic": ActivityOutdoorRest, "barbecue": ActivityOutdoorRest,
	"bbq": ActivityOutdoorRest,
}

// Interpret extracts a location and an optional activity from a voice
// transcript. Pure string processing: no geocoding, no network, no state.
// An empty Location with a Note means the transcript had no usable place and
// the caller should re-prompt.
func Interpret(transcript string) VoiceCommand {
	cmd := VoiceCommand{Transcript: transcript}

	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		cmd.Note = "I didn't catch anything. Which place would you like to check?"
		return cmd
	}

	if a, ok := extractActivity(trimmed); ok {
		cmd.Activity = a
	}

	if place, ok := extractPlace(trimmed); ok {
		cmd.Location = place
		return cmd
	}

	cmd.Note = "I didn't hear a place name. Which city or area should I check?"
	return cmd
}

// extractActivity scans the transcript tokens for an activity keyword. The
// first match in token order wins.
func extractActivity(transcript string) (Activity, bool) {
	for _, tok := range strings.Fields(strings.ToLower(transcript)) {
		tok = tokenTrim.ReplaceAllString(tok, "")
		if a, ok := activityKeywords[tok]; ok {
			return a, true
		}
	}
	return "", false
}

// extractPlace finds a place name, first after a locating preposition, then
// by filtering the whole transcript down to non-filler tokens.
func extractPlace(transcript string) (string, bool) {
	if m := placeRe.FindStringSubmatch(transcript); len(m) == 2 {
		if place, ok := cleanPlace(m[1]); ok {
			return place, true
		}
	}

	// Bare-place fallback: "Denver", "Paris weather".
	if place, ok := cleanPlace(transcript); ok {
		return place, true
	}
	return "", false
}

// cleanPlace drops filler tokens from a candidate and title-cases the rest.
// Candidates that filter down to nothing, or stay implausibly long, are
// rejected.
func cleanPlace(candidate string) (string, bool) {
	var kept []string
	for _, tok := range strings.Fields(candidate) {
		tok = tokenTrim.ReplaceAllString(tok, "")
		if tok == "" {
			continue
		}
		key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(tok, "'", ""), ".", ""))
		if fillerWords[key] {
			continue
		}
		kept = append(kept, titleToken(tok))
	}
	if len(kept) == 0 || len(kept) > 4 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

// titleToken uppercases the first letter and lowercases the rest, so
// "NEW" and "york" both render as place-name words.
func titleToken(tok string) string {
	runes := []rune(tok)
	for i, r := range runes {
		if i == 0 {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
	}
	return string(runes)
}
