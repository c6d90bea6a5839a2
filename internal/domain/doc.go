// Package domain models outdoor-activity advisability from weather and
// air-quality observations.
//
// # Inputs
//
// A NormalizedObservation merges one weather reading with at most one
// pollutant reading for a location. Weather always comes from the weather
// provider; pollutants come from either the satellite-derived primary source
// or the ground/commercial fallback, never both. The observation records
// which source won. An observation with no pollutant data at all is still
// valid (degraded mode) and is scored on weather alone.
//
// # Units
//
//	Temperature:    degrees Celsius
//	Wind speed:     meters per second
//	Humidity:       percent (0-100)
//	Pressure:       hectopascals
//	Concentrations: micrograms per cubic meter (all pollutants, CO included)
//	Times:          UTC
//
// The only imputed weather field is feels-like, which defaults to the
// dry-bulb temperature when the provider omits it. Pollutant fields are
// never imputed: a missing reading stays missing and scores neutrally.
//
// # Scoring
//
// Score starts at 100 and subtracts labeled deductions: temperature outside
// the activity's comfort band, wind above the activity's limit, humid heat,
// adverse conditions (storm, rain, snow, mist), and air quality. The
// air-quality deduction grows with the dominant pollutant's concentration
// relative to its health breakpoints and is the only deduction scaled by the
// user's sensitivity (none x1.0, moderate x1.5, high x2.0 by default).
// Children and older adults are treated as at least moderately sensitive.
// The final value is clamped to 0-100 and mapped to a status:
//
//	>= 70  recommended
//	>= 40  caution
//	else   not-recommended
//
// # Air Quality Bands
//
// Per-pollutant breakpoint tables (EPA NAAQS-informed defaults, all
// configurable through the Ruleset) bucket a concentration into good,
// moderate, unhealthy-for-sensitive-groups, unhealthy, or very-unhealthy.
// The dominant pollutant is the one with the highest ratio of concentration
// to its unhealthy breakpoint. A concentration exactly at a breakpoint
// belongs to the higher band.
//
// # Alerts
//
// Five independent alert kinds: storm, extreme-heat, extreme-cold,
// poor-air-quality, high-wind. Numeric kinds have three tiers and only the
// highest satisfied tier fires; a value exactly at a threshold belongs to
// the higher tier. Default tiers:
//
//	Heat:  >= 30C info | >= 34C warning | >= 38C severe
//	Cold:  <=  5C info | <=  0C warning | <= -10C severe
//	Wind:  >=  8 m/s info | >= 12 m/s warning | >= 17 m/s severe
//	Storm: storm condition severe | snow warning | rain info
//	Air:   moderate info | sensitive-groups warning | unhealthy+ severe
//
// Alerts sort severity-descending, then by fixed kind order for equal
// severities. Unknown pollutant data suppresses the poor-air-quality kind.
//
// # Determinism
//
// Score, Alerts, Interpret, and Summary are pure: identical inputs produce
// identical outputs. Nothing in this package reads the clock except
// Normalize, which stamps the observation's FetchedAt; tests freeze that
// via [SetClock].
package domain
