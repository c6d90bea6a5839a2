package domain

import (
	"fmt"
)

// ComfortBand is the temperature range an activity is comfortable in.
type ComfortBand struct {
	MinC float64 `yaml:"min_c"`
	MaxC float64 `yaml:"max_c"`
}

// ActivityRules holds the per-activity thresholds.
type ActivityRules struct {
	Comfort   ComfortBand `yaml:"comfort"`
	WindLimit float64     `yaml:"wind_limit"` // m/s
	// MistSensitive marks speed-based activities that take the visibility
	// penalty in mist.
	MistSensitive bool `yaml:"mist_sensitive"`
}

// Breakpoints is one pollutant's concentration band edges in µg/m³.
// A concentration exactly at an edge belongs to the higher band.
type Breakpoints struct {
	Moderate        float64 `yaml:"moderate"`
	SensitiveGroups float64 `yaml:"sensitive_groups"`
	Unhealthy       float64 `yaml:"unhealthy"`
	VeryUnhealthy   float64 `yaml:"very_unhealthy"`
}

// Band is the qualitative air-quality bucket for a concentration.
type Band string

const (
	BandGood            Band = "good"
	BandModerate        Band = "moderate"
	BandSensitiveGroups Band = "unhealthy-for-sensitive-groups"
	BandUnhealthy       Band = "unhealthy"
	BandVeryUnhealthy   Band = "very-unhealthy"
)

// BandFor buckets a concentration against the breakpoint row.
func (b Breakpoints) BandFor(conc float64) Band {
	switch {
	case conc >= b.VeryUnhealthy:
		return BandVeryUnhealthy
	case conc >= b.Unhealthy:
		return BandUnhealthy
	case conc >= b.SensitiveGroups:
		return BandSensitiveGroups
	case conc >= b.Moderate:
		return BandModerate
	default:
		return BandGood
	}
}

// ScoringRules holds the deduction sizes and pairing thresholds used by
// [Score].
type ScoringRules struct {
	// TempPenaltyPerDegC is deducted for each degree outside the comfort
	// band, up to TempPenaltyCap.
	TempPenaltyPerDegC float64 `yaml:"temp_penalty_per_deg_c"`
	TempPenaltyCap     float64 `yaml:"temp_penalty_cap"`

	// WindPenalty applies above the activity's wind limit;
	// WindExcessPenalty is added on top at WindExcessFactor times the limit.
	WindPenalty       float64 `yaml:"wind_penalty"`
	WindExcessPenalty float64 `yaml:"wind_excess_penalty"`
	WindExcessFactor  float64 `yaml:"wind_excess_factor"`

	// HumidityPenalty applies when humidity and temperature are both at or
	// above their pairing thresholds (humid heat).
	HumidityThreshold float64 `yaml:"humidity_threshold"` // percent
	HumidityHeatPairC float64 `yaml:"humidity_heat_pair_c"`
	HumidityPenalty   float64 `yaml:"humidity_penalty"`

	// ConditionPenalties deduct a flat amount per adverse condition.
	// MistPenalty applies only to mist-sensitive activities.
	ConditionPenalties map[Condition]float64 `yaml:"condition_penalties"`
	MistPenalty        float64               `yaml:"mist_penalty"`

	// AirPenaltyMax caps the unscaled air-quality deduction; the deduction
	// ramps linearly between breakpoints up to this maximum at the unhealthy
	// edge. Sensitivity multiplies the result afterwards.
	AirPenaltyMax float64                 `yaml:"air_penalty_max"`
	Sensitivity   map[Sensitivity]float64 `yaml:"sensitivity_multipliers"`

	// ModeratePenalty and SensitivePenalty anchor the ramp at the moderate
	// and sensitive-groups edges.
	ModeratePenalty  float64 `yaml:"moderate_penalty"`
	SensitivePenalty float64 `yaml:"sensitive_penalty"`

	// Status cutoffs: score >= RecommendedAt is recommended, >= CautionAt is
	// caution, anything lower is not-recommended.
	RecommendedAt int `yaml:"recommended_at"`
	CautionAt     int `yaml:"caution_at"`
}

// Tiers holds the three alert thresholds for one numeric alert kind.
// Heat and wind fire at or above a tier; cold fires at or below.
type Tiers struct {
	Info    float64 `yaml:"info"`
	Warning float64 `yaml:"warning"`
	Severe  float64 `yaml:"severe"`
}

// AlertRules holds the thresholds for the numeric alert kinds.
type AlertRules struct {
	Heat Tiers `yaml:"heat"` // °C
	Cold Tiers `yaml:"cold"` // °C
	Wind Tiers `yaml:"wind"` // m/s
}

// TipRules holds the thresholds past which the spoken summary appends a
// condition tip.
type TipRules struct {
	HeatC  float64 `yaml:"heat_c"`
	ColdC  float64 `yaml:"cold_c"`
	WindMS float64 `yaml:"wind_ms"`
}

// Ruleset is the full threshold configuration for scoring, alerting, and
// narration. Every number the advisor compares against lives here, not in
// code; [DefaultRuleset] documents the defaults and a YAML file can override
// them.
type Ruleset struct {
	Activities  map[Activity]ActivityRules `yaml:"activities"`
	Breakpoints map[Pollutant]Breakpoints  `yaml:"breakpoints"`
	Scoring     ScoringRules               `yaml:"scoring"`
	Alerts      AlertRules                 `yaml:"alerts"`
	Tips        TipRules                   `yaml:"tips"`
}

// DefaultRuleset returns the compiled-in thresholds. Comfort bands and wind
// limits reflect common exercise-physiology guidance; pollutant breakpoints
// follow the EPA NAAQS concentration tables.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Activities: map[Activity]ActivityRules{
			ActivityRunning:         {Comfort: ComfortBand{MinC: 5, MaxC: 28}, WindLimit: 8, MistSensitive: true},
			ActivityWalking:         {Comfort: ComfortBand{MinC: 0, MaxC: 30}, WindLimit: 10},
			ActivityCycling:         {Comfort: ComfortBand{MinC: 5, MaxC: 30}, WindLimit: 7, MistSensitive: true},
			ActivityOutdoorSports:   {Comfort: ComfortBand{MinC: 5, MaxC: 32}, WindLimit: 9},
			ActivityLightExercise:   {Comfort: ComfortBand{MinC: -5, MaxC: 33}, WindLimit: 10},
			ActivityOutdoorRest:     {Comfort: ComfortBand{MinC: -5, MaxC: 35}, WindLimit: 12},
			ActivityIndoorSensitive: {Comfort: ComfortBand{MinC: 10, MaxC: 35}, WindLimit: 14},
		},
		Breakpoints: map[Pollutant]Breakpoints{
			PollutantPM25: {Moderate: 12, SensitiveGroups: 35.5, Unhealthy: 55.5, VeryUnhealthy: 150.5},
			PollutantPM10: {Moderate: 55, SensitiveGroups: 155, Unhealthy: 255, VeryUnhealthy: 355},
			PollutantO3:   {Moderate: 101, SensitiveGroups: 131, Unhealthy: 161, VeryUnhealthy: 201},
			PollutantNO2:  {Moderate: 101, SensitiveGroups: 361, Unhealthy: 641, VeryUnhealthy: 1241},
			PollutantSO2:  {Moderate: 92, SensitiveGroups: 197, Unhealthy: 486, VeryUnhealthy: 797},
			PollutantCO:   {Moderate: 5000, SensitiveGroups: 10000, Unhealthy: 14000, VeryUnhealthy: 17500},
		},
		Scoring: ScoringRules{
			TempPenaltyPerDegC: 3,
			TempPenaltyCap:     30,
			WindPenalty:        15,
			WindExcessPenalty:  10,
			WindExcessFactor:   1.5,
			HumidityThreshold:  80,
			HumidityHeatPairC:  24,
			HumidityPenalty:    12,
			ConditionPenalties: map[Condition]float64{
				ConditionStorm: 50,
				ConditionRain:  25,
				ConditionSnow:  20,
			},
			MistPenalty:   8,
			AirPenaltyMax: 40,
			Sensitivity: map[Sensitivity]float64{
				SensitivityNone:     1.0,
				SensitivityModerate: 1.5,
				SensitivityHigh:     2.0,
			},
			ModeratePenalty:  5,
			SensitivePenalty: 20,
			RecommendedAt:    70,
			CautionAt:        40,
		},
		Alerts: AlertRules{
			Heat: Tiers{Info: 30, Warning: 34, Severe: 38},
			Cold: Tiers{Info: 5, Warning: 0, Severe: -10},
			Wind: Tiers{Info: 8, Warning: 12, Severe: 17},
		},
		Tips: TipRules{HeatC: 30, ColdC: 10, WindMS: 10},
	}
}

// Validate checks the ruleset's internal consistency: every activity
// covered, breakpoint rows ascending, multipliers at least 1, ordered tiers
// and cutoffs.
func (r Ruleset) Validate() error {
	for _, a := range Activities {
		rules, ok := r.Activities[a]
		if !ok {
			return fmt.Errorf("ruleset: no rules for activity %q", a)
		}
		if rules.Comfort.MinC >= rules.Comfort.MaxC {
			return fmt.Errorf("ruleset: activity %q comfort band min %.1f >= max %.1f", a, rules.Comfort.MinC, rules.Comfort.MaxC)
		}
		if rules.WindLimit <= 0 {
			return fmt.Errorf("ruleset: activity %q wind limit must be positive", a)
		}
	}
	for p, b := range r.Breakpoints {
		if !(b.Moderate < b.SensitiveGroups && b.SensitiveGroups < b.Unhealthy && b.Unhealthy < b.VeryUnhealthy) {
			return fmt.Errorf("ruleset: breakpoints for %q must be strictly ascending", p)
		}
		if b.Moderate <= 0 {
			return fmt.Errorf("ruleset: breakpoints for %q must be positive", p)
		}
	}
	for s, m := range r.Scoring.Sensitivity {
		if m < 1 {
			return fmt.Errorf("ruleset: sensitivity multiplier for %q is %.2f, must be >= 1", s, m)
		}
	}
	if r.Scoring.RecommendedAt <= r.Scoring.CautionAt {
		return fmt.Errorf("ruleset: recommended cutoff %d must be above caution cutoff %d", r.Scoring.RecommendedAt, r.Scoring.CautionAt)
	}
	if !(r.Alerts.Heat.Info < r.Alerts.Heat.Warning && r.Alerts.Heat.Warning < r.Alerts.Heat.Severe) {
		return fmt.Errorf("ruleset: heat tiers must be ascending")
	}
	if !(r.Alerts.Cold.Info > r.Alerts.Cold.Warning && r.Alerts.Cold.Warning > r.Alerts.Cold.Severe) {
		return fmt.Errorf("ruleset: cold tiers must be descending")
	}
	if !(r.Alerts.Wind.Info < r.Alerts.Wind.Warning && r.Alerts.Wind.Warning < r.Alerts.Wind.Severe) {
		return fmt.Errorf("ruleset: wind tiers must be ascending")
	}
	return nil
}

// DominantPollutant returns the pollutant with the highest ratio of
// concentration to its unhealthy breakpoint, scanning in canonical order so
// ties resolve deterministically. ok is false when no reading matches a
// known breakpoint row.
func DominantPollutant(conc map[Pollutant]float64, table map[Pollutant]Breakpoints) (Pollutant, float64, bool) {
	var (
		dom   Pollutant
		domC  float64
		ratio = -1.0
	)
	for _, p := range CanonicalPollutants {
		c, ok := conc[p]
		if !ok {
			continue
		}
		b, ok := table[p]
		if !ok || b.Unhealthy <= 0 {
			continue
		}
		if r := c / b.Unhealthy; r > ratio {
			dom, domC, ratio = p, c, r
		}
	}
	return dom, domC, ratio >= 0
}
