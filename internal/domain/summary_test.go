package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryNarratesTheFullPicture(t *testing.T) {
	rules := DefaultRuleset()
	obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
		PollutantPM25: 40,
	})
	obs.FeelsLikeC = 23
	obs.Description = "scattered clouds"
	obs.Sunrise = time.Date(2026, 7, 14, 5, 42, 0, 0, time.UTC)
	obs.Sunset = time.Date(2026, 7, 14, 20, 15, 0, 0, time.UTC)

	profile := runnerProfile()
	score := Score(obs, profile, rules)
	alerts := Alerts(obs, rules)

	got := Summary(obs, profile, score, alerts, rules)

	assert.Contains(t, got, "Here's the outlook for Denver.")
	assert.Contains(t, got, "It's 20 degrees, feeling like 23.")
	assert.Contains(t, got, "scattered clouds")
	assert.Contains(t, got, "Humidity is 50 percent.")
	assert.Contains(t, got, "Wind at 3.0 meters per second.")
	assert.Contains(t, got, "Pressure 1015 hectopascals.")
	assert.Contains(t, got, "Sunrise at 05:42, sunset at 20:15.")
	assert.Contains(t, got, "unhealthy for sensitive groups")
	assert.Contains(t, got, "fine particulate matter at 40.0 micrograms per cubic meter")
	assert.Contains(t, got, "For running, conditions are")
	assert.Contains(t, got, "out of 100")
	// Alert messages ride along verbatim.
	require.NotEmpty(t, alerts)
	assert.Contains(t, got, alerts[0].Message)
}

func TestSummaryDegradedMode(t *testing.T) {
	rules := DefaultRuleset()
	obs := mildObservation()
	profile := runnerProfile()
	score := Score(obs, profile, rules)

	got := Summary(obs, profile, score, nil, rules)

	assert.Contains(t, got, "Air quality data is currently unavailable.")
	assert.NotContains(t, got, "micrograms")
}

func TestSummarySkipsEqualFeelsLike(t *testing.T) {
	rules := DefaultRuleset()
	obs := mildObservation()
	profile := runnerProfile()

	got := Summary(obs, profile, Score(obs, profile, rules), nil, rules)

	assert.Contains(t, got, "It's 20 degrees.")
	assert.NotContains(t, got, "feeling like")
}

func TestSummaryTips(t *testing.T) {
	rules := DefaultRuleset()
	profile := runnerProfile()

	t.Run("heat tip", func(t *testing.T) {
		obs := mildObservation()
		obs.TempC = 33
		obs.FeelsLikeC = 33
		got := Summary(obs, profile, Score(obs, profile, rules), nil, rules)

		assert.Contains(t, got, "stay hydrated")
	})

	t.Run("cold tip", func(t *testing.T) {
		obs := mildObservation()
		obs.TempC = 2
		obs.FeelsLikeC = 2
		got := Summary(obs, profile, Score(obs, profile, rules), nil, rules)

		assert.Contains(t, got, "Dress warmly")
	})

	t.Run("wind tip", func(t *testing.T) {
		obs := mildObservation()
		obs.WindSpeed = 11
		got := Summary(obs, profile, Score(obs, profile, rules), nil, rules)

		assert.Contains(t, got, "wind")
	})

	t.Run("mild day carries no tips", func(t *testing.T) {
		obs := mildObservation()
		got := Summary(obs, profile, Score(obs, profile, rules), nil, rules)

		assert.NotContains(t, got, "stay hydrated")
		assert.NotContains(t, got, "Dress warmly")
	})
}

func TestSummaryDeterministic(t *testing.T) {
	rules := DefaultRuleset()
	obs := withPollutants(mildObservation(), SourceFallback, map[Pollutant]float64{
		PollutantPM25: 62,
		PollutantO3:   90,
	})
	obs.TempC = 36
	obs.FeelsLikeC = 39
	profile := UserProfile{Activity: ActivityCycling, Sensitivity: SensitivityHigh}
	score := Score(obs, profile, rules)
	alerts := Alerts(obs, rules)

	first := Summary(obs, profile, score, alerts, rules)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Summary(obs, profile, score, alerts, rules))
	}
}
