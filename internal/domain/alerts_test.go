package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertsQuietDay(t *testing.T) {
	got := Alerts(mildObservation(), DefaultRuleset())
	assert.Empty(t, got)
}

func TestHeatAlertTiers(t *testing.T) {
	rules := DefaultRuleset()

	tests := []struct {
		name     string
		temp     float64
		severity Severity
		fires    bool
	}{
		{"below info", 29.9, "", false},
		{"exactly at info", 30, SeverityInfo, true},
		{"between info and warning", 32, SeverityInfo, true},
		{"exactly at warning", 34, SeverityWarning, true},
		{"exactly at severe", 38, SeveritySevere, true},
		{"above severe", 45, SeveritySevere, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mildObservation()
			obs.TempC = tt.temp
			got := Alerts(obs, rules)

			if !tt.fires {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1, "exactly one tier of one kind must fire")
			assert.Equal(t, AlertExtremeHeat, got[0].Kind)
			assert.Equal(t, tt.severity, got[0].Severity)
			assert.NotEmpty(t, got[0].Message)
		})
	}
}

func TestColdAlertTiers(t *testing.T) {
	rules := DefaultRuleset()

	tests := []struct {
		name     string
		temp     float64
		severity Severity
	}{
		{"exactly at info", 5, SeverityInfo},
		{"exactly at warning", 0, SeverityWarning},
		{"between warning and severe", -5, SeverityWarning},
		{"exactly at severe", -10, SeveritySevere},
		{"far below severe", -30, SeveritySevere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mildObservation()
			obs.TempC = tt.temp
			got := Alerts(obs, rules)

			require.Len(t, got, 1)
			assert.Equal(t, AlertExtremeCold, got[0].Kind)
			assert.Equal(t, tt.severity, got[0].Severity)
		})
	}
}

func TestWindAlertTiers(t *testing.T) {
	rules := DefaultRuleset()

	tests := []struct {
		name     string
		speed    float64
		severity Severity
	}{
		{"exactly at info", 8, SeverityInfo},
		{"exactly at warning", 12, SeverityWarning},
		{"exactly at severe", 17, SeveritySevere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mildObservation()
			obs.WindSpeed = tt.speed
			got := Alerts(obs, rules)

			require.Len(t, got, 1)
			assert.Equal(t, AlertHighWind, got[0].Kind)
			assert.Equal(t, tt.severity, got[0].Severity)
		})
	}
}

func TestStormAlertByCondition(t *testing.T) {
	rules := DefaultRuleset()

	tests := []struct {
		condition Condition
		severity  Severity
		fires     bool
	}{
		{ConditionStorm, SeveritySevere, true},
		{ConditionSnow, SeverityWarning, true},
		{ConditionRain, SeverityInfo, true},
		{ConditionClear, "", false},
		{ConditionMist, "", false},
		{ConditionUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.condition), func(t *testing.T) {
			obs := mildObservation()
			obs.Condition = tt.condition
			got := Alerts(obs, rules)

			if !tt.fires {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, AlertStorm, got[0].Kind)
			assert.Equal(t, tt.severity, got[0].Severity)
		})
	}
}

func TestAirQualityAlert(t *testing.T) {
	rules := DefaultRuleset()

	t.Run("unknown pollutants suppress the alert", func(t *testing.T) {
		got := Alerts(mildObservation(), rules)
		assert.Empty(t, got)

		obs := withPollutants(mildObservation(), SourceFallback, map[Pollutant]float64{
			Pollutant("nh3"): 900,
		})
		assert.Empty(t, Alerts(obs, rules))
	})

	t.Run("good air fires nothing", func(t *testing.T) {
		obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
			PollutantPM25: 5,
		})
		assert.Empty(t, Alerts(obs, rules))
	})

	t.Run("moderate band is info", func(t *testing.T) {
		obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
			PollutantPM25: 20,
		})
		got := Alerts(obs, rules)

		require.Len(t, got, 1)
		assert.Equal(t, AlertPoorAirQuality, got[0].Kind)
		assert.Equal(t, SeverityInfo, got[0].Severity)
	})

	t.Run("sensitive-groups band is warning", func(t *testing.T) {
		obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
			PollutantPM25: 40,
		})
		got := Alerts(obs, rules)

		require.Len(t, got, 1)
		assert.Equal(t, SeverityWarning, got[0].Severity)
		assert.Contains(t, got[0].Message, "sensitive groups")
	})

	t.Run("unhealthy band is severe", func(t *testing.T) {
		obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
			PollutantPM25: 60,
		})
		got := Alerts(obs, rules)

		require.Len(t, got, 1)
		assert.Equal(t, SeveritySevere, got[0].Severity)
		assert.Contains(t, got[0].Message, "pm2_5")
	})
}

func TestAlertsOrderedBySeverity(t *testing.T) {
	rules := DefaultRuleset()
	obs := withPollutants(mildObservation(), SourceFallback, map[Pollutant]float64{
		PollutantPM25: 40, // warning
	})
	obs.Condition = ConditionStorm // severe
	obs.TempC = 38                 // severe heat
	obs.WindSpeed = 13             // warning wind

	got := Alerts(obs, rules)
	require.Len(t, got, 4)

	assert.Equal(t, AlertStorm, got[0].Kind)
	assert.Equal(t, SeveritySevere, got[0].Severity)
	assert.Equal(t, AlertExtremeHeat, got[1].Kind)
	assert.Equal(t, SeveritySevere, got[1].Severity)
	assert.Equal(t, AlertPoorAirQuality, got[2].Kind)
	assert.Equal(t, SeverityWarning, got[2].Severity)
	assert.Equal(t, AlertHighWind, got[3].Kind)
	assert.Equal(t, SeverityWarning, got[3].Severity)
}

func TestAlertsDeterministic(t *testing.T) {
	rules := DefaultRuleset()
	obs := withPollutants(mildObservation(), SourcePrimary, map[Pollutant]float64{
		PollutantPM25: 40,
		PollutantO3:   170,
	})
	obs.TempC = 36
	obs.WindSpeed = 12

	first := Alerts(obs, rules)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Alerts(obs, rules))
	}
}
