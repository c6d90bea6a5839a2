package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisalabs/air-advisor/internal/domain"
)

func TestAlertMessages(t *testing.T) {
	observed := time.Date(2026, 7, 14, 12, 0, 0, 0, time.UTC)
	loc := domain.Location{Name: "Denver", Lat: 39.74, Lon: -104.99}
	alerts := []domain.AlertEvent{
		{Kind: domain.AlertExtremeHeat, Severity: domain.SeveritySevere, Message: "Extreme heat. Stay indoors during peak hours."},
		{Kind: domain.AlertHighWind, Severity: domain.SeverityWarning, Message: "Strong wind. Secure loose objects."},
	}

	msgs, err := alertMessages(loc, observed, alerts)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, []byte("Denver"), msgs[0].Key)
	assert.Contains(t, string(msgs[0].Value), `"kind":"extreme-heat"`)
	assert.Contains(t, string(msgs[0].Value), `"severity":"severe"`)
	assert.Contains(t, string(msgs[0].Value), `"place":"Denver"`)
	assert.Contains(t, string(msgs[0].Value), `"observed_at":"2026-07-14T12:00:00Z"`)

	require.Len(t, msgs[0].Headers, 2)
	assert.Equal(t, "kind", msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("extreme-heat"), msgs[0].Headers[0].Value)
	assert.Equal(t, "severity", msgs[0].Headers[1].Key)
	assert.Equal(t, []byte("severe"), msgs[0].Headers[1].Value)

	assert.Equal(t, []byte("Denver"), msgs[1].Key)
	assert.Contains(t, string(msgs[1].Value), `"kind":"high-wind"`)
}

func TestAlertMessagesKeyFallsBackToCoordinates(t *testing.T) {
	loc := domain.Location{Lat: 39.74, Lon: -104.99}
	alerts := []domain.AlertEvent{
		{Kind: domain.AlertStorm, Severity: domain.SeveritySevere, Message: "Storm conditions."},
	}

	msgs, err := alertMessages(loc, time.Now(), alerts)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, []byte("39.7400, -104.9900"), msgs[0].Key)
	assert.NotContains(t, string(msgs[0].Value), `"place"`)
}

func TestPublishAlertsEmptyBatchIsNoop(t *testing.T) {
	// The writer is nil; touching it would panic.
	p := &Publisher{}

	err := p.PublishAlerts(context.Background(), domain.Location{Name: "Denver"}, time.Now(), nil)
	assert.NoError(t, err)
}
