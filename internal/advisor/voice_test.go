package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/resolve"
)

func TestAdviseVoiceLocatedTranscript(t *testing.T) {
	resolver := &mockResolver{obs: mildObservation()}
	geo := &mockGeocoder{
		forwardResult: domain.GeocodingResult{
			Location:         domain.Location{Name: "Denver", Lat: 39.74, Lon: -104.99},
			FormattedAddress: "Denver, Colorado, United States",
			Confidence:       0.95,
		},
	}
	svc := newTestService(resolver, geo, nil)

	resp, err := svc.AdviseVoice(context.Background(), VoiceRequest{
		Transcript: "how's it looking for a run in Denver",
		State:      domain.StateIdle,
		Profile:    domain.UserProfile{Activity: domain.ActivityWalking},
	})

	require.NoError(t, err)
	assert.Equal(t, "Denver", resp.Command.Location)
	assert.Equal(t, domain.ActivityRunning, resp.Command.Activity)
	assert.Equal(t, domain.StateResponding, resp.State)
	require.NotNil(t, resp.Advice)
	assert.Contains(t, resp.Advice.Summary, "For running", "spoken activity overrides the profile")
	assert.Empty(t, resp.Prompt)
}

func TestAdviseVoiceUnlocatedTranscript(t *testing.T) {
	resolver := &mockResolver{obs: mildObservation()}
	geo := &mockGeocoder{}
	svc := newTestService(resolver, geo, nil)

	resp, err := svc.AdviseVoice(context.Background(), VoiceRequest{
		Transcript: "hello",
		State:      domain.StateIdle,
		Profile:    domain.UserProfile{Activity: domain.ActivityWalking},
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Command.Location)
	assert.Equal(t, domain.StateListening, resp.State)
	assert.Nil(t, resp.Advice)
	assert.NotEmpty(t, resp.Prompt, "an unlocated command re-prompts instead of failing")
	assert.Equal(t, 0, geo.forwardCalls)
	assert.Equal(t, 0, resolver.calls)
}

func TestAdviseVoiceUnknownPlaceReprompts(t *testing.T) {
	resolver := &mockResolver{obs: mildObservation()}
	geo := &mockGeocoder{forwardResult: domain.GeocodingResult{}}
	svc := newTestService(resolver, geo, nil)

	resp, err := svc.AdviseVoice(context.Background(), VoiceRequest{
		Transcript: "what's the weather in Atlantis",
		State:      domain.StateResponding,
		Profile:    domain.UserProfile{Activity: domain.ActivityWalking},
	})

	require.NoError(t, err, "an unknown place is a conversational miss, not a failure")
	assert.Equal(t, "Atlantis", resp.Command.Location)
	assert.Nil(t, resp.Advice)
	assert.Contains(t, resp.Prompt, "Atlantis")
	assert.Equal(t, domain.StateIdle, resp.State, "a responding session winds down when the place is lost")
	assert.Equal(t, 0, resolver.calls)
}

func TestAdviseVoiceUpstreamErrorPassesThrough(t *testing.T) {
	resolver := &mockResolver{err: resolve.ErrAllSourcesUnavailable}
	geo := &mockGeocoder{
		forwardResult: domain.GeocodingResult{
			Location: domain.Location{Name: "Denver", Lat: 39.74, Lon: -104.99},
		},
	}
	svc := newTestService(resolver, geo, nil)

	_, err := svc.AdviseVoice(context.Background(), VoiceRequest{
		Transcript: "weather in Denver",
		State:      domain.StateIdle,
		Profile:    domain.UserProfile{Activity: domain.ActivityWalking},
	})

	assert.ErrorIs(t, err, resolve.ErrAllSourcesUnavailable)
}
