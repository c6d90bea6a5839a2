package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/brisalabs/air-advisor/internal/domain"
)

// VoiceRequest is one transcript plus the client's current recognition
// state and base profile.
type VoiceRequest struct {
	Transcript string
	State      domain.RecognitionState
	Profile    domain.UserProfile
}

// VoiceResponse pairs the interpreted command with the next recognition
// state and either the advice or a re-prompt.
type VoiceResponse struct {
	Command domain.VoiceCommand     `json:"command"`
	State   domain.RecognitionState `json:"state"`
	Advice  *Advice                 `json:"advice,omitempty"`
	Prompt  string                  `json:"prompt,omitempty"`
}

// AdviseVoice interprets a transcript and, when it names a place, runs the
// advice pipeline for it. A transcript without a place, or naming a place
// the geocoder cannot find, yields a re-prompt rather than an error. A
// spoken activity overrides the profile for this request only.
func (s *Service) AdviseVoice(ctx context.Context, req VoiceRequest) (VoiceResponse, error) {
	cmd := domain.Interpret(req.Transcript)

	if cmd.Location == "" {
		s.metrics.VoiceCommands.WithLabelValues("unlocated").Inc()
		s.logger.Info("voice command had no location", "transcript", req.Transcript)
		return VoiceResponse{
			Command: cmd,
			State:   domain.NextRecognitionState(req.State, cmd),
			Prompt:  cmd.Note,
		}, nil
	}
	s.metrics.VoiceCommands.WithLabelValues("located").Inc()

	profile := req.Profile
	if cmd.Activity != "" {
		profile.Activity = cmd.Activity
	}

	advice, err := s.Advise(ctx, AdviceRequest{Place: cmd.Location, Profile: profile})
	if errors.Is(err, ErrPlaceNotFound) {
		// The transcript named somewhere we cannot find; treat like an
		// unlocated command and ask again.
		unlocated := cmd
		unlocated.Location = ""
		return VoiceResponse{
			Command: cmd,
			State:   domain.NextRecognitionState(req.State, unlocated),
			Prompt:  fmt.Sprintf("I couldn't find %s. Which city or area should I check?", cmd.Location),
		}, nil
	}
	if err != nil {
		return VoiceResponse{}, err
	}

	return VoiceResponse{
		Command: cmd,
		State:   domain.NextRecognitionState(req.State, cmd),
		Advice:  &advice,
	}, nil
}
