package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brisalabs/air-advisor/internal/advisor"
	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/resolve"
)

var validate = validator.New()

// defaultActivity is assumed when a request names none.
const defaultActivity = string(domain.ActivityRunning)

// adviceQuery holds the bound /api/v1/advice query parameters. The validator
// covers structure (one of place or the coordinate pair, coordinate ranges);
// the enum vocabularies are checked by the domain parsers.
type adviceQuery struct {
	Place       string   `validate:"required_without=Lat"`
	Lat         *float64 `validate:"required_with=Lon,omitempty,gte=-90,lte=90"`
	Lon         *float64 `validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Activity    string   `validate:"required"`
	Sensitivity string
	Age         string
}

func bindAdviceQuery(r *http.Request) (adviceQuery, error) {
	q := adviceQuery{
		Place:       strings.TrimSpace(r.URL.Query().Get("place")),
		Activity:    r.URL.Query().Get("activity"),
		Sensitivity: r.URL.Query().Get("sensitivity"),
		Age:         r.URL.Query().Get("age"),
	}
	if q.Activity == "" {
		q.Activity = defaultActivity
	}

	var err error
	if q.Lat, err = parseCoord(r, "lat"); err != nil {
		return q, err
	}
	if q.Lon, err = parseCoord(r, "lon"); err != nil {
		return q, err
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func parseCoord(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("query parameter %q must be a number", name)
	}
	return &v, nil
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	q, err := bindAdviceQuery(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := parseProfile(q.Activity, q.Sensitivity, q.Age)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	req := advisor.AdviceRequest{Profile: profile}
	if q.Lat != nil && q.Lon != nil {
		req.Location = &domain.Location{Lat: *q.Lat, Lon: *q.Lon}
	} else {
		req.Place = q.Place
	}

	advice, err := s.service.Advise(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, advice)
}

// voiceBody is the POST /api/v1/voice request payload.
type voiceBody struct {
	Transcript  string `json:"transcript" validate:"required,max=500"`
	State       string `json:"state"`
	Activity    string `json:"activity"`
	Sensitivity string `json:"sensitivity"`
	Age         string `json:"age"`
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	var body voiceBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&body); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := domain.ParseRecognitionState(body.State)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	activity := body.Activity
	if activity == "" {
		activity = defaultActivity
	}
	profile, err := parseProfile(activity, body.Sensitivity, body.Age)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.service.AdviseVoice(r.Context(), advisor.VoiceRequest{
		Transcript: body.Transcript,
		State:      state,
		Profile:    profile,
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseProfile(activity, sensitivity, age string) (domain.UserProfile, error) {
	act, err := domain.ParseActivity(activity)
	if err != nil {
		return domain.UserProfile{}, err
	}
	sens, err := domain.ParseSensitivity(sensitivity)
	if err != nil {
		return domain.UserProfile{}, err
	}
	bracket, err := domain.ParseAgeBracket(age)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.UserProfile{Activity: act, Sensitivity: sens, Age: bracket}, nil
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrInvalidLocation):
		errorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, advisor.ErrPlaceNotFound):
		errorJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, resolve.ErrAllSourcesUnavailable):
		errorJSON(w, http.StatusServiceUnavailable, "weather data temporarily unavailable, try again shortly")
	case errors.Is(err, context.DeadlineExceeded):
		errorJSON(w, http.StatusGatewayTimeout, "request timed out")
	default:
		s.logger.Error("advice request failed", "error", err)
		errorJSON(w, http.StatusInternalServerError, "internal error")
	}
}
