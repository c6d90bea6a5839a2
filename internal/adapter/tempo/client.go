// Package tempo adapts a TEMPO-class satellite retrieval gateway into the
// primary pollutant source.
//
// The gateway owns the science: it resolves the latest usable granule for a
// coordinate, converts column retrievals to surface-level µg/m³, and answers
// HTTP 200 even when it has nothing usable, flagging that in the body. This
// client only translates that boundary contract; "no usable retrieval" is a
// coverage gap, never a failure.
package tempo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/brisalabs/air-advisor/internal/adapter/resilience"
	"github.com/brisalabs/air-advisor/internal/domain"
	"github.com/brisalabs/air-advisor/internal/resolve"
)

// Coverage and quality flags the gateway reports on every retrieval.
const (
	coverageNone    = "none"
	coveragePartial = "partial"
	qualityInvalid  = "invalid"
	qualityDegraded = "degraded"
)

// Client implements resolve.PollutantSource against the retrieval gateway.
type Client struct {
	baseURL string
	token   string
	httpCfg resilience.ClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a gateway client. The token is optional; when set it is
// sent as a bearer credential.
func NewClient(baseURL, token string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpCfg: resilience.ClientConfig{
			Client:  httpClient,
			Backoff: resilience.DefaultBackoff(),
		},
		circuit: resilience.NewBreaker("tempo"),
		logger:  logger,
	}
}

// Name identifies this adapter in logs and metrics.
func (c *Client) Name() string { return "tempo" }

// FetchPollutants requests the latest usable retrieval for the coordinates.
func (c *Client) FetchPollutants(ctx context.Context, loc domain.Location, when time.Time) (domain.RawPollutants, error) {
	resp, err := resilience.Do(ctx, c.httpCfg, c.circuit, func() (*http.Request, error) {
		q := url.Values{}
		q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/retrievals?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	if err != nil {
		return domain.RawPollutants{}, fmt.Errorf("tempo retrieval request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		GranuleID   string             `json:"granule_id"`
		ObservedAt  time.Time          `json:"observed_at"`
		Coverage    string             `json:"coverage"`
		QualityFlag string             `json:"quality_flag"`
		Pollutants  map[string]float64 `json:"pollutants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.RawPollutants{}, fmt.Errorf("decode retrieval response: %w", err)
	}

	if payload.Coverage == coverageNone || payload.QualityFlag == qualityInvalid || len(payload.Pollutants) == 0 {
		c.logger.Debug("tempo retrieval unusable",
			"location", loc.Label(), "coverage", payload.Coverage, "quality", payload.QualityFlag)
		return domain.RawPollutants{}, fmt.Errorf("%w: coverage %q, quality %q",
			resolve.ErrCoverageGap, payload.Coverage, payload.QualityFlag)
	}

	conc := make(map[domain.Pollutant]float64, len(payload.Pollutants))
	for _, p := range domain.CanonicalPollutants {
		if v, ok := payload.Pollutants[string(p)]; ok {
			conc[p] = v
		}
	}
	if len(conc) == 0 {
		return domain.RawPollutants{}, fmt.Errorf("%w: no known pollutants in granule %s",
			resolve.ErrCoverageGap, payload.GranuleID)
	}

	observed := payload.ObservedAt
	if observed.IsZero() {
		observed = when
	}

	return domain.RawPollutants{
		Provider:       c.Name(),
		Concentrations: conc,
		Partial:        payload.Coverage == coveragePartial || payload.QualityFlag == qualityDegraded,
		ObservedAt:     observed.UTC(),
	}, nil
}
