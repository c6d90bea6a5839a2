// Package resilience wraps outbound provider calls with bounded retries,
// exponential backoff, and a per-provider circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Named errors for the status classes the helper distinguishes. Rate limits
// and server errors are retried; any other non-2xx status is final.
var (
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

// BackoffConfig bounds the retry schedule.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff suits an interactive request path: three retries starting
// at half a second, capped at five seconds.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// ClientConfig bundles the HTTP client with its retry schedule.
type ClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// NewBreaker builds the circuit breaker shared by all calls to one provider.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Do executes an HTTP request through the circuit breaker, retrying
// transient failures with exponential backoff. buildRequest runs once per
// attempt so request bodies are never reused. On success the caller owns
// the response body.
func Do(ctx context.Context, cfg ClientConfig, cb *gobreaker.CircuitBreaker, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errors.New("http client not configured")
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errors.New("invalid backoff configuration")
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (any, error) {
			resp, doErr := cfg.Client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if failure := classify(resp.StatusCode); failure != nil {
				drain(resp)
				return nil, failure
			}
			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if !retryable(err) || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval << attempt
		if cfg.Backoff.MaxInterval > 0 && delay > cfg.Backoff.MaxInterval {
			delay = cfg.Backoff.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func classify(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, status)
	case status < 200 || status >= 300:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	default:
		return nil
	}
}

// retryable reports whether another attempt could plausibly succeed.
// Transport errors count; a definitive 4xx answer does not.
func retryable(err error) bool {
	return !errors.Is(err, ErrUnexpectedStatus)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
