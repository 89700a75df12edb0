// Package fpl is a read-only client for the Fantasy Premier League API.
package fpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// APIError is returned for any failure talking to the FPL API: transport
// errors, non-2xx responses, and malformed JSON bodies.
type APIError struct {
	Endpoint string
	Status   int // HTTP status code, 0 for transport/decode failures
	Err      error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fpl api %s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("fpl api %s: %v", e.Endpoint, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status of the failed request, 0 if the request
// never produced a response.
func (e *APIError) StatusCode() int { return e.Status }

type ClientConfig struct {
	Logger  *slog.Logger
	BaseURL string
	Timeout time.Duration

	// RequestsPerSecond caps the outgoing request rate across all workers.
	// Zero means unlimited; super-batch pacing still applies upstream.
	RequestsPerSecond float64

	// HTTPClient overrides the default client; the Timeout above is applied
	// when it is nil.
	HTTPClient *http.Client
}

func (cfg *ClientConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.BaseURL == "" {
		return errors.New("base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return nil
}

type Client struct {
	log     *slog.Logger
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		log:     cfg.Logger,
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
	}, nil
}

// get fetches one endpoint and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	// Normalize to /path/ form so callers can pass either.
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint = endpoint + "/"
	}
	url := c.cfg.BaseURL + endpoint

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Endpoint: endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug("fpl: fetching", "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Endpoint: endpoint, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &APIError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// Bootstrap fetches the bootstrap-static resource: gameweeks, teams and
// players in one payload.
func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var out Bootstrap
	if err := c.get(ctx, "/bootstrap-static/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fixtures fetches the full fixture list for the season.
func (c *Client) Fixtures(ctx context.Context) ([]FixturePayload, error) {
	var out []FixturePayload
	if err := c.get(ctx, "/fixtures/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ElementSummary fetches the per-gameweek history for one player.
func (c *Client) ElementSummary(ctx context.Context, playerID int) (*ElementSummary, error) {
	var out ElementSummary
	if err := c.get(ctx, fmt.Sprintf("/element-summary/%d/", playerID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventLive fetches live per-player stats for one gameweek.
func (c *Client) EventLive(ctx context.Context, gameweekID int) (*EventLive, error) {
	var out EventLive
	if err := c.get(ctx, fmt.Sprintf("/event/%d/live/", gameweekID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
