// Package client provides the Advent of Code leaderboard HTTP client.
//
// One GET per call, authenticated with the session cookie. Nothing is
// retried or cached; callers decide what to do with a failed year.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for leaderboard requests.
var (
	aocRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aoc_requests_total",
		Help: "Total leaderboard requests by HTTP status (network_error when no response)",
	}, []string{"status"})

	aocRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aoc_request_duration_seconds",
		Help:    "Leaderboard request duration in seconds, including body read",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	aocErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aoc_errors_total",
		Help: "Total leaderboard request errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses (bad or expired session, unknown leaderboard).
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassUnexpected represents other non-200 statuses (1xx, 2xx other than 200, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"

	// ErrorClassNetwork represents transport errors: DNS, connect, timeout, truncated body.
	ErrorClassNetwork ErrorClass = "network"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the origin requests are sent to, without trailing slash.
	BaseURL string

	// LeaderboardID is the private leaderboard to fetch.
	LeaderboardID string

	// Session is the value of the session cookie.
	Session string

	// UserAgent is sent with every request.
	UserAgent string

	// Timeout bounds a single request including the body read.
	Timeout time.Duration
}

// Defaults used by DefaultConfig.
const (
	DefaultBaseURL   = "https://adventofcode.com"
	DefaultUserAgent = "aoc-leaderboard-fetch/0.1.0"
	DefaultTimeout   = 30 * time.Second
)

// DefaultConfig returns a configuration for the public Advent of Code site.
func DefaultConfig(session, leaderboardID string) Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		LeaderboardID: leaderboardID,
		Session:       session,
		UserAgent:     DefaultUserAgent,
		Timeout:       DefaultTimeout,
	}
}

// Client fetches private leaderboard JSON for a given year.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new leaderboard client.
func New(cfg Config) (*Client, error) {
	if cfg.Session == "" {
		return nil, fmt.Errorf("session is required")
	}

	if cfg.LeaderboardID == "" {
		return nil, fmt.Errorf("leaderboard id is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: log.With().Str("component", "aoc-client").Logger(),
	}, nil
}

// URL returns the leaderboard URL for year.
func (c *Client) URL(year int) string {
	return fmt.Sprintf("%s/%d/leaderboard/private/view/%s.json", c.config.BaseURL, year, c.config.LeaderboardID)
}

// Fetch downloads the leaderboard for year. It returns the complete body on
// HTTP 200 and a *FetchError otherwise.
func (c *Client) Fetch(ctx context.Context, year int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(year), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Cookie", "session="+c.config.Session)
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Int("year", year).
		Str("url", req.URL.String()).
		Msg("Requesting leaderboard")

	start := time.Now()
	defer func() {
		aocRequestDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused for the next year.
		_, _ = io.Copy(io.Discard, resp.Body)

		errClass := classifyStatus(resp.StatusCode)
		aocErrorsTotal.WithLabelValues(string(errClass)).Inc()
		aocRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		return nil, &FetchError{
			Year:       year,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Reason:     reasonPhrase(resp),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkError(year, fmt.Errorf("read body: %w", err))
	}

	aocRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	return body, nil
}

func (c *Client) networkError(year int, err error) error {
	aocErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	aocRequestsTotal.WithLabelValues("network_error").Inc()

	return &FetchError{
		Year:       year,
		ErrorClass: ErrorClassNetwork,
		Err:        err,
	}
}

// classifyStatus categorizes a non-200 status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}

// reasonPhrase extracts the reason phrase from resp.Status ("404 Not Found"
// -> "Not Found"), falling back to the canonical text for the code.
func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}

// SetHTTPClient sets a custom HTTP client (for testing). The configured
// timeout is applied when the given client has none.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client.Timeout == 0 {
		client.Timeout = c.config.Timeout
	}
	c.httpClient = client
}
