package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"research-terminal/internal/logging"
)

const (
	StreamProtocolText = "text"
	StreamProtocolData = "data"
)

// Options tune the client; zero values fall back to defaults.
type Options struct {
	// Timeout bounds every non-streaming request
	Timeout time.Duration
	// RateLimit is requests per second; 0 disables the limiter
	RateLimit float64
	Burst     int
	// BreakerFailures consecutive failures open the circuit for BreakerTimeout
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	StreamProtocol  string
	HTTPClient      *http.Client
}

// Client talks to the research backend under <baseURL>/api.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	streamProtocol string
	limiter        *rate.Limiter
	breaker        *gobreaker.CircuitBreaker[*http.Response]
}

var _ Service = (*Client)(nil)

func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:6666"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 15 * time.Second
	}
	if opts.StreamProtocol == "" {
		opts.StreamProtocol = StreamProtocolText
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: chat responses stream for as long as the model talks
		httpClient = &http.Client{}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	maxFailures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: isBreakerSuccess,
	})

	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		httpClient:     httpClient,
		timeout:        opts.Timeout,
		streamProtocol: opts.StreamProtocol,
		limiter:        limiter,
		breaker:        breaker,
	}
}

// isBreakerSuccess counts only backend faults against the circuit: client
// errors and cancellations say nothing about backend health.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500
	}
	return false
}

// BaseURL returns the backend origin
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest sends a request and returns the response for 2xx statuses.
// Any other status is returned as *Error with the body already consumed.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			return nil, newError(resp)
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return resp, err
}

// doJSON performs a bounded request and decodes the JSON body into out (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
