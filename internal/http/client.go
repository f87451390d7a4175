// Package http provides a small HTTP client with retry logic used to reach
// remote cluster management APIs.
package http

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Config configures the client
type Config struct {
	// Timeout bounds a single attempt including body read
	Timeout time.Duration

	// MaxRetries is the number of additional attempts after the first
	MaxRetries int

	// BaseRetryDelay is the delay before the first retry; subsequent
	// retries back off exponentially up to MaxRetryDelay
	BaseRetryDelay    time.Duration
	MaxRetryDelay     time.Duration
	BackoffMultiplier float64

	// Headers are set on every request
	Headers   map[string]string
	UserAgent string

	// Transport overrides the default transport, mainly for OAuth2 and
	// tests
	Transport http.RoundTripper
}

// Client is an HTTP client with exponential backoff retry on retryable
// status codes and transport errors. Safe for concurrent use.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a client, applying defaults for unset config fields
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.BaseRetryDelay == 0 {
		config.BaseRetryDelay = 500 * time.Millisecond
	}
	if config.MaxRetryDelay == 0 {
		config.MaxRetryDelay = 15 * time.Second
	}
	if config.BackoffMultiplier == 0 {
		config.BackoffMultiplier = 2.0
	}
	if config.UserAgent == "" {
		config.UserAgent = "cim-provider-kit/1.0"
	}

	transport := config.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		config: config,
	}
}

// Get performs a GET with retries and returns the response body. Responses
// with status >= 400 after all retries are returned as errors.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request to %s failed with status %d", url, resp.StatusCode)
	}

	return body, nil
}

// Do executes a request with retry logic. The request must have no body or
// a replayable body; retries reissue it verbatim.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err = c.client.Do(req.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == c.config.MaxRetries {
			return resp, nil
		}

		_ = resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxRetries+1, err)
	}

	return resp, nil
}

func (c *Client) retryDelay(attempt int) time.Duration {
	delay := time.Duration(float64(c.config.BaseRetryDelay) * math.Pow(c.config.BackoffMultiplier, float64(attempt-1)))
	if delay > c.config.MaxRetryDelay {
		delay = c.config.MaxRetryDelay
	}
	return delay
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
