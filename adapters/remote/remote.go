// Package remote provides the typed HTTP client for the news backend.
// The session cookie set by the backend is kept in the client's cookie jar,
// so one Client represents one browsing session.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/rs/zerolog"
)

// Client provides JSON communication with the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

// ClientConfig configures the remote client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string

	// Jar stores the session cookie. A fresh in-memory jar is used when nil.
	Jar http.CookieJar

	Logger  zerolog.Logger
	Metrics *metrics.Collector // optional
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	jar := cfg.Jar
	if jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList option.
		jar, _ = cookiejar.New(nil)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    cfg.Headers,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorBody is the error payload every backend error response carries.
type errorBody struct {
	Message string `json:"message"`
}

// Request sends an HTTP request to the backend and decodes the JSON reply into result.
// Transport failures and undecodable replies return *apierr.TransportError;
// status >= 400 returns *apierr.APIError.
func (c *Client) Request(ctx context.Context, method, path string, body, result any) error {
	op := method + " " + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, "error", start)
		c.logger.Debug().Err(err).Str("op", op).Msg("backend request failed")
		return &apierr.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.observe(method, strconv.Itoa(resp.StatusCode), start)
	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &apierr.APIError{
			Op:      op,
			Status:  resp.StatusCode,
			Message: eb.Message,
		}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if err == io.EOF {
			return nil
		}
		return &apierr.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return nil
}

func (c *Client) observe(method, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
	if status == "error" {
		c.metrics.UpstreamErrors.WithLabelValues("transport").Inc()
	}
}
