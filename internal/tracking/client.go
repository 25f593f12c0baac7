// ABOUTME: HTTP client for the Tufesa carrier tracking API.
// ABOUTME: Classifies every failure as network, upstream_error, or malformed; no retries.

package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// FailureKind classifies why a fetch produced no usable payload.
type FailureKind string

const (
	// FailNetwork covers DNS, connect, and timeout failures.
	FailNetwork FailureKind = "network"
	// FailUpstream covers non-2xx HTTP responses.
	FailUpstream FailureKind = "upstream_error"
	// FailMalformed covers bodies that do not decode as the expected JSON.
	FailMalformed FailureKind = "malformed"
)

// maxErrorBody bounds how much of an upstream error body is kept for diagnostics.
const maxErrorBody = 512

// FetchError describes a failed tracking fetch.
type FetchError struct {
	Kind   FailureKind
	Status int    // set for FailUpstream
	Body   string // truncated body for FailUpstream
	Err    error  // underlying cause for FailNetwork / FailMalformed
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailUpstream:
		return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
	case FailMalformed:
		return fmt.Sprintf("upstream returned malformed body: %v", e.Err)
	default:
		return fmt.Sprintf("network failure reaching upstream: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClientConfig holds the upstream endpoint configuration.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client issues tracking lookups against the carrier API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a tracking client. The timeout bounds the whole
// request including body read; zero means no client-side bound.
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With("component", "tracking-client"),
	}
}

// Fetch performs a single GET against the carrier endpoint and returns the
// decoded payload, or a *FetchError classifying the failure. The payload is
// passed through unvalidated; classification of its content belongs to
// Normalize.
func (c *Client) Fetch(ctx context.Context, guia, push string) (Payload, error) {
	if push == "" {
		push = "-"
	}

	endpoint := c.baseURL + "/commdatosenvio"
	params := url.Values{}
	params.Set("codigo", guia)
	params.Set("push", push)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &FetchError{Kind: FailNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("tracking fetch failed",
			"guia", guia,
			"error", err,
		)
		return nil, &FetchError{Kind: FailNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: FailNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("tracking fetch rejected upstream",
			"guia", guia,
			"status", resp.StatusCode,
		)
		return nil, &FetchError{
			Kind:   FailUpstream,
			Status: resp.StatusCode,
			Body:   truncate(string(body), maxErrorBody),
		}
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{Kind: FailMalformed, Err: err}
	}

	c.logger.Debug("tracking fetch complete",
		"guia", guia,
		"records", len(payload),
		"duration", time.Since(start),
	)

	return payload, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
