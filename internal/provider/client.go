package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/service"
)

// AuthStyle selects how the credential is attached to a request.
type AuthStyle int

const (
	// AuthBearer sends "Authorization: Bearer <key>".
	AuthBearer AuthStyle = iota
	// AuthAPIKeyHeader sends the key in a provider-specific header.
	AuthAPIKeyHeader
)

const (
	defaultTimeout    = 30 * time.Second
	defaultAuthHeader = "X-API-Key"
)

// httpClient is the resilient HTTP wrapper shared by all typed provider
// clients. It retries transport failures and 5xx responses with exponential
// backoff, never retries other 4xx, and on 401/403 flips between bearer and
// header authentication once before surfacing an auth error.
type httpClient struct {
	client     *http.Client
	limiter    *rateLimiter
	name       string
	baseURL    string
	apiKey     string
	authHeader string
	authStyle  AuthStyle
	retryOpts  service.RetryOptions
}

type httpClientOptions struct {
	name       string
	baseURL    string
	apiKey     string
	authHeader string
	authStyle  AuthStyle
	rateLimit  int
	timeout    time.Duration
}

func newHTTPClient(opts httpClientOptions) *httpClient {
	if opts.timeout <= 0 {
		opts.timeout = defaultTimeout
	}
	if opts.authHeader == "" {
		opts.authHeader = defaultAuthHeader
	}

	return &httpClient{
		name:       opts.name,
		baseURL:    opts.baseURL,
		apiKey:     opts.apiKey,
		authHeader: opts.authHeader,
		authStyle:  opts.authStyle,
		limiter:    newRateLimiter(opts.rateLimit),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		client: &http.Client{
			Timeout: opts.timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// available reports whether a credential is configured.
func (c *httpClient) available() bool {
	return c.apiKey != ""
}

// postJSON sends a JSON request and decodes a JSON response, applying the
// retry and alternate-auth policy. Every failure surfaces as a typed *Error.
func (c *httpClient) postJSON(ctx context.Context, path string, body any, out any) error {
	if !c.available() {
		return Unavailable(c.name)
	}

	if err := c.limiter.wait(ctx); err != nil {
		return &Error{
			Provider: c.name,
			Kind:     KindTransport,
			Message:  "rate limiter canceled",
			Err:      err,
		}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &Error{
			Provider: c.name,
			Kind:     KindClient,
			Message:  fmt.Sprintf("failed to marshal request: %v", err),
			Err:      err,
		}
	}

	authStyle := c.authStyle
	triedAltAuth := false
	var lastErr *Error

	retryErr := common.WithRetry(ctx, func() error {
		perr := c.attempt(ctx, path, jsonBody, out, authStyle)
		if perr == nil {
			return nil
		}
		lastErr = perr

		// One alternate-auth retry: flip the scheme and go again.
		if perr.Kind == KindAuth && !triedAltAuth {
			triedAltAuth = true
			if authStyle == AuthBearer {
				authStyle = AuthAPIKeyHeader
			} else {
				authStyle = AuthBearer
			}
			return &common.RetryableError{Err: perr, Retryable: true}
		}

		return &common.RetryableError{Err: perr, Retryable: perr.Retryable()}
	}, c.retryOpts)

	if retryErr == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	if errors.Is(retryErr, context.Canceled) || errors.Is(retryErr, context.DeadlineExceeded) {
		return &Error{
			Provider: c.name,
			Kind:     KindTransport,
			Message:  "request canceled",
			Err:      retryErr,
		}
	}
	return &Error{
		Provider: c.name,
		Kind:     KindTransport,
		Message:  retryErr.Error(),
		Err:      retryErr,
	}
}

// attempt performs exactly one request/decode cycle.
func (c *httpClient) attempt(ctx context.Context, path string, jsonBody []byte, out any, authStyle AuthStyle) *Error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return &Error{
			Provider: c.name,
			Kind:     KindClient,
			Message:  fmt.Sprintf("failed to create request: %v", err),
			Err:      err,
		}
	}

	req.Header.Set("Content-Type", "application/json")
	switch authStyle {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	case AuthAPIKeyHeader:
		req.Header.Set(c.authHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{
			Provider: c.name,
			Kind:     KindTransport,
			Message:  fmt.Sprintf("request failed: %v", err),
			Err:      err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Provider: c.name,
			Kind:     KindTransport,
			Message:  fmt.Sprintf("failed to read response: %v", err),
			Err:      err,
		}
	}

	switch {
	case resp.StatusCode >= 500:
		return &Error{
			Provider: c.name,
			Kind:     KindTransport,
			Status:   resp.StatusCode,
			Message:  truncate(string(respBody), 200),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{
			Provider: c.name,
			Kind:     KindAuth,
			Status:   resp.StatusCode,
			Message:  truncate(string(respBody), 200),
		}
	case resp.StatusCode >= 400:
		return &Error{
			Provider: c.name,
			Kind:     KindClient,
			Status:   resp.StatusCode,
			Message:  truncate(string(respBody), 200),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{
				Provider: c.name,
				Kind:     KindMalformedResponse,
				Status:   resp.StatusCode,
				Message:  fmt.Sprintf("failed to parse response: %v", err),
				Err:      err,
			}
		}
	}

	return nil
}

// Close releases the rate limiter's background goroutine.
func (c *httpClient) Close() {
	c.limiter.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
