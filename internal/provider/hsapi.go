package provider

import (
	"context"
	"fmt"

	"github.com/seanmking/tradewizard-core/internal/config"
)

const defaultHSBaseURL = "https://api.hs-classification.example.com/v1"

// HSMatch is one ranked match from the classification/tariff provider.
// Confidence arrives either as [0,1] or as a percentage; Normalized() maps
// both onto [0,1].
type HSMatch struct {
	HSCode      string  `json:"hsCode"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Metadata    struct {
		Chapter    string `json:"chapter"`
		Heading    string `json:"heading"`
		Subheading string `json:"subheading"`
	} `json:"metadata"`
}

// Normalized returns the match confidence on the [0,1] scale.
func (m HSMatch) Normalized() float64 {
	return normalizeConfidence(m.Confidence)
}

// HSExample is an illustrative product record from the provider.
type HSExample struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HSClient talks to the classification/tariff provider.
type HSClient struct {
	http *httpClient
}

// NewHSClient creates an HS provider client. The provider authenticates with
// an API-key header; on 401 the client retries once with bearer auth.
func NewHSClient(cfg config.ProviderConfig) *HSClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultHSBaseURL
	}

	return &HSClient{
		http: newHTTPClient(httpClientOptions{
			name:      "hs",
			baseURL:   baseURL,
			apiKey:    cfg.APIKey,
			authStyle: AuthAPIKeyHeader,
			rateLimit: cfg.RateLimit,
			timeout:   cfg.Timeout,
		}),
	}
}

// Available reports whether a credential is configured.
func (c *HSClient) Available() bool {
	return c.http.available()
}

// Search resolves a free-text product query to ranked HS code matches.
func (c *HSClient) Search(ctx context.Context, query string, maxResults int) ([]HSMatch, error) {
	requestBody := map[string]any{
		"query":      query,
		"maxResults": maxResults,
	}

	var resp struct {
		Matches []HSMatch `json:"matches"`
	}
	if err := c.http.postJSON(ctx, "/search", requestBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Matches) == 0 {
		return nil, fmt.Errorf("search %q: %w", query, ErrEmptyResult)
	}

	return resp.Matches, nil
}

// Children lists the next-level codes under a chapter or heading.
func (c *HSClient) Children(ctx context.Context, parentCode string) ([]HSMatch, error) {
	requestBody := map[string]any{
		"parent": parentCode,
	}

	var resp struct {
		Matches []HSMatch `json:"matches"`
	}
	if err := c.http.postJSON(ctx, "/codes/children", requestBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Matches) == 0 {
		return nil, fmt.Errorf("children of %q: %w", parentCode, ErrEmptyResult)
	}

	return resp.Matches, nil
}

// Examples lists illustrative products for a code.
func (c *HSClient) Examples(ctx context.Context, code string) ([]HSExample, error) {
	requestBody := map[string]any{
		"code": code,
	}

	var resp struct {
		Examples []HSExample `json:"examples"`
	}
	if err := c.http.postJSON(ctx, "/codes/examples", requestBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Examples) == 0 {
		return nil, fmt.Errorf("examples for %q: %w", code, ErrEmptyResult)
	}

	return resp.Examples, nil
}

// TariffRate fetches the base tariff rate a market applies, as a percentage.
func (c *HSClient) TariffRate(ctx context.Context, market string) (float64, error) {
	requestBody := map[string]any{
		"market": market,
	}

	var resp struct {
		BaseRate float64 `json:"baseRate"`
	}
	if err := c.http.postJSON(ctx, "/tariffs/base", requestBody, &resp); err != nil {
		return 0, err
	}

	return resp.BaseRate, nil
}

// Close releases client resources.
func (c *HSClient) Close() {
	c.http.Close()
}

// normalizeConfidence maps provider confidence values onto [0,1]. Providers
// disagree on scale; anything above 1 is treated as a percentage.
func normalizeConfidence(v float64) float64 {
	if v > 1.0 {
		v /= 100.0
	}
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
