package provider

import (
	"context"
	"encoding/json"

	"github.com/seanmking/tradewizard-core/internal/config"
)

const defaultVerifyBaseURL = "https://api.verification.example.com/v1"

// VerifyResponse is the verification provider's assessment. Verified and
// Confidence are pointers so a missing required field is distinguishable from
// a zero value during shape validation.
type VerifyResponse struct {
	Verified      *bool           `json:"verified"`
	Confidence    *float64        `json:"confidence"`
	CorrectedData json.RawMessage `json:"correctedData,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
}

// VerifyClient talks to the independent verification provider.
type VerifyClient struct {
	http *httpClient
}

// NewVerifyClient creates a verification provider client.
func NewVerifyClient(cfg config.ProviderConfig) *VerifyClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultVerifyBaseURL
	}

	return &VerifyClient{
		http: newHTTPClient(httpClientOptions{
			name:      "verification",
			baseURL:   baseURL,
			apiKey:    cfg.APIKey,
			authStyle: AuthBearer,
			rateLimit: cfg.RateLimit,
			timeout:   cfg.Timeout,
		}),
	}
}

// Available reports whether a credential is configured.
func (c *VerifyClient) Available() bool {
	return c.http.available()
}

// Verify submits a payload for independent assessment. The response shape is
// validated before it is trusted; a malformed response surfaces as a
// MalformedResponse error so the caller can route it to the simulated
// fallback.
func (c *VerifyClient) Verify(ctx context.Context, payload any, dataType string, vctx map[string]string) (VerifyResponse, error) {
	requestBody := map[string]any{
		"data":     payload,
		"dataType": dataType,
		"context":  vctx,
	}

	var resp VerifyResponse
	if err := c.http.postJSON(ctx, "/verify", requestBody, &resp); err != nil {
		return VerifyResponse{}, err
	}

	if resp.Verified == nil || resp.Confidence == nil {
		return VerifyResponse{}, &Error{
			Provider: "verification",
			Kind:     KindMalformedResponse,
			Message:  "response missing required verified/confidence fields",
		}
	}
	if *resp.Confidence < 0.0 || *resp.Confidence > 1.0 {
		return VerifyResponse{}, &Error{
			Provider: "verification",
			Kind:     KindMalformedResponse,
			Message:  "confidence outside [0,1]",
		}
	}

	return resp, nil
}

// Close releases client resources.
func (c *VerifyClient) Close() {
	c.http.Close()
}
