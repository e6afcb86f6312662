package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmking/tradewizard-core/internal/config"
)

func TestHSClientSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var body struct {
			Query      string `json:"query"`
			MaxResults int    `json:"maxResults"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "smartphone", body.Query)

		_, _ = w.Write([]byte(`{"matches":[
			{"hsCode":"851712","description":"Smartphones","confidence":95},
			{"hsCode":"851713","description":"Other telephones","confidence":0.4}
		]}`))
	}))
	defer server.Close()

	c := NewHSClient(config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	defer c.Close()

	matches, err := c.Search(context.Background(), "smartphone", 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "851712", matches[0].HSCode)
	assert.InDelta(t, 0.95, matches[0].Normalized(), 1e-9)
	assert.InDelta(t, 0.4, matches[1].Normalized(), 1e-9)
}

func TestHSClientEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"matches":[],"examples":[]}`))
	}))
	defer server.Close()

	c := NewHSClient(config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	defer c.Close()

	_, err := c.Search(context.Background(), "mystery item", 5)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = c.Children(context.Background(), "85")
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = c.Examples(context.Background(), "851712")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestHSClientTariffRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tariffs/base", r.URL.Path)
		_, _ = w.Write([]byte(`{"baseRate":4.5}`))
	}))
	defer server.Close()

	c := NewHSClient(config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	defer c.Close()

	rate, err := c.TariffRate(context.Background(), "US")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, rate, 1e-9)
}

func TestVerifyClientShapeValidation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantKind ErrorKind
	}{
		{"missing verified", `{"confidence":0.9}`, KindMalformedResponse},
		{"missing confidence", `{"verified":true}`, KindMalformedResponse},
		{"confidence above one", `{"verified":true,"confidence":1.4}`, KindMalformedResponse},
		{"confidence below zero", `{"verified":false,"confidence":-0.1}`, KindMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			c := NewVerifyClient(config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
			defer c.Close()

			_, err := c.Verify(context.Background(), map[string]string{"id": "req-1"}, "compliance", nil)
			pe, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, pe.Kind)
		})
	}
}

func TestVerifyClientSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"verified": true,
			"confidence": 0.88,
			"correctedData": {"estimatedDays": 21},
			"explanation": "timeline adjusted to current agency guidance"
		}`))
	}))
	defer server.Close()

	c := NewVerifyClient(config.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})
	defer c.Close()

	resp, err := c.Verify(context.Background(), map[string]string{"id": "req-1"}, "compliance", map[string]string{"market": "US"})
	require.NoError(t, err)
	require.NotNil(t, resp.Verified)
	assert.True(t, *resp.Verified)
	assert.InDelta(t, 0.88, *resp.Confidence, 1e-9)
	assert.JSONEq(t, `{"estimatedDays": 21}`, string(resp.CorrectedData))
}

func TestResolve(t *testing.T) {
	t.Run("primary success is live", func(t *testing.T) {
		got, live := Resolve(context.Background(), "hs", "search",
			func(context.Context) (string, error) { return "provider", nil },
			func(context.Context) string { return "fallback" })
		assert.True(t, live)
		assert.Equal(t, "provider", got)
	})

	t.Run("primary failure uses fallback", func(t *testing.T) {
		got, live := Resolve(context.Background(), "hs", "search",
			func(context.Context) (string, error) { return "", errors.New("boom") },
			func(context.Context) string { return "fallback" })
		assert.False(t, live)
		assert.Equal(t, "fallback", got)
	})
}
