// Package config provides the explicitly constructed configuration object
// passed to each service at creation. There are no process-wide singletons;
// lifetime is the caller's responsibility.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/seanmking/tradewizard-core/internal/common"
)

// ProviderConfig configures one external provider client. An empty APIKey
// marks the provider unavailable; it is never attempted and the fallback tier
// serves instead.
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	RateLimit int
	Timeout   time.Duration
}

// Configured reports whether a credential is present.
func (p ProviderConfig) Configured() bool {
	return p.APIKey != ""
}

// Config is the top-level configuration for the aggregation core.
type Config struct {
	// HS is the classification/tariff provider.
	HS ProviderConfig
	// LLM is the generic chat-completion provider used for structured
	// classification prompts and insight synthesis.
	LLM ProviderConfig
	// Verification is the independent verification provider.
	Verification ProviderConfig

	// ForceSimulatedVerification routes every verification through the
	// simulated verifier even when a provider is configured.
	ForceSimulatedVerification bool

	CacheTTL        time.Duration
	CacheMaxEntries int

	// Workers bounds per-market and per-item fan-out concurrency.
	Workers int
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache TTL cannot be negative", common.ErrInvalidConfig)
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("%w: cache max entries cannot be negative", common.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: worker count cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}

// Load materializes a Config from viper. Library callers are free to build
// the struct directly instead.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HS: ProviderConfig{
			APIKey:    v.GetString("providers.hs.api_key"),
			BaseURL:   v.GetString("providers.hs.base_url"),
			RateLimit: v.GetInt("providers.hs.rate_limit"),
			Timeout:   v.GetDuration("providers.hs.timeout"),
		},
		LLM: ProviderConfig{
			APIKey:    v.GetString("providers.llm.api_key"),
			BaseURL:   v.GetString("providers.llm.base_url"),
			Model:     v.GetString("providers.llm.model"),
			RateLimit: v.GetInt("providers.llm.rate_limit"),
			Timeout:   v.GetDuration("providers.llm.timeout"),
		},
		Verification: ProviderConfig{
			APIKey:    v.GetString("providers.verification.api_key"),
			BaseURL:   v.GetString("providers.verification.base_url"),
			RateLimit: v.GetInt("providers.verification.rate_limit"),
			Timeout:   v.GetDuration("providers.verification.timeout"),
		},
		ForceSimulatedVerification: v.GetBool("verification.force_simulated"),
		CacheTTL:                   v.GetDuration("cache.ttl"),
		CacheMaxEntries:            v.GetInt("cache.max_entries"),
		Workers:                    v.GetInt("workers"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
