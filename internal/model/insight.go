package model

import (
	"fmt"
	"regexp"
)

// marketCodePattern matches ISO 3166-1 alpha-2 style market codes.
var marketCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateMarketCode rejects anything that is not a two-letter uppercase
// market code. This is the only validation error the aggregator propagates.
func ValidateMarketCode(code string) error {
	if !marketCodePattern.MatchString(code) {
		return fmt.Errorf("market code %q must be a two-letter uppercase code", code)
	}
	return nil
}

// MarketSize describes the total addressable market for one target market.
type MarketSize struct {
	Currency   string
	Value      float64
	Year       int
	GrowthRate float64
}

// Competitor is one ranked competitor in a target market.
type Competitor struct {
	Name        string
	Strengths   []string
	Weaknesses  []string
	MarketShare float64
}

// TariffLine is the applied tariff for one product category in a market.
type TariffLine struct {
	Category string
	Notes    string
	Rate     float64
}

// MarketInsight is the per-market aggregate produced by the aggregator. It is
// never mutated after construction; corrections produce a new record.
type MarketInsight struct {
	Market          string
	Size            MarketSize
	Competitors     []Competitor
	EntryBarriers   []string
	Tariffs         map[string]TariffLine
	Opportunities   []string
	Risks           []string
	Recommendations []string
	// FallbackStages names the pipeline stages served by deterministic
	// fallback instead of a live provider, so a degraded-but-complete record
	// is never a silent partial mix.
	FallbackStages  []string
	Source          CandidateSource
	ConfidenceScore float64
}

// Degraded reports whether any pipeline stage fell back.
func (m MarketInsight) Degraded() bool {
	return len(m.FallbackStages) > 0
}

// WithConfidence returns a copy of the insight annotated with a confidence
// score, leaving the original untouched.
func (m MarketInsight) WithConfidence(score float64) MarketInsight {
	m.ConfidenceScore = score
	return m
}

// BusinessProfile carries the caller's business context into insight and
// verification prompts.
type BusinessProfile struct {
	Name             string
	Industry         string
	ExportExperience string
	HomeMarket       string
}
