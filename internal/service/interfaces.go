// Package service defines the interfaces for the trade intelligence core
// services and the options shared between them.
package service

import (
	"context"
	"time"

	"github.com/seanmking/tradewizard-core/internal/model"
)

// ClassifyOptions controls a single classification call.
type ClassifyOptions struct {
	// ConfidenceThreshold filters out candidates below it. Zero means no
	// filtering.
	ConfidenceThreshold float64
	// MaxResults truncates the ranked list. Zero means no truncation.
	MaxResults int
	// UseCache short-circuits the provider on a cache hit for the normalized
	// description.
	UseCache bool
}

// Classifier defines the contract for HS code classification.
type Classifier interface {
	Classify(ctx context.Context, description string, opts ClassifyOptions) (model.Candidates, error)
	ChildOptions(ctx context.Context, parentCode string, level model.HSLevel) (model.Candidates, error)
	Examples(ctx context.Context, code string) ([]model.ProductExample, error)
	CodePath(ctx context.Context, code string) ([]model.ClassificationCandidate, error)
}

// InsightProvider defines the contract for per-market insight aggregation.
type InsightProvider interface {
	Insights(ctx context.Context, markets []string, categories []string, profile model.BusinessProfile) (map[string]model.MarketInsight, error)
}

// Verifier defines the contract for the verification pass.
type Verifier interface {
	Verify(ctx context.Context, payload any, dataType model.DataType, vctx map[string]string) (model.VerificationResult, error)
	VerifyRequirements(ctx context.Context, reqs []model.ComplianceRequirement) ([]model.ComplianceRequirement, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
