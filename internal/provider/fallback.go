package provider

import (
	"context"

	"github.com/seanmking/tradewizard-core/internal/common"
)

// Resolve runs the primary provider call and, on any error in the provider
// taxonomy (or an empty result), delegates to the deterministic fallback
// source. Business logic never repeats try-real-catch-mock branching; it
// passes both paths here once.
//
// The substitution is logged with provider and error class so degraded
// responses are distinguishable from genuine provider success during triage.
func Resolve[T any](ctx context.Context, providerName, operation string, primary func(context.Context) (T, error), fallback func(context.Context) T) (T, bool) {
	result, err := primary(ctx)
	if err == nil {
		return result, true
	}

	common.LogFallback(providerName, operation, err)

	return fallback(ctx), false
}
