// Package verify implements the confidence-scored verification pass over
// generated data, with a simulated fallback so behavior is identical with or
// without a live provider.
package verify

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
)

// neutralConfidence is assigned to a batch item whose provider call failed;
// the rest of the batch proceeds untouched.
const neutralConfidence = 0.5

// defaultWorkers bounds batch fan-out when the caller does not say.
const defaultWorkers = 4

// verifyProvider is the slice of the verification client the pass uses.
type verifyProvider interface {
	Verify(ctx context.Context, payload any, dataType string, vctx map[string]string) (provider.VerifyResponse, error)
	Available() bool
}

// Options configures the verification pass.
type Options struct {
	// ForceSimulated routes every call through the simulated verifier even
	// when a provider is configured.
	ForceSimulated bool
	// Rand seeds the simulated verifier; nil gets a time-seeded source.
	Rand *rand.Rand
	// Workers bounds batch concurrency.
	Workers int
}

// Verifier obtains an independent confidence assessment and optional
// correction for arbitrary payloads.
type Verifier struct {
	provider  verifyProvider
	simulated *SimulatedVerifier
	logger    *slog.Logger
	workers   int
	forceSim  bool
}

// NewVerifier creates a verification pass. The provider may be nil or
// unconfigured; the simulated verifier covers every call.
func NewVerifier(p verifyProvider, opts Options, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Verifier{
		provider:  p,
		simulated: NewSimulatedVerifier(opts.Rand),
		forceSim:  opts.ForceSimulated,
		workers:   workers,
		logger:    logger,
	}
}

// Verify obtains an assessment for one payload. Provider failures of any
// kind, including malformed responses, are routed to the simulated fallback
// and never propagated; the only error returned is data-type validation.
func (v *Verifier) Verify(ctx context.Context, payload any, dataType model.DataType, vctx map[string]string) (model.VerificationResult, error) {
	if err := dataType.Validate(); err != nil {
		return model.VerificationResult{}, common.NewUserError(err.Error(), err)
	}

	if v.useSimulated() {
		return v.simulated.Verify(dataType), nil
	}

	result, err := v.callProvider(ctx, payload, dataType, vctx)
	if err != nil {
		common.LogFallback("verification", "verify", err)
		return v.simulated.Verify(dataType), nil
	}

	v.logger.Debug("payload verified by provider",
		"data_type", dataType,
		"verified", result.Verified,
		"confidence", result.Confidence)

	return result, nil
}

// VerifyRequirements assesses each compliance requirement independently and
// returns the batch annotated with confidence scores, order preserved and
// each item keyed by its stable ID. One item's provider failure degrades only
// that item to the fixed neutral confidence.
func (v *Verifier) VerifyRequirements(ctx context.Context, reqs []model.ComplianceRequirement) ([]model.ComplianceRequirement, error) {
	out := make([]model.ComplianceRequirement, len(reqs))
	sem := make(chan struct{}, v.workers)
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(idx int, req model.ComplianceRequirement) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out[idx] = req.WithConfidence(neutralConfidence)
				return
			}

			out[idx] = req.WithConfidence(v.requirementConfidence(ctx, req))
		}(i, req)
	}

	wg.Wait()
	return out, nil
}

// requirementConfidence scores one batch item. Unlike the single-payload
// path, a provider failure here degrades to the neutral score rather than a
// simulated value, so a flaky provider cannot inflate batch confidence.
func (v *Verifier) requirementConfidence(ctx context.Context, req model.ComplianceRequirement) float64 {
	if v.useSimulated() {
		return v.simulated.Verify(model.DataTypeCompliance).Confidence
	}

	result, err := v.callProvider(ctx, req, model.DataTypeCompliance, map[string]string{
		"market": req.Market,
		"agency": req.Agency,
	})
	if err != nil {
		common.LogFallback("verification", "verify requirement "+req.ID, err)
		return neutralConfidence
	}

	return result.Confidence
}

// callProvider performs one provider verification with shape validation
// already applied by the client.
func (v *Verifier) callProvider(ctx context.Context, payload any, dataType model.DataType, vctx map[string]string) (model.VerificationResult, error) {
	resp, err := v.provider.Verify(ctx, payload, string(dataType), vctx)
	if err != nil {
		return model.VerificationResult{}, err
	}

	return model.VerificationResult{
		Verified:      *resp.Verified,
		Confidence:    *resp.Confidence,
		CorrectedData: resp.CorrectedData,
		Explanation:   resp.Explanation,
	}, nil
}

func (v *Verifier) useSimulated() bool {
	return v.forceSim || v.provider == nil || !v.provider.Available()
}
