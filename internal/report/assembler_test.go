package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmking/tradewizard-core/internal/model"
)

// fakeVerifier is a scriptable service.Verifier.
type fakeVerifier struct {
	verifyFn func(payload any, dataType model.DataType) (model.VerificationResult, error)
}

func (f *fakeVerifier) Verify(_ context.Context, payload any, dataType model.DataType, _ map[string]string) (model.VerificationResult, error) {
	if f.verifyFn != nil {
		return f.verifyFn(payload, dataType)
	}
	return model.VerificationResult{Verified: true, Confidence: 0.8}, nil
}

func (f *fakeVerifier) VerifyRequirements(_ context.Context, reqs []model.ComplianceRequirement) ([]model.ComplianceRequirement, error) {
	out := make([]model.ComplianceRequirement, len(reqs))
	for i, req := range reqs {
		out[i] = req.WithConfidence(0.85)
	}
	return out, nil
}

func completeSelection(t *testing.T) model.HSSelection {
	t.Helper()

	var sel model.HSSelection
	require.NoError(t, sel.SelectChapter(model.ClassificationCandidate{
		Code: "85", Description: "Electrical machinery", Confidence: 0.9, Source: model.SourceProvider}))
	require.NoError(t, sel.SelectHeading(model.ClassificationCandidate{
		Code: "8517", Description: "Telephone sets", Confidence: 0.9, Source: model.SourceProvider}))
	require.NoError(t, sel.SelectSubheading(model.ClassificationCandidate{
		Code: "851712", Description: "Smartphones", Confidence: 0.9, Source: model.SourceProvider}))
	require.NoError(t, sel.Complete())
	return sel
}

func sampleInsights() map[string]model.MarketInsight {
	return map[string]model.MarketInsight{
		"US": {Market: "US", Size: model.MarketSize{Value: 500, Currency: "USD"}},
		"GB": {Market: "GB", Size: model.MarketSize{Value: 100, Currency: "GBP"}},
	}
}

func sampleRequirements() []model.ComplianceRequirement {
	return []model.ComplianceRequirement{
		{ID: "req-1", Name: "FDA registration", Market: "US", EstimatedDays: 30},
		{ID: "req-2", Name: "Labelling review", Market: "US", EstimatedDays: 10},
		{ID: "req-3", Name: "Customs bond", Market: "US", EstimatedDays: 14},
	}
}

func TestAssembleRequiresCompleteSelection(t *testing.T) {
	a := NewAssembler(&fakeVerifier{}, nil)

	var sel model.HSSelection
	_, err := a.Assemble(context.Background(), sel, sampleInsights(), sampleRequirements())
	assert.Error(t, err)

	require.NoError(t, sel.SelectChapter(model.ClassificationCandidate{
		Code: "85", Confidence: 0.9, Source: model.SourceProvider}))
	_, err = a.Assemble(context.Background(), sel, sampleInsights(), sampleRequirements())
	assert.Error(t, err, "a partial path cannot be reported")
}

func TestAssembleAnnotatesInsightsAndRequirements(t *testing.T) {
	a := NewAssembler(&fakeVerifier{}, nil)

	report, err := a.Assemble(context.Background(), completeSelection(t), sampleInsights(), sampleRequirements())
	require.NoError(t, err)

	assert.Equal(t, "851712", report.Selection.Code())
	require.Len(t, report.Insights, 2)
	for _, insight := range report.Insights {
		assert.InDelta(t, 0.8, insight.ConfidenceScore, 1e-9)
	}
	require.Len(t, report.Requirements, 3)
	for _, req := range report.Requirements {
		assert.InDelta(t, 0.85, req.ConfidenceScore, 1e-9)
	}
}

func TestAssembleAppliesVerifiedCorrections(t *testing.T) {
	corrected := model.MarketInsight{Market: "US", Size: model.MarketSize{Value: 999, Currency: "USD"}}
	correctedJSON, err := json.Marshal(corrected)
	require.NoError(t, err)

	verifier := &fakeVerifier{
		verifyFn: func(payload any, _ model.DataType) (model.VerificationResult, error) {
			insight := payload.(model.MarketInsight)
			if insight.Market == "US" {
				return model.VerificationResult{Verified: true, Confidence: 0.7, CorrectedData: correctedJSON}, nil
			}
			return model.VerificationResult{Verified: true, Confidence: 0.9}, nil
		},
	}
	a := NewAssembler(verifier, nil)

	report, err := a.Assemble(context.Background(), completeSelection(t), sampleInsights(), sampleRequirements())
	require.NoError(t, err)

	assert.InDelta(t, 999, report.Insights["US"].Size.Value, 1e-9, "verified correction replaces the record")
	assert.InDelta(t, 100, report.Insights["GB"].Size.Value, 1e-9, "other markets untouched")
}

func TestAssembleIgnoresMismatchedCorrections(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(any, model.DataType) (model.VerificationResult, error) {
			// Correction claims to be for a different market.
			return model.VerificationResult{
				Verified:      true,
				Confidence:    0.7,
				CorrectedData: json.RawMessage(`{"Market":"FR","Size":{"Value":1}}`),
			}, nil
		},
	}
	a := NewAssembler(verifier, nil)

	report, err := a.Assemble(context.Background(), completeSelection(t), sampleInsights(), sampleRequirements())
	require.NoError(t, err)

	assert.InDelta(t, 500, report.Insights["US"].Size.Value, 1e-9)
}

func TestEstimateTimelineDays(t *testing.T) {
	tests := []struct {
		name string
		days []int
		want int
	}{
		{"empty", nil, 0},
		{"single requirement runs in full", []int{30}, 30},
		{"parallel work contributes a quarter", []int{30, 10, 14}, 36},
		{"two equal longest", []int{20, 20}, 25},
		{"zero durations", []int{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := make([]model.ComplianceRequirement, len(tt.days))
			for i, d := range tt.days {
				reqs[i] = model.ComplianceRequirement{EstimatedDays: d}
			}
			assert.Equal(t, tt.want, EstimateTimelineDays(reqs))
		})
	}
}
