// Package report assembles the final export-readiness report from the
// classification, aggregation and verification services. It is a thin
// consumer: every input arrives fully populated, so it never handles a
// "no data" case, only low-confidence annotations.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/service"
)

// Report is the assembled output handed to rendering layers outside this
// core.
type Report struct {
	Insights     map[string]model.MarketInsight
	Selection    model.HSSelection
	Requirements []model.ComplianceRequirement
	TimelineDays int
}

// Assembler verifies and merges the three services' outputs.
type Assembler struct {
	verifier service.Verifier
	logger   *slog.Logger
}

// NewAssembler creates a report assembler.
func NewAssembler(verifier service.Verifier, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{verifier: verifier, logger: logger}
}

// Assemble builds the report. The selection must be in its Complete state;
// insights and requirements are annotated with verification confidence, and a
// verified correction replaces the original record rather than editing it in
// place.
func (a *Assembler) Assemble(ctx context.Context, selection model.HSSelection, insights map[string]model.MarketInsight, reqs []model.ComplianceRequirement) (Report, error) {
	if selection.Stage() != model.StageComplete {
		return Report{}, fmt.Errorf("selection must be complete, got stage %s", selection.Stage())
	}
	if err := selection.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid selection: %w", err)
	}

	annotated := make(map[string]model.MarketInsight, len(insights))
	for _, market := range sortedKeys(insights) {
		insight := insights[market]

		result, err := a.verifier.Verify(ctx, insight, model.DataTypeMarket, map[string]string{"market": market})
		if err != nil {
			return Report{}, fmt.Errorf("verifying insight for %s: %w", market, err)
		}

		if len(result.CorrectedData) > 0 {
			var corrected model.MarketInsight
			if jsonErr := json.Unmarshal(result.CorrectedData, &corrected); jsonErr == nil && corrected.Market == market {
				insight = corrected
			}
		}

		annotated[market] = insight.WithConfidence(result.Confidence)
	}

	verifiedReqs, err := a.verifier.VerifyRequirements(ctx, reqs)
	if err != nil {
		return Report{}, fmt.Errorf("verifying requirements: %w", err)
	}

	report := Report{
		Selection:    selection,
		Insights:     annotated,
		Requirements: verifiedReqs,
		TimelineDays: EstimateTimelineDays(verifiedReqs),
	}

	a.logger.Info("report assembled",
		"hs_code", selection.Code(),
		"markets", len(annotated),
		"requirements", len(verifiedReqs),
		"timeline_days", report.TimelineDays)

	return report, nil
}

// EstimateTimelineDays models partially parallel compliance work: the longest
// requirement runs in full and every other requirement contributes a quarter
// of its duration. The coefficients are a preserved heuristic, not validated
// business truth.
func EstimateTimelineDays(reqs []model.ComplianceRequirement) int {
	if len(reqs) == 0 {
		return 0
	}

	longest := 0
	total := 0
	for _, req := range reqs {
		if req.EstimatedDays > longest {
			longest = req.EstimatedDays
		}
		total += req.EstimatedDays
	}

	return longest + int(math.Round(0.25*float64(total-longest)))
}

func sortedKeys(m map[string]model.MarketInsight) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
