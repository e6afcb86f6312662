package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seanmking/tradewizard-core/internal/hs"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/report"
)

// defaultRequirementDays is the timeline estimate assigned to requirements
// derived from entry barriers when no requirements file is supplied.
const defaultRequirementDays = 14

func reportCmd() *cobra.Command {
	var (
		markets    []string
		categories []string
		business   string
		industry   string
		experience string
		reqFile    string
	)

	cmd := &cobra.Command{
		Use:   "report <product description>",
		Short: "Assemble a full export-readiness report",
		Long: `Runs the whole pipeline: classifies the product, aggregates insights for
each target market, verifies the results and assembles the final report.
Classification walks the hierarchy by always taking the top candidate; use
the classify command's guided mode to choose interactively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.close()

			description := strings.Join(args, " ")
			ctx := cmd.Context()

			selection, err := classifyTopPath(ctx, c, description)
			if err != nil {
				return err
			}

			profile := model.BusinessProfile{
				Name:             business,
				Industry:         industry,
				ExportExperience: experience,
			}

			insights, err := c.insights.Insights(ctx, markets, categories, profile)
			if err != nil {
				return err
			}

			reqs, err := loadRequirements(reqFile, insights)
			if err != nil {
				return err
			}

			assembler := report.NewAssembler(c.verifier, nil)
			rep, err := assembler.Assemble(ctx, selection, insights, reqs)
			if err != nil {
				return err
			}

			printReport(rep)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&markets, "markets", nil, "target market codes (e.g. US,GB,AE)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "product categories (e.g. food,electronics)")
	cmd.Flags().StringVar(&business, "business", "", "business name for the profile")
	cmd.Flags().StringVar(&industry, "industry", "", "business industry")
	cmd.Flags().StringVar(&experience, "experience", "none", "export experience level")
	cmd.Flags().StringVar(&reqFile, "requirements", "", "optional JSON file of compliance requirements")
	_ = cmd.MarkFlagRequired("markets")
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}

// classifyTopPath walks the hierarchy non-interactively by selecting the top
// option at every level, then completes the selection.
func classifyTopPath(ctx context.Context, c *core, description string) (model.HSSelection, error) {
	session := hs.NewSession(c.engine, hs.SessionOptions{})

	step, err := session.Start(ctx, description)
	if err != nil {
		return model.HSSelection{}, err
	}

	for step.Stage != model.StageSubheadingSelected {
		top := step.Candidates.Top()
		if top == nil {
			return model.HSSelection{}, fmt.Errorf("no candidates offered at stage %s", step.Stage)
		}
		step, err = session.Select(ctx, top.Code)
		if err != nil {
			return model.HSSelection{}, err
		}
	}

	return session.Complete()
}

// loadRequirements reads the requirements file, or derives one requirement per
// entry barrier when no file is given so the report always has a timeline.
func loadRequirements(path string, insights map[string]model.MarketInsight) ([]model.ComplianceRequirement, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read requirements file: %w", err)
		}
		var reqs []model.ComplianceRequirement
		if err := json.Unmarshal(data, &reqs); err != nil {
			return nil, fmt.Errorf("failed to parse requirements file: %w", err)
		}
		return reqs, nil
	}

	var reqs []model.ComplianceRequirement
	for _, insight := range insights {
		for i, barrier := range insight.EntryBarriers {
			reqs = append(reqs, model.ComplianceRequirement{
				ID:            fmt.Sprintf("%s-%02d", insight.Market, i+1),
				Name:          barrier,
				Market:        insight.Market,
				EstimatedDays: defaultRequirementDays,
			})
		}
	}
	return reqs, nil
}

func printReport(rep report.Report) {
	fmt.Println("Classification path:")
	for _, step := range rep.Selection.Path() {
		fmt.Printf("  %-6s %s\n", step.Code, step.Description)
	}

	for _, market := range sortedInsightKeys(rep.Insights) {
		insight := rep.Insights[market]
		printInsight(insight)
		fmt.Printf("Verification confidence: %.2f\n", insight.ConfidenceScore)
	}

	fmt.Println("\nCompliance requirements:")
	for _, req := range rep.Requirements {
		fmt.Printf("  %-8s %-50s %3dd  confidence %.2f\n", req.ID, req.Name, req.EstimatedDays, req.ConfidenceScore)
	}

	fmt.Printf("\nEstimated compliance timeline: %d days\n", rep.TimelineDays)
}

func sortedInsightKeys(m map[string]model.MarketInsight) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
