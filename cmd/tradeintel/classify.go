package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seanmking/tradewizard-core/internal/hs"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/service"
)

func classifyCmd() *cobra.Command {
	var (
		threshold  float64
		maxResults int
		noCache    bool
		guided     bool
	)

	cmd := &cobra.Command{
		Use:   "classify <product description>",
		Short: "Classify a product description into HS code candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.close()

			description := strings.Join(args, " ")
			opts := service.ClassifyOptions{
				ConfidenceThreshold: threshold,
				MaxResults:          maxResults,
				UseCache:            !noCache,
			}

			if guided {
				return runGuided(cmd, c, description, opts)
			}

			candidates, err := c.classifier.Classify(cmd.Context(), description, opts)
			if err != nil {
				return err
			}

			printCandidates(candidates)

			if top := candidates.Top(); top != nil && len(top.Code) == model.LevelSubheading.Digits() {
				path, pathErr := c.classifier.CodePath(cmd.Context(), top.Code)
				if pathErr == nil {
					fmt.Println("\nClassification path:")
					for _, step := range path {
						fmt.Printf("  %-6s %s\n", step.Code, step.Description)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", 0, "drop candidates below this confidence")
	cmd.Flags().IntVar(&maxResults, "max-results", 5, "maximum candidates to return")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the classification cache")
	cmd.Flags().BoolVar(&guided, "guided", false, "walk the hierarchy one level at a time")

	return cmd
}

// runGuided drives a session with auto-advance and prints what it selected
// and what remains for the user to choose.
func runGuided(cmd *cobra.Command, c *core, description string, opts service.ClassifyOptions) error {
	session := hs.NewSession(c.engine, hs.SessionOptions{Classify: opts})

	step, err := session.Start(cmd.Context(), description)
	if err != nil {
		return err
	}

	for _, selected := range step.AutoSelected {
		fmt.Printf("auto-selected %s (%s, confidence %.2f)\n",
			selected.Code, selected.Description, selected.Confidence)
	}

	fmt.Printf("\nSession stage: %s\n", step.Stage)
	if len(step.Candidates) > 0 {
		fmt.Println("Next options:")
		printCandidates(step.Candidates)
	} else {
		fmt.Printf("Selected path: %s\n", session.Selection().Code())
	}

	return nil
}

func printCandidates(candidates model.Candidates) {
	for i, c := range candidates {
		marker := ""
		if c.Source == model.SourceFallback {
			marker = " [fallback]"
		}
		fmt.Printf("%2d. %-6s %.2f  %s%s\n", i+1, c.Code, c.Confidence, c.Description, marker)
	}
}
