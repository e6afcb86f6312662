package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/model"
)

func verifyCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the verification pass over compliance requirements",
		Long: `Reads a JSON array of compliance requirements and annotates each with an
independent verification confidence. Without a verification credential the
simulated verifier is used, so the command always completes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.close()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read requirements file: %w", err)
			}

			var reqs []model.ComplianceRequirement
			if err := json.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("failed to parse requirements file: %w", err)
			}
			if len(reqs) == 0 {
				return fmt.Errorf("requirements file is empty")
			}

			bar := progressbar.Default(int64(len(reqs)), "verifying")

			// Items are verified one at a time here so the bar tracks real
			// progress; the batch API is for library callers.
			verified := make([]model.ComplianceRequirement, 0, len(reqs))
			for _, req := range reqs {
				annotated, batchErr := c.verifier.VerifyRequirements(cmd.Context(), []model.ComplianceRequirement{req})
				if batchErr != nil {
					return batchErr
				}
				verified = append(verified, annotated[0])
				_ = bar.Add(1)
			}

			common.LogInfo("verification pass complete", common.Fields{
				"requirements": len(verified),
				"simulated":    c.cfg.ForceSimulatedVerification || !c.vfyClient.Available(),
			})

			fmt.Println()
			for _, req := range verified {
				fmt.Printf("%-12s %-40s confidence %.2f\n", req.ID, req.Name, req.ConfidenceScore)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to JSON file of compliance requirements")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
