package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/seanmking/tradewizard-core/internal/model"
)

func insightsCmd() *cobra.Command {
	var (
		markets    []string
		categories []string
		business   string
		industry   string
		experience string
	)

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Aggregate per-market trade insights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := buildCore()
			if err != nil {
				return err
			}
			defer c.close()

			profile := model.BusinessProfile{
				Name:             business,
				Industry:         industry,
				ExportExperience: experience,
			}

			insights, err := c.insights.Insights(cmd.Context(), markets, categories, profile)
			if err != nil {
				return err
			}

			codes := make([]string, 0, len(insights))
			for code := range insights {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			for _, code := range codes {
				printInsight(insights[code])
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&markets, "markets", nil, "target market codes (e.g. US,GB,AE)")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "product categories (e.g. food,electronics)")
	cmd.Flags().StringVar(&business, "business", "", "business name for the profile")
	cmd.Flags().StringVar(&industry, "industry", "", "business industry")
	cmd.Flags().StringVar(&experience, "experience", "none", "export experience level")
	_ = cmd.MarkFlagRequired("markets")
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}

func printInsight(insight model.MarketInsight) {
	fmt.Printf("\n=== %s", insight.Market)
	if insight.Degraded() {
		fmt.Printf(" (fallback stages: %v)", insight.FallbackStages)
	}
	fmt.Println(" ===")

	fmt.Printf("Market size: %.0f %s (%d), growth %.1f%%\n",
		insight.Size.Value, insight.Size.Currency, insight.Size.Year, insight.Size.GrowthRate)

	fmt.Println("Competitors:")
	for _, c := range insight.Competitors {
		fmt.Printf("  - %s (%.1f%%)\n", c.Name, c.MarketShare)
	}

	fmt.Println("Tariffs:")
	categories := make([]string, 0, len(insight.Tariffs))
	for cat := range insight.Tariffs {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	for _, cat := range categories {
		line := insight.Tariffs[cat]
		fmt.Printf("  - %s: %.2f%% (%s)\n", line.Category, line.Rate, line.Notes)
	}

	printBullets("Opportunities", insight.Opportunities)
	printBullets("Risks", insight.Risks)
	printBullets("Recommendations", insight.Recommendations)
}

func printBullets(title string, items []string) {
	fmt.Printf("%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}
