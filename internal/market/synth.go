package market

import (
	"context"
	"fmt"

	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
)

// growthOpportunityRate is the annual growth percentage above which a market
// earns a growth-opportunity bullet.
const growthOpportunityRate = 4.0

// highTariffRate is the applied rate above which tariffs are flagged as a
// risk.
const highTariffRate = 8.0

// insightBullets holds the three derived lists.
type insightBullets struct {
	Opportunities   []string `json:"opportunities"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
}

// synthesizeBullets asks the enrichment provider to turn the structured data
// into bullet-point insights; on failure or absent configuration the
// rule-based generator produces the same fields from the same inputs. Both
// paths yield non-empty lists whenever the structured data is non-empty.
func (a *Aggregator) synthesizeBullets(ctx context.Context, market string, insight *model.MarketInsight, profile model.BusinessProfile) (insightBullets, bool) {
	return provider.Resolve(ctx, "llm", "insight synthesis",
		func(ctx context.Context) (insightBullets, error) {
			if a.llm == nil || !a.llm.Available() {
				return insightBullets{}, provider.Unavailable("llm")
			}

			var bullets insightBullets
			err := a.llm.CompleteJSON(ctx, synthSystemPrompt, buildSynthPrompt(market, insight, profile), &bullets)
			if err != nil {
				return insightBullets{}, err
			}
			if len(bullets.Opportunities) == 0 || len(bullets.Risks) == 0 || len(bullets.Recommendations) == 0 {
				return insightBullets{}, fmt.Errorf("insight synthesis: %w", provider.ErrEmptyResult)
			}
			return bullets, nil
		},
		func(_ context.Context) insightBullets {
			return ruleBasedBullets(market, insight, profile)
		})
}

// ruleBasedBullets derives opportunities, risks and recommendations
// deterministically from the already-fetched structured data.
func ruleBasedBullets(market string, insight *model.MarketInsight, profile model.BusinessProfile) insightBullets {
	var b insightBullets

	if insight.Size.GrowthRate > growthOpportunityRate {
		b.Opportunities = append(b.Opportunities,
			fmt.Sprintf("%s is growing at %.1f%% annually, well above mature-market rates", market, insight.Size.GrowthRate))
	}
	for _, competitor := range insight.Competitors {
		for _, weakness := range competitor.Weaknesses {
			b.Opportunities = append(b.Opportunities,
				fmt.Sprintf("counter-position against %s on its weakness: %s", competitor.Name, weakness))
		}
	}
	if len(b.Opportunities) == 0 {
		b.Opportunities = append(b.Opportunities,
			fmt.Sprintf("establish an early foothold in %s before competition consolidates", market))
	}

	for _, barrier := range insight.EntryBarriers {
		b.Risks = append(b.Risks, fmt.Sprintf("entry barrier: %s", barrier))
	}
	for _, line := range insight.Tariffs {
		if line.Rate > highTariffRate {
			b.Risks = append(b.Risks,
				fmt.Sprintf("tariff of %.2f%% on %s erodes price competitiveness", line.Rate, line.Category))
		}
	}
	if len(b.Risks) == 0 {
		b.Risks = append(b.Risks,
			fmt.Sprintf("limited local market intelligence for %s increases execution risk", market))
	}

	if len(insight.Competitors) > 0 {
		leader := insight.Competitors[0]
		b.Recommendations = append(b.Recommendations,
			fmt.Sprintf("benchmark pricing and positioning against %s (%.1f%% share)", leader.Name, leader.MarketShare))
	}
	if profile.ExportExperience == "" || profile.ExportExperience == "none" {
		b.Recommendations = append(b.Recommendations,
			"partner with an established local distributor for the first market entry")
	} else {
		b.Recommendations = append(b.Recommendations,
			"leverage existing export channels to negotiate direct retail listings")
	}
	b.Recommendations = append(b.Recommendations,
		fmt.Sprintf("budget for compliance work against the %d identified entry barriers", len(insight.EntryBarriers)))

	return b
}

const synthSystemPrompt = "You are a trade market analyst. You MUST respond with ONLY a valid JSON object, " +
	"no markdown formatting or commentary."

// buildSynthPrompt creates the enrichment prompt from structured data already
// fetched for the market.
func buildSynthPrompt(market string, insight *model.MarketInsight, profile model.BusinessProfile) string {
	competitorSummary := ""
	for _, c := range insight.Competitors {
		competitorSummary += fmt.Sprintf("- %s (%.1f%% share), weaknesses: %v\n", c.Name, c.MarketShare, c.Weaknesses)
	}

	return fmt.Sprintf(`Derive export insights for a business entering market %s.

Business: %s (%s industry, export experience: %s)

Market size: %.0f %s (%d), growth %.1f%% per year
Competitors:
%s
Entry barriers: %v

Respond with JSON in exactly this shape:
{"opportunities":["..."],"risks":["..."],"recommendations":["..."]}

Each list must contain between 2 and 5 concise bullet strings grounded in the data above.`,
		market,
		profile.Name, profile.Industry, profile.ExportExperience,
		insight.Size.Value, insight.Size.Currency, insight.Size.Year, insight.Size.GrowthRate,
		competitorSummary,
		insight.EntryBarriers)
}
