package market

import (
	"fmt"
	"math"
	"strings"

	"github.com/seanmking/tradewizard-core/internal/model"
)

// Category multipliers applied to a market's base tariff rate. This is a
// deterministic, auditable transform, not a provider call; the figures must
// reproduce exactly.
const (
	agriculturalMultiplier = 1.5
	electronicsMultiplier  = 0.8
	luxuryMultiplier       = 2.0
	defaultMultiplier      = 1.0
)

// categoryMultiplier returns the tariff multiplier for a product category.
func categoryMultiplier(category string) float64 {
	switch normalizeCategory(category) {
	case "agricultural", "food", "agriculture", "produce", "beverages":
		return agriculturalMultiplier
	case "electronics", "technology", "appliances":
		return electronicsMultiplier
	case "luxury", "jewellery", "jewelry", "cosmetics":
		return luxuryMultiplier
	default:
		return defaultMultiplier
	}
}

// deriveTariffs builds the per-category tariff table from a market base rate.
func deriveTariffs(market string, baseRate float64, categories []string) map[string]model.TariffLine {
	out := make(map[string]model.TariffLine, len(categories))
	for _, category := range categories {
		multiplier := categoryMultiplier(category)
		out[category] = model.TariffLine{
			Category: category,
			Rate:     round2(baseRate * multiplier),
			Notes:    tariffNote(market, multiplier),
		}
	}
	return out
}

func tariffNote(market string, multiplier float64) string {
	switch {
	case multiplier > defaultMultiplier:
		return fmt.Sprintf("elevated rate applied by %s for this category", market)
	case multiplier < defaultMultiplier:
		return fmt.Sprintf("reduced rate applied by %s for this category", market)
	default:
		return fmt.Sprintf("standard rate applied by %s", market)
	}
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// round2 rounds to two decimals so derived rates are stable for comparison.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
