package market

import "github.com/seanmking/tradewizard-core/internal/model"

// marketProfile is the deterministic fallback record for one target market.
type marketProfile struct {
	size        model.MarketSize
	competitors []model.Competitor
	barriers    []string
	baseTariff  float64
}

// marketProfiles is the built-in fallback table keyed by market code. The
// default profile serves markets the table does not know.
var marketProfiles = map[string]marketProfile{
	"US": {
		size: model.MarketSize{Value: 512_000_000_000, Currency: "USD", Year: 2025, GrowthRate: 3.2},
		competitors: []model.Competitor{
			{Name: "National Distributors Inc", MarketShare: 18.5,
				Strengths:  []string{"established retail relationships", "nationwide logistics"},
				Weaknesses: []string{"slow product innovation", "premium pricing"}},
			{Name: "Coastal Imports LLC", MarketShare: 11.2,
				Strengths:  []string{"aggressive pricing"},
				Weaknesses: []string{"limited cold-chain coverage", "weak brand recognition"}},
		},
		barriers: []string{
			"FDA registration and labelling requirements",
			"high retail listing fees",
			"strong incumbent brand loyalty",
		},
		baseTariff: 4.5,
	},
	"GB": {
		size: model.MarketSize{Value: 98_000_000_000, Currency: "GBP", Year: 2025, GrowthRate: 2.1},
		competitors: []model.Competitor{
			{Name: "Britannia Trading Co", MarketShare: 15.4,
				Strengths:  []string{"supermarket shelf presence"},
				Weaknesses: []string{"narrow product range"}},
			{Name: "Thames Wholesale Group", MarketShare: 9.8,
				Strengths:  []string{"flexible order volumes"},
				Weaknesses: []string{"aging distribution fleet", "limited e-commerce"}},
		},
		barriers: []string{
			"UKCA conformity marking",
			"post-Brexit customs declarations",
			"retail consolidation limiting entry points",
		},
		baseTariff: 3.8,
	},
	"DE": {
		size: model.MarketSize{Value: 121_000_000_000, Currency: "EUR", Year: 2025, GrowthRate: 1.9},
		competitors: []model.Competitor{
			{Name: "Rheinland Handels GmbH", MarketShare: 14.1,
				Strengths:  []string{"quality certifications", "B2B network depth"},
				Weaknesses: []string{"conservative product selection"}},
			{Name: "Nordsee Import AG", MarketShare: 8.3,
				Strengths:  []string{"port logistics"},
				Weaknesses: []string{"weak marketing presence"}},
		},
		barriers: []string{
			"CE marking and EU conformity requirements",
			"strict packaging waste regulations",
			"preference for long-term supplier relationships",
		},
		baseTariff: 3.2,
	},
	"AE": {
		size: model.MarketSize{Value: 42_000_000_000, Currency: "AED", Year: 2025, GrowthRate: 5.6},
		competitors: []model.Competitor{
			{Name: "Gulf Gate Trading", MarketShare: 21.0,
				Strengths:  []string{"free-zone warehousing", "re-export network"},
				Weaknesses: []string{"thin margins on staples"}},
		},
		barriers: []string{
			"halal certification for food products",
			"local sponsor or free-zone setup requirements",
		},
		baseTariff: 5.0,
	},
	"CN": {
		size: model.MarketSize{Value: 389_000_000_000, Currency: "CNY", Year: 2025, GrowthRate: 4.8},
		competitors: []model.Competitor{
			{Name: "Shanghai Meridian Trade", MarketShare: 12.7,
				Strengths:  []string{"e-commerce platform integration", "price competitiveness"},
				Weaknesses: []string{"inconsistent quality control"}},
			{Name: "Guangzhou Pacific Co", MarketShare: 10.4,
				Strengths:  []string{"manufacturing partnerships"},
				Weaknesses: []string{"limited premium positioning"}},
		},
		barriers: []string{
			"CIQ inspection and quarantine procedures",
			"mandatory Chinese-language labelling",
			"cross-border e-commerce licensing",
		},
		baseTariff: 7.5,
	},
	"JP": {
		size: model.MarketSize{Value: 156_000_000_000, Currency: "JPY", Year: 2025, GrowthRate: 1.4},
		competitors: []model.Competitor{
			{Name: "Sakura Trading KK", MarketShare: 16.9,
				Strengths:  []string{"department store relationships", "reputation for reliability"},
				Weaknesses: []string{"high cost structure", "slow onboarding of foreign suppliers"}},
		},
		barriers: []string{
			"JAS labelling standards",
			"multi-layered wholesale distribution",
			"high consumer quality expectations",
		},
		baseTariff: 4.2,
	},
}

// defaultProfile serves any market the table does not know.
var defaultProfile = marketProfile{
	size: model.MarketSize{Value: 25_000_000_000, Currency: "USD", Year: 2025, GrowthRate: 2.5},
	competitors: []model.Competitor{
		{Name: "Regional Distribution Partners", MarketShare: 12.0,
			Strengths:  []string{"local market knowledge"},
			Weaknesses: []string{"limited capital for expansion"}},
	},
	barriers: []string{
		"import licensing requirements",
		"established local supplier preferences",
	},
	baseTariff: 6.0,
}

// profileFor returns the fallback profile for a market code.
func profileFor(market string) marketProfile {
	if p, ok := marketProfiles[market]; ok {
		return p
	}
	return defaultProfile
}
