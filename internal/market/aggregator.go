// Package market implements the market/compliance aggregator: per-market
// fan-out that merges market size, competitor, entry-barrier and tariff data
// into one insight record, with deterministic fallback per pipeline stage.
package market

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/seanmking/tradewizard-core/internal/cache"
	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
)

// defaultWorkers bounds per-market fan-out when the caller does not say.
const defaultWorkers = 4

// tariffProvider is the slice of the HS/tariff client the aggregator uses.
type tariffProvider interface {
	TariffRate(ctx context.Context, market string) (float64, error)
	Available() bool
}

// completionProvider is the slice of the LLM client used for market research
// and insight synthesis.
type completionProvider interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error
	Available() bool
}

// Aggregator produces one MarketInsight per target market.
type Aggregator struct {
	tariffs tariffProvider
	llm     completionProvider
	cache   *cache.Cache[model.MarketInsight]
	logger  *slog.Logger
	workers int
}

// NewAggregator creates an aggregator. Either provider may be nil or
// unconfigured; the fallback table covers every stage.
func NewAggregator(tariffs tariffProvider, llm completionProvider, c *cache.Cache[model.MarketInsight], workers int, logger *slog.Logger) *Aggregator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		tariffs: tariffs,
		llm:     llm,
		cache:   c,
		workers: workers,
		logger:  logger,
	}
}

// Insights fans out over the target markets and returns a fully populated
// insight per market, keyed by market code. A failure fetching one market's
// data never aborts the others; each stage of each market is either live or
// deterministic fallback, recorded in FallbackStages. The only errors
// returned are caller-input validation errors.
func (a *Aggregator) Insights(ctx context.Context, markets []string, categories []string, profile model.BusinessProfile) (map[string]model.MarketInsight, error) {
	if len(markets) == 0 {
		return nil, common.NewUserError("at least one target market is required", common.ErrInvalidMarket)
	}
	if len(categories) == 0 {
		return nil, common.NewUserError("at least one product category is required", common.ErrInvalidConfig)
	}
	for _, m := range markets {
		if err := model.ValidateMarketCode(m); err != nil {
			return nil, common.NewUserError(err.Error(), common.ErrInvalidMarket)
		}
	}

	markets = dedupe(markets)

	results := make([]model.MarketInsight, len(markets))
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup

	for i, m := range markets {
		wg.Add(1)
		go func(idx int, market string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Still deliver a deterministic record so the caller never
				// sees a missing market.
				results[idx] = a.fallbackInsight(market, categories, profile)
				return
			}

			results[idx] = a.buildInsight(ctx, market, categories, profile)
		}(i, m)
	}

	wg.Wait()

	out := make(map[string]model.MarketInsight, len(results))
	for _, insight := range results {
		out[insight.Market] = insight
	}
	return out, nil
}

// buildInsight runs the per-market pipeline: size, competitors, barriers,
// tariffs, then derived bullets. Every fetch has its own fallback boundary so
// one stage's failure does not discard another's data.
func (a *Aggregator) buildInsight(ctx context.Context, market string, categories []string, profile model.BusinessProfile) model.MarketInsight {
	key := insightCacheKey(market, categories, profile)
	if a.cache != nil {
		if cached, found := a.cache.Get(key); found {
			a.logger.Debug("insight cache hit", "market", market)
			return cached
		}
	}

	fallbackProfile := profileFor(market)
	insight := model.MarketInsight{Market: market}
	var degraded []string

	size, live := a.fetchSize(ctx, market)
	if !live {
		size = fallbackProfile.size
		degraded = append(degraded, "market_size")
	}
	insight.Size = size

	competitors, live := a.fetchCompetitors(ctx, market)
	if !live {
		competitors = fallbackProfile.competitors
		degraded = append(degraded, "competitors")
	}
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].MarketShare > competitors[j].MarketShare
	})
	insight.Competitors = competitors

	barriers, live := a.fetchBarriers(ctx, market)
	if !live {
		barriers = fallbackProfile.barriers
		degraded = append(degraded, "entry_barriers")
	}
	insight.EntryBarriers = barriers

	baseRate, live := a.fetchBaseTariff(ctx, market)
	if !live {
		baseRate = fallbackProfile.baseTariff
		degraded = append(degraded, "tariffs")
	}
	insight.Tariffs = deriveTariffs(market, baseRate, categories)

	bullets, live := a.synthesizeBullets(ctx, market, &insight, profile)
	if !live {
		degraded = append(degraded, "insight_synthesis")
	}
	insight.Opportunities = bullets.Opportunities
	insight.Risks = bullets.Risks
	insight.Recommendations = bullets.Recommendations

	insight.FallbackStages = degraded
	if len(degraded) == 0 {
		insight.Source = model.SourceProvider
	} else {
		insight.Source = model.SourceFallback
	}

	a.logger.Info("market insight assembled",
		"market", market,
		"fallback_stages", degraded,
		"competitors", len(insight.Competitors))

	if a.cache != nil && len(degraded) == 0 {
		a.cache.Set(key, insight)
	}

	return insight
}

// fallbackInsight builds a record purely from the deterministic table.
func (a *Aggregator) fallbackInsight(market string, categories []string, profile model.BusinessProfile) model.MarketInsight {
	p := profileFor(market)
	insight := model.MarketInsight{
		Market:        market,
		Size:          p.size,
		Competitors:   p.competitors,
		EntryBarriers: p.barriers,
		Tariffs:       deriveTariffs(market, p.baseTariff, categories),
		Source:        model.SourceFallback,
		FallbackStages: []string{
			"market_size", "competitors", "entry_barriers", "tariffs", "insight_synthesis",
		},
	}
	bullets := ruleBasedBullets(market, &insight, profile)
	insight.Opportunities = bullets.Opportunities
	insight.Risks = bullets.Risks
	insight.Recommendations = bullets.Recommendations
	return insight
}

// fetchSize asks the research provider for the market size figure.
func (a *Aggregator) fetchSize(ctx context.Context, market string) (model.MarketSize, bool) {
	return provider.Resolve(ctx, "llm", "market size",
		func(ctx context.Context) (model.MarketSize, error) {
			if a.llm == nil || !a.llm.Available() {
				return model.MarketSize{}, provider.Unavailable("llm")
			}
			var resp struct {
				Value      float64 `json:"value"`
				Currency   string  `json:"currency"`
				Year       int     `json:"year"`
				GrowthRate float64 `json:"growthRate"`
			}
			prompt := fmt.Sprintf(`Estimate the current addressable market size for consumer goods imports in market %s.

Respond with JSON in exactly this shape:
{"value":512000000000,"currency":"USD","year":2025,"growthRate":3.2}`, market)
			if err := a.llm.CompleteJSON(ctx, synthSystemPrompt, prompt, &resp); err != nil {
				return model.MarketSize{}, err
			}
			if resp.Value <= 0 || resp.Currency == "" {
				return model.MarketSize{}, fmt.Errorf("market size for %s: %w", market, provider.ErrEmptyResult)
			}
			return model.MarketSize{
				Value:      resp.Value,
				Currency:   resp.Currency,
				Year:       resp.Year,
				GrowthRate: resp.GrowthRate,
			}, nil
		},
		func(_ context.Context) model.MarketSize {
			return profileFor(market).size
		})
}

// fetchCompetitors asks the research provider for the ranked competitor list.
func (a *Aggregator) fetchCompetitors(ctx context.Context, market string) ([]model.Competitor, bool) {
	return provider.Resolve(ctx, "llm", "competitors",
		func(ctx context.Context) ([]model.Competitor, error) {
			if a.llm == nil || !a.llm.Available() {
				return nil, provider.Unavailable("llm")
			}
			var resp struct {
				Competitors []struct {
					Name        string   `json:"name"`
					MarketShare float64  `json:"marketShare"`
					Strengths   []string `json:"strengths"`
					Weaknesses  []string `json:"weaknesses"`
				} `json:"competitors"`
			}
			prompt := fmt.Sprintf(`List the leading import/distribution competitors in market %s.

Respond with JSON in exactly this shape:
{"competitors":[{"name":"...","marketShare":12.5,"strengths":["..."],"weaknesses":["..."]}]}`, market)
			if err := a.llm.CompleteJSON(ctx, synthSystemPrompt, prompt, &resp); err != nil {
				return nil, err
			}
			if len(resp.Competitors) == 0 {
				return nil, fmt.Errorf("competitors for %s: %w", market, provider.ErrEmptyResult)
			}
			out := make([]model.Competitor, 0, len(resp.Competitors))
			for _, c := range resp.Competitors {
				out = append(out, model.Competitor{
					Name:        c.Name,
					MarketShare: c.MarketShare,
					Strengths:   c.Strengths,
					Weaknesses:  c.Weaknesses,
				})
			}
			return out, nil
		},
		func(_ context.Context) []model.Competitor {
			return profileFor(market).competitors
		})
}

// fetchBarriers asks the research provider for market entry barriers.
func (a *Aggregator) fetchBarriers(ctx context.Context, market string) ([]string, bool) {
	return provider.Resolve(ctx, "llm", "entry barriers",
		func(ctx context.Context) ([]string, error) {
			if a.llm == nil || !a.llm.Available() {
				return nil, provider.Unavailable("llm")
			}
			var resp struct {
				Barriers []string `json:"barriers"`
			}
			prompt := fmt.Sprintf(`List the practical entry barriers a foreign exporter faces in market %s.

Respond with JSON in exactly this shape:
{"barriers":["..."]}`, market)
			if err := a.llm.CompleteJSON(ctx, synthSystemPrompt, prompt, &resp); err != nil {
				return nil, err
			}
			if len(resp.Barriers) == 0 {
				return nil, fmt.Errorf("barriers for %s: %w", market, provider.ErrEmptyResult)
			}
			return resp.Barriers, nil
		},
		func(_ context.Context) []string {
			return profileFor(market).barriers
		})
}

// fetchBaseTariff asks the tariff provider for the market's base rate.
func (a *Aggregator) fetchBaseTariff(ctx context.Context, market string) (float64, bool) {
	return provider.Resolve(ctx, "hs", "base tariff",
		func(ctx context.Context) (float64, error) {
			if a.tariffs == nil || !a.tariffs.Available() {
				return 0, provider.Unavailable("hs")
			}
			rate, err := a.tariffs.TariffRate(ctx, market)
			if err != nil {
				return 0, err
			}
			if rate < 0 {
				return 0, fmt.Errorf("base tariff for %s: %w", market, provider.ErrEmptyResult)
			}
			return rate, nil
		},
		func(_ context.Context) float64 {
			return profileFor(market).baseTariff
		})
}

// insightCacheKey covers every input that shapes the record. The business
// profile is part of the key because synthesized bullets embed it; two callers
// with different profiles must never share a cached insight.
func insightCacheKey(market string, categories []string, profile model.BusinessProfile) string {
	sorted := make([]string, len(categories))
	copy(sorted, categories)
	sort.Strings(sorted)
	return strings.Join([]string{
		"insight", market, strings.Join(sorted, ","),
		profile.Name, profile.Industry, profile.ExportExperience, profile.HomeMarket,
	}, ":")
}

func dedupe(markets []string) []string {
	seen := make(map[string]bool, len(markets))
	out := make([]string, 0, len(markets))
	for _, m := range markets {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
