package market

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmking/tradewizard-core/internal/cache"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
	"github.com/seanmking/tradewizard-core/internal/service"
)

var _ service.InsightProvider = (*Aggregator)(nil)

// fakeTariffs is a scriptable tariffProvider. The call counter is atomic
// because the aggregator fans out across goroutines.
type fakeTariffs struct {
	rateFn      func(market string) (float64, error)
	unavailable bool
	calls       atomic.Int32
}

func (f *fakeTariffs) TariffRate(_ context.Context, market string) (float64, error) {
	f.calls.Add(1)
	return f.rateFn(market)
}

func (f *fakeTariffs) Available() bool {
	return !f.unavailable
}

// fakeResearch is a scriptable completionProvider that answers the research
// prompts from canned JSON, keyed by prompt content.
type fakeResearch struct {
	failStages map[string]bool
	// synthFn, when set, builds the synthesis payload from the prompt so
	// tests can make bullets depend on the business profile.
	synthFn     func(userPrompt string) string
	unavailable bool
	calls       atomic.Int32
}

func (f *fakeResearch) CompleteJSON(_ context.Context, _ string, userPrompt string, out any) error {
	f.calls.Add(1)

	stage := ""
	switch {
	case strings.Contains(userPrompt, "market size"):
		stage = "size"
	case strings.Contains(userPrompt, "competitors"):
		stage = "competitors"
	case strings.Contains(userPrompt, "entry barriers"):
		stage = "barriers"
	case strings.Contains(userPrompt, "export insights"):
		stage = "synthesis"
	}

	if f.failStages[stage] {
		return provider.Unavailable("llm")
	}

	var payload string
	switch stage {
	case "size":
		payload = `{"value":90000000000,"currency":"USD","year":2025,"growthRate":5.1}`
	case "competitors":
		payload = `{"competitors":[{"name":"Acme Imports","marketShare":14.0,"strengths":["scale"],"weaknesses":["slow fulfilment"]}]}`
	case "barriers":
		payload = `{"barriers":["import licensing paperwork"]}`
	case "synthesis":
		if f.synthFn != nil {
			payload = f.synthFn(userPrompt)
		} else {
			payload = `{"opportunities":["growing demand"],"risks":["tariff exposure"],"recommendations":["start with one region"]}`
		}
	default:
		return provider.Unavailable("llm")
	}

	return json.Unmarshal([]byte(payload), out)
}

func (f *fakeResearch) Available() bool {
	return !f.unavailable
}

func healthyTariffs(rate float64) *fakeTariffs {
	return &fakeTariffs{rateFn: func(string) (float64, error) { return rate, nil }}
}

func TestInsightsInputValidation(t *testing.T) {
	a := NewAggregator(nil, nil, nil, 0, nil)
	profile := model.BusinessProfile{Name: "Test Co"}

	_, err := a.Insights(context.Background(), nil, []string{"food"}, profile)
	assert.Error(t, err)

	_, err = a.Insights(context.Background(), []string{"US"}, nil, profile)
	assert.Error(t, err)

	_, err = a.Insights(context.Background(), []string{"usa"}, []string{"food"}, profile)
	assert.Error(t, err)
}

func TestInsightsFullyLive(t *testing.T) {
	a := NewAggregator(healthyTariffs(4.0), &fakeResearch{}, nil, 0, nil)

	insights, err := a.Insights(context.Background(), []string{"US"}, []string{"food"}, model.BusinessProfile{})
	require.NoError(t, err)
	require.Contains(t, insights, "US")

	us := insights["US"]
	assert.False(t, us.Degraded())
	assert.Empty(t, us.FallbackStages)
	assert.Equal(t, model.SourceProvider, us.Source)
	assert.InDelta(t, 90_000_000_000, us.Size.Value, 1e-3)
	require.Len(t, us.Competitors, 1)
	assert.Equal(t, "Acme Imports", us.Competitors[0].Name)
	assert.InDelta(t, 6.0, us.Tariffs["food"].Rate, 1e-9, "4.0 base rate * 1.5 agricultural multiplier")
	assert.NotEmpty(t, us.Opportunities)
	assert.NotEmpty(t, us.Risks)
	assert.NotEmpty(t, us.Recommendations)
}

func TestInsightsFullyFallback(t *testing.T) {
	a := NewAggregator(&fakeTariffs{unavailable: true}, &fakeResearch{unavailable: true}, nil, 0, nil)

	insights, err := a.Insights(context.Background(), []string{"US", "GB", "XX"}, []string{"electronics"}, model.BusinessProfile{})
	require.NoError(t, err)
	require.Len(t, insights, 3)

	for market, insight := range insights {
		assert.Equal(t, market, insight.Market)
		assert.True(t, insight.Degraded())
		assert.Len(t, insight.FallbackStages, 5, "every stage degraded")
		assert.Equal(t, model.SourceFallback, insight.Source)
		assert.NotEmpty(t, insight.Competitors)
		assert.NotEmpty(t, insight.EntryBarriers)
		assert.NotEmpty(t, insight.Opportunities)
		assert.NotEmpty(t, insight.Risks)
		assert.NotEmpty(t, insight.Recommendations)
	}

	// Unknown markets get the default profile, known ones their own table row.
	assert.InDelta(t, 4.5*0.8, insights["US"].Tariffs["electronics"].Rate, 1e-9)
	assert.InDelta(t, 6.0*0.8, insights["XX"].Tariffs["electronics"].Rate, 1e-9)
}

func TestInsightsPartialFailureIsolation(t *testing.T) {
	tariffs := &fakeTariffs{rateFn: func(string) (float64, error) {
		return 0, provider.Unavailable("hs")
	}}
	a := NewAggregator(tariffs, &fakeResearch{}, nil, 0, nil)

	insights, err := a.Insights(context.Background(), []string{"US"}, []string{"food"}, model.BusinessProfile{})
	require.NoError(t, err)

	us := insights["US"]
	assert.True(t, us.Degraded())
	assert.Equal(t, []string{"tariffs"}, us.FallbackStages, "only the failed stage is degraded")

	// Live research data survives the tariff failure; the tariff table comes
	// from the deterministic profile.
	assert.InDelta(t, 90_000_000_000, us.Size.Value, 1e-3)
	assert.Equal(t, "Acme Imports", us.Competitors[0].Name)
	assert.InDelta(t, 4.5*1.5, us.Tariffs["food"].Rate, 1e-9)
}

func TestInsightsPerMarketIsolation(t *testing.T) {
	tariffs := &fakeTariffs{rateFn: func(market string) (float64, error) {
		if market == "GB" {
			return 0, provider.Unavailable("hs")
		}
		return 4.0, nil
	}}
	a := NewAggregator(tariffs, &fakeResearch{}, nil, 0, nil)

	insights, err := a.Insights(context.Background(), []string{"US", "GB"}, []string{"textiles"}, model.BusinessProfile{})
	require.NoError(t, err)

	assert.False(t, insights["US"].Degraded(), "one market's failure must not degrade another")
	assert.Equal(t, []string{"tariffs"}, insights["GB"].FallbackStages)
}

func TestInsightsDedupe(t *testing.T) {
	research := &fakeResearch{}
	a := NewAggregator(healthyTariffs(4.0), research, nil, 0, nil)

	insights, err := a.Insights(context.Background(), []string{"US", "US", "GB"}, []string{"food"}, model.BusinessProfile{})
	require.NoError(t, err)
	assert.Len(t, insights, 2)
	assert.Equal(t, int32(8), research.calls.Load(), "4 research calls per distinct market")
}

func TestInsightsCaching(t *testing.T) {
	c := cache.New[model.MarketInsight](0, 0)
	t.Cleanup(c.Close)

	t.Run("fully live insights are cached", func(t *testing.T) {
		tariffs := healthyTariffs(4.0)
		a := NewAggregator(tariffs, &fakeResearch{}, c, 0, nil)

		_, err := a.Insights(context.Background(), []string{"US"}, []string{"food"}, model.BusinessProfile{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), tariffs.calls.Load())

		_, err = a.Insights(context.Background(), []string{"US"}, []string{"food"}, model.BusinessProfile{})
		require.NoError(t, err)
		assert.Equal(t, int32(1), tariffs.calls.Load(), "second request is served from cache")
	})

	t.Run("degraded insights are not cached", func(t *testing.T) {
		healthy := false
		tariffs := &fakeTariffs{rateFn: func(string) (float64, error) {
			if !healthy {
				return 0, provider.Unavailable("hs")
			}
			return 4.0, nil
		}}
		a := NewAggregator(tariffs, &fakeResearch{}, c, 0, nil)

		insights, err := a.Insights(context.Background(), []string{"GB"}, []string{"food"}, model.BusinessProfile{})
		require.NoError(t, err)
		assert.True(t, insights["GB"].Degraded())

		healthy = true
		insights, err = a.Insights(context.Background(), []string{"GB"}, []string{"food"}, model.BusinessProfile{})
		require.NoError(t, err)
		assert.False(t, insights["GB"].Degraded(), "recovery must not be masked by a cached degraded record")
	})
}

func TestInsightCacheKey(t *testing.T) {
	t.Run("ignores category order", func(t *testing.T) {
		assert.Equal(t,
			insightCacheKey("US", []string{"food", "electronics"}, model.BusinessProfile{}),
			insightCacheKey("US", []string{"electronics", "food"}, model.BusinessProfile{}))
	})

	t.Run("distinguishes business profiles", func(t *testing.T) {
		assert.NotEqual(t,
			insightCacheKey("US", []string{"food"}, model.BusinessProfile{ExportExperience: "none"}),
			insightCacheKey("US", []string{"food"}, model.BusinessProfile{ExportExperience: "advanced"}))
	})
}

func TestInsightsCacheKeyedByProfile(t *testing.T) {
	research := &fakeResearch{synthFn: func(userPrompt string) string {
		if strings.Contains(userPrompt, "export experience: advanced") {
			return `{"opportunities":["o"],"risks":["r"],"recommendations":["scale existing export channels"]}`
		}
		return `{"opportunities":["o"],"risks":["r"],"recommendations":["partner with a local distributor first"]}`
	}}
	c := cache.New[model.MarketInsight](0, 0)
	t.Cleanup(c.Close)
	a := NewAggregator(healthyTariffs(4.0), research, c, 0, nil)

	first, err := a.Insights(context.Background(), []string{"US"}, []string{"food"},
		model.BusinessProfile{Name: "Test Co", ExportExperience: "none"})
	require.NoError(t, err)
	require.Equal(t, []string{"partner with a local distributor first"}, first["US"].Recommendations)

	second, err := a.Insights(context.Background(), []string{"US"}, []string{"food"},
		model.BusinessProfile{Name: "Test Co", ExportExperience: "advanced"})
	require.NoError(t, err)
	assert.Equal(t, []string{"scale existing export channels"}, second["US"].Recommendations,
		"a different profile must not be served another caller's cached bullets")
}

func TestRuleBasedBullets(t *testing.T) {
	t.Run("derives bullets from structured data", func(t *testing.T) {
		insight := &model.MarketInsight{
			Market: "US",
			Size:   model.MarketSize{GrowthRate: 5.5},
			Competitors: []model.Competitor{
				{Name: "Acme", MarketShare: 20.0, Weaknesses: []string{"slow fulfilment"}},
			},
			EntryBarriers: []string{"licensing"},
			Tariffs: map[string]model.TariffLine{
				"luxury": {Category: "luxury", Rate: 9.0},
			},
		}

		b := ruleBasedBullets("US", insight, model.BusinessProfile{ExportExperience: "advanced"})

		require.NotEmpty(t, b.Opportunities)
		assert.Contains(t, b.Opportunities[0], "5.5%")
		assert.Contains(t, strings.Join(b.Opportunities, "\n"), "slow fulfilment")

		assert.Contains(t, strings.Join(b.Risks, "\n"), "licensing")
		assert.Contains(t, strings.Join(b.Risks, "\n"), "9.00%")

		joined := strings.Join(b.Recommendations, "\n")
		assert.Contains(t, joined, "Acme")
		assert.Contains(t, joined, "existing export channels")
	})

	t.Run("lists are never empty", func(t *testing.T) {
		b := ruleBasedBullets("ZZ", &model.MarketInsight{Market: "ZZ"}, model.BusinessProfile{})
		assert.NotEmpty(t, b.Opportunities)
		assert.NotEmpty(t, b.Risks)
		assert.NotEmpty(t, b.Recommendations)
	})
}
