package main

import (
	"log/slog"

	"github.com/spf13/viper"

	"github.com/seanmking/tradewizard-core/internal/cache"
	"github.com/seanmking/tradewizard-core/internal/config"
	"github.com/seanmking/tradewizard-core/internal/hs"
	"github.com/seanmking/tradewizard-core/internal/market"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
	"github.com/seanmking/tradewizard-core/internal/service"
	"github.com/seanmking/tradewizard-core/internal/verify"
)

// core bundles the wired services for one command invocation. Commands consume
// the services through their interfaces; the concrete engine is kept only for
// guided sessions, which drive it level by level.
type core struct {
	cfg       *config.Config
	hsClient  *provider.HSClient
	llmClient *provider.LLMClient
	vfyClient *provider.VerifyClient

	engine     *hs.Engine
	classifier service.Classifier
	insights   service.InsightProvider
	verifier   service.Verifier

	classifyCache *cache.Cache[model.Candidates]
	insightCache  *cache.Cache[model.MarketInsight]
}

// buildCore constructs the full service stack from viper configuration.
func buildCore() (*core, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	hsClient := provider.NewHSClient(cfg.HS)
	llmClient := provider.NewLLMClient(cfg.LLM)
	vfyClient := provider.NewVerifyClient(cfg.Verification)

	classifyCache := cache.New[model.Candidates](cfg.CacheTTL, cfg.CacheMaxEntries)
	insightCache := cache.New[model.MarketInsight](cfg.CacheTTL, cfg.CacheMaxEntries)

	logger := slog.Default()

	engine := hs.NewEngine(hsClient, llmClient, classifyCache, logger)

	return &core{
		cfg:           cfg,
		hsClient:      hsClient,
		llmClient:     llmClient,
		vfyClient:     vfyClient,
		classifyCache: classifyCache,
		insightCache:  insightCache,
		engine:        engine,
		classifier:    engine,
		insights:      market.NewAggregator(hsClient, llmClient, insightCache, cfg.Workers, logger),
		verifier: verify.NewVerifier(vfyClient, verify.Options{
			ForceSimulated: cfg.ForceSimulatedVerification,
			Workers:        cfg.Workers,
		}, logger),
	}, nil
}

// close releases provider and cache resources.
func (c *core) close() {
	c.hsClient.Close()
	c.llmClient.Close()
	c.vfyClient.Close()
	c.classifyCache.Close()
	c.insightCache.Close()
}
