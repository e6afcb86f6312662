// Package hs implements the HS classification engine: free-text product
// descriptions are mapped to ranked chapter/heading/subheading candidates,
// falling through live provider, LLM and deterministic tiers so no level is
// ever empty.
package hs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/seanmking/tradewizard-core/internal/cache"
	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/provider"
	"github.com/seanmking/tradewizard-core/internal/service"
)

// defaultMaxResults bounds how many candidates a provider is asked for when
// the caller does not say.
const defaultMaxResults = 5

// codeProvider is the slice of the HS provider client the engine uses.
type codeProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]provider.HSMatch, error)
	Children(ctx context.Context, parentCode string) ([]provider.HSMatch, error)
	Examples(ctx context.Context, code string) ([]provider.HSExample, error)
	Available() bool
}

// completionProvider is the slice of the LLM client used as the secondary
// classification tier.
type completionProvider interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error
	Available() bool
}

// Engine turns product descriptions into ranked HS code candidates.
type Engine struct {
	codes  codeProvider
	llm    completionProvider
	cache  *cache.Cache[model.Candidates]
	logger *slog.Logger

	// lastConfidence remembers the most recent live-provider top confidence;
	// fallback candidates inherit it (capped) so they rank plausibly without
	// ever reaching the auto-advance threshold.
	lastConfidence float64
	mu             sync.Mutex
}

// NewEngine creates a classification engine. Either provider may be nil or
// unconfigured; the deterministic tier covers the rest.
func NewEngine(codes codeProvider, llm completionProvider, c *cache.Cache[model.Candidates], logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		codes:  codes,
		llm:    llm,
		cache:  c,
		logger: logger,
	}
}

// Classify maps a description to ranked candidates. Candidates below the
// threshold are dropped and the list is truncated to MaxResults, descending
// confidence preserved. Input validation errors are the only errors returned;
// provider failures fall back deterministically.
func (e *Engine) Classify(ctx context.Context, description string, opts service.ClassifyOptions) (model.Candidates, error) {
	normalized := normalizeDescription(description)
	if normalized == "" {
		return nil, common.NewUserError("product description is required", common.ErrEmptyDescription)
	}
	if opts.ConfidenceThreshold < 0 || opts.ConfidenceThreshold > 1 {
		return nil, common.NewUserError("confidence threshold must be between 0 and 1", common.ErrInvalidConfig)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	if opts.UseCache && e.cache != nil {
		if cached, found := e.cache.Get(classifyCacheKey(normalized)); found {
			e.logger.Debug("classification cache hit", "description", normalized)
			return shapeResults(cached, opts.ConfidenceThreshold, opts.MaxResults), nil
		}
	}

	candidates, live := e.fetchRanked(ctx, normalized, maxResults)

	if live {
		if top := candidates.Top(); top != nil {
			e.setLastConfidence(top.Confidence)
		}
		if opts.UseCache && e.cache != nil {
			e.cache.Set(classifyCacheKey(normalized), candidates)
		}
	}

	e.logger.Info("product classified",
		"description", normalized,
		"candidates", len(candidates),
		"live", live)

	return shapeResults(candidates, opts.ConfidenceThreshold, opts.MaxResults), nil
}

// fetchRanked walks the data tiers: HS provider, then LLM, then the
// deterministic table. The bool reports whether a live tier served.
func (e *Engine) fetchRanked(ctx context.Context, description string, maxResults int) (model.Candidates, bool) {
	if e.codes != nil && e.codes.Available() {
		matches, err := e.codes.Search(ctx, description, maxResults)
		if err == nil {
			return matchesToCandidates(matches), true
		}
		common.LogFallback("hs", "search", err)
	}

	if e.llm != nil && e.llm.Available() {
		candidates, err := e.classifyWithLLM(ctx, description, maxResults)
		if err == nil {
			return candidates, true
		}
		common.LogFallback("llm", "classify", err)
	}

	return fallbackClassify(description, e.getLastConfidence()), false
}

// ChildOptions fetches the next-level candidates under a parent code: heading
// options for a chapter, subheading options for a heading.
func (e *Engine) ChildOptions(ctx context.Context, parentCode string, level model.HSLevel) (model.Candidates, error) {
	if level != model.LevelHeading && level != model.LevelSubheading {
		return nil, common.NewUserError(fmt.Sprintf("level %s has no parent-driven options", level), common.ErrInvalidCode)
	}
	wantParentDigits := level.Digits() - 2
	if len(parentCode) != wantParentDigits {
		return nil, common.NewUserError(
			fmt.Sprintf("parent code %q must be %d digits for %s options", parentCode, wantParentDigits, level),
			common.ErrInvalidCode)
	}
	if _, err := model.LevelForCode(parentCode); err != nil {
		return nil, common.NewUserError(err.Error(), common.ErrInvalidCode)
	}

	candidates, live := provider.Resolve(ctx, "hs", "children",
		func(ctx context.Context) (model.Candidates, error) {
			if e.codes == nil || !e.codes.Available() {
				return nil, provider.Unavailable("hs")
			}
			matches, err := e.codes.Children(ctx, parentCode)
			if err != nil {
				return nil, err
			}
			children := matchesToCandidates(matches)
			// Providers occasionally return stray codes from other branches;
			// only direct children of the parent are trusted.
			direct := make(model.Candidates, 0, len(children))
			for _, c := range children {
				if c.ChildOf(parentCode) {
					direct = append(direct, c)
				}
			}
			if len(direct) == 0 {
				return nil, fmt.Errorf("children of %q: %w", parentCode, provider.ErrEmptyResult)
			}
			return direct, nil
		},
		func(_ context.Context) model.Candidates {
			return fallbackChildren(parentCode, e.getLastConfidence())
		})

	if live {
		if top := candidates.Top(); top != nil {
			e.setLastConfidence(top.Confidence)
		}
	}

	candidates.Sort()
	return candidates, nil
}

// Examples returns illustrative products for a code. Examples only explain a
// code to the caller; the sole invariant is that example codes extend it.
func (e *Engine) Examples(ctx context.Context, code string) ([]model.ProductExample, error) {
	if _, err := model.LevelForCode(code); err != nil {
		return nil, common.NewUserError(err.Error(), common.ErrInvalidCode)
	}

	examples, _ := provider.Resolve(ctx, "hs", "examples",
		func(ctx context.Context) ([]model.ProductExample, error) {
			if e.codes == nil || !e.codes.Available() {
				return nil, provider.Unavailable("hs")
			}
			raw, err := e.codes.Examples(ctx, code)
			if err != nil {
				return nil, err
			}
			out := make([]model.ProductExample, 0, len(raw))
			for _, ex := range raw {
				if strings.HasPrefix(ex.Code, code) {
					out = append(out, model.ProductExample{
						Code:        ex.Code,
						Name:        ex.Name,
						Description: ex.Description,
					})
				}
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("examples for %q: %w", code, provider.ErrEmptyResult)
			}
			return out, nil
		},
		func(_ context.Context) []model.ProductExample {
			return fallbackExamples(code)
		})

	return examples, nil
}

// CodePath expands a code into its chapter/heading/subheading candidates,
// shortest prefix first.
func (e *Engine) CodePath(_ context.Context, code string) ([]model.ClassificationCandidate, error) {
	level, err := model.LevelForCode(code)
	if err != nil {
		return nil, common.NewUserError(err.Error(), common.ErrInvalidCode)
	}

	path := make([]model.ClassificationCandidate, 0, 3)
	for _, digits := range []int{2, 4, 6} {
		if digits > level.Digits() {
			break
		}
		prefix := code[:digits]
		source := model.SourceFallback
		if _, known := codeDescriptions[prefix]; known {
			source = model.SourceProvider
		}
		path = append(path, model.ClassificationCandidate{
			Code:        prefix,
			Description: describeCode(prefix),
			Confidence:  e.getLastConfidence(),
			Source:      source,
		})
	}

	return path, nil
}

// classifyWithLLM asks the chat-completion provider for a structured
// classification.
func (e *Engine) classifyWithLLM(ctx context.Context, description string, maxResults int) (model.Candidates, error) {
	var resp struct {
		Candidates []struct {
			HSCode      string  `json:"hsCode"`
			Description string  `json:"description"`
			Confidence  float64 `json:"confidence"`
		} `json:"candidates"`
	}

	if err := e.llm.CompleteJSON(ctx, classifySystemPrompt, buildClassifyPrompt(description, maxResults), &resp); err != nil {
		return nil, err
	}

	// LLM output goes through the same normalization as HS provider matches,
	// so an out-of-range confidence can never leak past the [0,1] invariant.
	matches := make([]provider.HSMatch, 0, len(resp.Candidates))
	for _, c := range resp.Candidates {
		matches = append(matches, provider.HSMatch{
			HSCode:      c.HSCode,
			Description: c.Description,
			Confidence:  c.Confidence,
		})
	}

	out := matchesToCandidates(matches)
	if len(out) == 0 {
		return nil, fmt.Errorf("llm classification: %w", provider.ErrEmptyResult)
	}

	return out, nil
}

func (e *Engine) getLastConfidence() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastConfidence
}

func (e *Engine) setLastConfidence(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastConfidence = v
}

// matchesToCandidates converts provider matches, normalizing confidence.
func matchesToCandidates(matches []provider.HSMatch) model.Candidates {
	out := make(model.Candidates, 0, len(matches))
	for _, m := range matches {
		code := strings.TrimSpace(m.HSCode)
		if _, err := model.LevelForCode(code); err != nil {
			continue
		}
		out = append(out, model.ClassificationCandidate{
			Code:        code,
			Description: m.Description,
			Confidence:  m.Normalized(),
			Source:      model.SourceProvider,
		})
	}
	out.Sort()
	return out
}

// shapeResults applies threshold filtering then truncation, preserving
// descending-confidence order.
func shapeResults(cs model.Candidates, threshold float64, maxResults int) model.Candidates {
	shaped := cs.AboveThreshold(threshold)
	if maxResults > 0 {
		shaped = shaped.TopN(maxResults)
	}
	return shaped
}

// normalizeDescription lowercases and collapses whitespace so cache keys are
// stable across caller formatting.
func normalizeDescription(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func classifyCacheKey(normalized string) string {
	return "classify:" + normalized
}

const classifySystemPrompt = "You are an expert in Harmonized System (HS) product classification. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text or markdown " +
	"formatting before or after the JSON."

// buildClassifyPrompt creates the structured classification prompt.
func buildClassifyPrompt(description string, maxResults int) string {
	return fmt.Sprintf(`Classify this product into Harmonized System (HS) codes.

Product description:
%s

Instructions:
1. Return up to %d candidate codes ranked by confidence.
2. Prefer 6-digit subheading codes; use 4-digit headings only when the product is too generic.
3. Confidence is a number between 0.0 and 1.0.

Respond with JSON in exactly this shape:
{"candidates":[{"hsCode":"851712","description":"Smartphones","confidence":0.95}]}`,
		description, maxResults)
}
