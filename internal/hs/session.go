package hs

import (
	"context"
	"fmt"

	"github.com/seanmking/tradewizard-core/internal/common"
	"github.com/seanmking/tradewizard-core/internal/model"
	"github.com/seanmking/tradewizard-core/internal/service"
)

// autoAdvanceThreshold is the confidence at or above which a live-provider
// candidate may be selected without explicit caller confirmation.
const autoAdvanceThreshold = 0.85

// SessionOptions configures one guided classification session.
type SessionOptions struct {
	// DisableAutoAdvance forces explicit confirmation at every level.
	DisableAutoAdvance bool
	// Classify options are reused for the initial free-text step.
	Classify service.ClassifyOptions
}

// StepResult is what one guided step hands back to the caller: the options
// for the current level, any selections made by auto-advance, and the stage
// the session landed in.
type StepResult struct {
	Candidates   model.Candidates
	AutoSelected []model.ClassificationCandidate
	Stage        model.SelectionStage
}

// Session drives one guided classification: chapter, then heading, then
// subheading, with the hierarchy invariant enforced by the underlying
// selection at every step.
type Session struct {
	engine      *Engine
	options     model.Candidates
	selection   model.HSSelection
	opts        SessionOptions
	description string
}

// NewSession creates a session over the engine.
func NewSession(engine *Engine, opts SessionOptions) *Session {
	return &Session{
		engine: engine,
		opts:   opts,
	}
}

// Selection exposes the current selection state.
func (s *Session) Selection() *model.HSSelection {
	return &s.selection
}

// Options returns the candidates offered at the current level.
func (s *Session) Options() model.Candidates {
	return s.options
}

// Start classifies the description and offers chapter-level options. With
// auto-advance enabled, a dominant candidate descends as far as confidence
// carries it.
func (s *Session) Start(ctx context.Context, description string) (StepResult, error) {
	if s.selection.Stage() != model.StageUnstarted {
		return StepResult{}, fmt.Errorf("session already started; call Reset first")
	}

	candidates, err := s.engine.Classify(ctx, description, s.opts.Classify)
	if err != nil {
		return StepResult{}, err
	}
	s.description = description

	s.options = collapseToChapters(candidates)
	return s.advance(ctx)
}

// Select picks the option with the given code at the current level and
// fetches the next level's options.
func (s *Session) Select(ctx context.Context, code string) (StepResult, error) {
	chosen := s.findOption(code)
	if chosen == nil {
		return StepResult{}, common.NewUserError(
			fmt.Sprintf("code %q is not among the current options", code), common.ErrInvalidCode)
	}

	if err := s.apply(*chosen); err != nil {
		return StepResult{}, err
	}

	if err := s.loadNextOptions(ctx); err != nil {
		return StepResult{}, err
	}

	return s.advance(ctx)
}

// Complete finalizes the session. The selection becomes terminal until Reset.
func (s *Session) Complete() (model.HSSelection, error) {
	if err := s.selection.Complete(); err != nil {
		return model.HSSelection{}, err
	}
	return s.selection, nil
}

// Reset returns the session to Unstarted.
func (s *Session) Reset() {
	s.selection.Reset()
	s.options = nil
	s.description = ""
}

// advance applies the auto-advance heuristic repeatedly: while the top
// current option is a live-provider candidate at or above the threshold, it
// is selected and the next level is fetched.
func (s *Session) advance(ctx context.Context) (StepResult, error) {
	var auto []model.ClassificationCandidate

	for !s.opts.DisableAutoAdvance && s.selection.Stage() != model.StageSubheadingSelected {
		top := s.options.Top()
		if top == nil || top.Source != model.SourceProvider || top.Confidence < autoAdvanceThreshold {
			break
		}

		chosen := *top
		if err := s.apply(chosen); err != nil {
			return StepResult{}, err
		}
		auto = append(auto, chosen)

		if err := s.loadNextOptions(ctx); err != nil {
			return StepResult{}, err
		}
	}

	return StepResult{
		Candidates:   s.options,
		AutoSelected: auto,
		Stage:        s.selection.Stage(),
	}, nil
}

// apply routes a candidate to the right selection level for the current
// stage. Re-selecting an earlier level resets descendants via the selection's
// own rules.
func (s *Session) apply(c model.ClassificationCandidate) error {
	switch len(c.Code) {
	case model.LevelChapter.Digits():
		return s.selection.SelectChapter(c)
	case model.LevelHeading.Digits():
		return s.selection.SelectHeading(c)
	case model.LevelSubheading.Digits():
		return s.selection.SelectSubheading(c)
	default:
		return fmt.Errorf("candidate code %q has no selectable level", c.Code)
	}
}

// loadNextOptions fetches the options for the level below the current
// selection, or clears them when the path is complete.
func (s *Session) loadNextOptions(ctx context.Context) error {
	switch s.selection.Stage() {
	case model.StageChapterSelected:
		opts, err := s.engine.ChildOptions(ctx, s.selection.Chapter.Code, model.LevelHeading)
		if err != nil {
			return err
		}
		s.options = opts
	case model.StageHeadingSelected:
		opts, err := s.engine.ChildOptions(ctx, s.selection.Heading.Code, model.LevelSubheading)
		if err != nil {
			return err
		}
		s.options = opts
	default:
		s.options = nil
	}
	return nil
}

func (s *Session) findOption(code string) *model.ClassificationCandidate {
	for i := range s.options {
		if s.options[i].Code == code {
			return &s.options[i]
		}
	}
	return nil
}

// collapseToChapters folds mixed-level candidates down to distinct 2-digit
// chapters, keeping each chapter's best confidence and source.
func collapseToChapters(cs model.Candidates) model.Candidates {
	best := make(map[string]model.ClassificationCandidate)
	for _, c := range cs {
		chapter := c.Code[:2]
		cur, seen := best[chapter]
		if !seen || c.Confidence > cur.Confidence {
			best[chapter] = model.ClassificationCandidate{
				Code:        chapter,
				Description: describeCode(chapter),
				Confidence:  c.Confidence,
				Source:      c.Source,
			}
		}
	}

	out := make(model.Candidates, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	out.Sort()
	return out
}
