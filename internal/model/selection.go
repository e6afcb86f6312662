package model

import (
	"fmt"
	"strings"
)

// SelectionStage tracks progress through one classification session.
type SelectionStage int

const (
	// StageUnstarted means no level has been selected yet.
	StageUnstarted SelectionStage = iota
	// StageChapterSelected means a 2-digit chapter is chosen.
	StageChapterSelected
	// StageHeadingSelected means a 4-digit heading is chosen.
	StageHeadingSelected
	// StageSubheadingSelected means a full 6-digit code is chosen.
	StageSubheadingSelected
	// StageComplete is terminal until Reset is called.
	StageComplete
)

// String implements fmt.Stringer.
func (s SelectionStage) String() string {
	switch s {
	case StageUnstarted:
		return "unstarted"
	case StageChapterSelected:
		return "chapter_selected"
	case StageHeadingSelected:
		return "heading_selected"
	case StageSubheadingSelected:
		return "subheading_selected"
	case StageComplete:
		return "complete"
	default:
		return fmt.Sprintf("SelectionStage(%d)", int(s))
	}
}

// HSSelection holds the chapter/heading/subheading chosen during one
// classification session. Selecting a new ancestor clears all descendants, so
// the prefix invariant holds after every operation: heading extends chapter,
// subheading extends heading.
type HSSelection struct {
	Chapter    *ClassificationCandidate
	Heading    *ClassificationCandidate
	Subheading *ClassificationCandidate
	stage      SelectionStage
}

// Stage returns the current session stage.
func (s *HSSelection) Stage() SelectionStage {
	return s.stage
}

// SelectChapter sets the 2-digit chapter and clears heading and subheading.
func (s *HSSelection) SelectChapter(c ClassificationCandidate) error {
	if s.stage == StageComplete {
		return fmt.Errorf("selection is complete; call Reset before selecting again")
	}
	if len(c.Code) != LevelChapter.Digits() {
		return fmt.Errorf("chapter code %q must be %d digits", c.Code, LevelChapter.Digits())
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid chapter candidate: %w", err)
	}
	s.Chapter = &c
	s.Heading = nil
	s.Subheading = nil
	s.stage = StageChapterSelected
	return nil
}

// SelectHeading sets the 4-digit heading and clears the subheading. The
// heading must extend the selected chapter.
func (s *HSSelection) SelectHeading(c ClassificationCandidate) error {
	if s.stage == StageComplete {
		return fmt.Errorf("selection is complete; call Reset before selecting again")
	}
	if s.Chapter == nil {
		return fmt.Errorf("cannot select heading before chapter")
	}
	if len(c.Code) != LevelHeading.Digits() {
		return fmt.Errorf("heading code %q must be %d digits", c.Code, LevelHeading.Digits())
	}
	if !strings.HasPrefix(c.Code, s.Chapter.Code) {
		return fmt.Errorf("heading %q does not belong to chapter %q", c.Code, s.Chapter.Code)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid heading candidate: %w", err)
	}
	s.Heading = &c
	s.Subheading = nil
	s.stage = StageHeadingSelected
	return nil
}

// SelectSubheading sets the 6-digit subheading. It must extend the selected
// heading.
func (s *HSSelection) SelectSubheading(c ClassificationCandidate) error {
	if s.stage == StageComplete {
		return fmt.Errorf("selection is complete; call Reset before selecting again")
	}
	if s.Heading == nil {
		return fmt.Errorf("cannot select subheading before heading")
	}
	if len(c.Code) != LevelSubheading.Digits() {
		return fmt.Errorf("subheading code %q must be %d digits", c.Code, LevelSubheading.Digits())
	}
	if !strings.HasPrefix(c.Code, s.Heading.Code) {
		return fmt.Errorf("subheading %q does not belong to heading %q", c.Code, s.Heading.Code)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid subheading candidate: %w", err)
	}
	s.Subheading = &c
	s.stage = StageSubheadingSelected
	return nil
}

// Complete marks the selection final. Only a fully selected path can be
// completed; afterwards every selection call fails until Reset.
func (s *HSSelection) Complete() error {
	if s.stage != StageSubheadingSelected {
		return fmt.Errorf("cannot complete selection in stage %s", s.stage)
	}
	s.stage = StageComplete
	return nil
}

// Reset returns the session to its initial state.
func (s *HSSelection) Reset() {
	s.Chapter = nil
	s.Heading = nil
	s.Subheading = nil
	s.stage = StageUnstarted
}

// Code returns the most specific selected code, or "" when unstarted.
func (s *HSSelection) Code() string {
	switch {
	case s.Subheading != nil:
		return s.Subheading.Code
	case s.Heading != nil:
		return s.Heading.Code
	case s.Chapter != nil:
		return s.Chapter.Code
	default:
		return ""
	}
}

// Path returns the selected candidates from chapter down, in order.
func (s *HSSelection) Path() []ClassificationCandidate {
	var path []ClassificationCandidate
	if s.Chapter != nil {
		path = append(path, *s.Chapter)
	}
	if s.Heading != nil {
		path = append(path, *s.Heading)
	}
	if s.Subheading != nil {
		path = append(path, *s.Subheading)
	}
	return path
}

// Validate checks the prefix invariant across all non-nil levels.
func (s *HSSelection) Validate() error {
	if s.Heading != nil {
		if s.Chapter == nil {
			return fmt.Errorf("heading set without chapter")
		}
		if !strings.HasPrefix(s.Heading.Code, s.Chapter.Code) {
			return fmt.Errorf("heading %q does not extend chapter %q", s.Heading.Code, s.Chapter.Code)
		}
	}
	if s.Subheading != nil {
		if s.Heading == nil {
			return fmt.Errorf("subheading set without heading")
		}
		if !strings.HasPrefix(s.Subheading.Code, s.Heading.Code) {
			return fmt.Errorf("subheading %q does not extend heading %q", s.Subheading.Code, s.Heading.Code)
		}
	}
	return nil
}
