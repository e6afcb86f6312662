// Package model defines the core domain types for trade intelligence
// aggregation: HS code candidates and selections, market insights, and
// verification results.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// CandidateSource identifies where a classification candidate came from.
type CandidateSource string

const (
	// SourceProvider marks candidates returned by a live provider.
	SourceProvider CandidateSource = "provider"
	// SourceFallback marks candidates synthesized from the deterministic
	// fallback tier.
	SourceFallback CandidateSource = "fallback"
)

// HSLevel identifies a level in the HS code hierarchy.
type HSLevel int

const (
	// LevelChapter is the 2-digit HS chapter level.
	LevelChapter HSLevel = iota + 1
	// LevelHeading is the 4-digit HS heading level.
	LevelHeading
	// LevelSubheading is the 6-digit HS subheading level.
	LevelSubheading
)

// Digits returns the code length for the level.
func (l HSLevel) Digits() int {
	switch l {
	case LevelChapter:
		return 2
	case LevelHeading:
		return 4
	case LevelSubheading:
		return 6
	default:
		return 0
	}
}

// String implements fmt.Stringer.
func (l HSLevel) String() string {
	switch l {
	case LevelChapter:
		return "chapter"
	case LevelHeading:
		return "heading"
	case LevelSubheading:
		return "subheading"
	default:
		return fmt.Sprintf("HSLevel(%d)", int(l))
	}
}

// LevelForCode returns the hierarchy level matching the code's digit count.
func LevelForCode(code string) (HSLevel, error) {
	switch len(code) {
	case 2:
		return LevelChapter, nil
	case 4:
		return LevelHeading, nil
	case 6:
		return LevelSubheading, nil
	default:
		return 0, fmt.Errorf("HS code %q must be 2, 4 or 6 digits", code)
	}
}

// ClassificationCandidate is one ranked HS code match for a product
// description. Candidates are immutable once created.
type ClassificationCandidate struct {
	Code        string
	Description string
	Source      CandidateSource
	Confidence  float64
}

// Validate ensures the candidate carries a well-formed code and confidence.
func (c *ClassificationCandidate) Validate() error {
	if _, err := LevelForCode(c.Code); err != nil {
		return err
	}
	for _, r := range c.Code {
		if r < '0' || r > '9' {
			return fmt.Errorf("HS code %q contains non-digit character", c.Code)
		}
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", c.Confidence)
	}
	if c.Source != SourceProvider && c.Source != SourceFallback {
		return fmt.Errorf("unknown candidate source %q", c.Source)
	}
	return nil
}

// Level returns the hierarchy level of the candidate's code.
func (c *ClassificationCandidate) Level() (HSLevel, error) {
	return LevelForCode(c.Code)
}

// ChildOf reports whether the candidate's code extends the given parent code
// by exactly one hierarchy level.
func (c *ClassificationCandidate) ChildOf(parentCode string) bool {
	return len(c.Code) == len(parentCode)+2 && strings.HasPrefix(c.Code, parentCode)
}

// Candidates is a ranked slice of classification candidates with sorting and
// filtering helpers.
type Candidates []ClassificationCandidate

// Sort orders candidates by confidence descending, breaking ties by code for
// a stable presentation order.
func (cs Candidates) Sort() {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Confidence != cs[j].Confidence {
			return cs[i].Confidence > cs[j].Confidence
		}
		return cs[i].Code < cs[j].Code
	})
}

// Top returns the highest-confidence candidate, or nil if empty.
func (cs Candidates) Top() *ClassificationCandidate {
	if len(cs) == 0 {
		return nil
	}
	cs.Sort()
	return &cs[0]
}

// TopN returns the N highest-confidence candidates, order preserved.
func (cs Candidates) TopN(n int) Candidates {
	if n <= 0 {
		return Candidates{}
	}
	cs.Sort()
	if n > len(cs) {
		n = len(cs)
	}
	out := make(Candidates, n)
	copy(out, cs[:n])
	return out
}

// AboveThreshold returns candidates with confidence >= threshold, order
// preserved.
func (cs Candidates) AboveThreshold(threshold float64) Candidates {
	cs.Sort()
	var out Candidates
	for _, c := range cs {
		if c.Confidence >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks every candidate and rejects duplicate codes.
func (cs Candidates) Validate() error {
	seen := make(map[string]bool, len(cs))
	for i := range cs {
		if err := cs[i].Validate(); err != nil {
			return fmt.Errorf("invalid candidate at index %d: %w", i, err)
		}
		if seen[cs[i].Code] {
			return fmt.Errorf("duplicate code %q in candidates", cs[i].Code)
		}
		seen[cs[i].Code] = true
	}
	return nil
}

// ProductExample is an illustrative product for an HS code, used for
// explanatory display only.
type ProductExample struct {
	Code        string
	Name        string
	Description string
}
