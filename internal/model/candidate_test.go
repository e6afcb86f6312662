package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationCandidateValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate ClassificationCandidate
		wantErr   bool
	}{
		{
			name:      "valid subheading",
			candidate: ClassificationCandidate{Code: "851712", Description: "Smartphones", Confidence: 0.95, Source: SourceProvider},
		},
		{
			name:      "valid chapter",
			candidate: ClassificationCandidate{Code: "85", Description: "Electrical machinery", Confidence: 0.5, Source: SourceFallback},
		},
		{
			name:      "odd length code",
			candidate: ClassificationCandidate{Code: "851", Confidence: 0.5, Source: SourceProvider},
			wantErr:   true,
		},
		{
			name:      "non-digit code",
			candidate: ClassificationCandidate{Code: "85171a", Confidence: 0.5, Source: SourceProvider},
			wantErr:   true,
		},
		{
			name:      "confidence above one",
			candidate: ClassificationCandidate{Code: "851712", Confidence: 1.5, Source: SourceProvider},
			wantErr:   true,
		},
		{
			name:      "unknown source",
			candidate: ClassificationCandidate{Code: "851712", Confidence: 0.5, Source: "guess"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.candidate.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidateChildOf(t *testing.T) {
	heading := ClassificationCandidate{Code: "8517"}
	assert.True(t, heading.ChildOf("85"))
	assert.False(t, heading.ChildOf("84"))

	subheading := ClassificationCandidate{Code: "851712"}
	assert.True(t, subheading.ChildOf("8517"))
	assert.False(t, subheading.ChildOf("85"), "must extend by exactly one level")
}

func TestCandidatesRanking(t *testing.T) {
	ranked := Candidates{
		{Code: "390110", Confidence: 0.40, Source: SourceProvider},
		{Code: "851712", Confidence: 0.90, Source: SourceProvider},
		{Code: "847130", Confidence: 0.70, Source: SourceProvider},
	}

	t.Run("sort is descending by confidence", func(t *testing.T) {
		ranked.Sort()
		assert.Equal(t, "851712", ranked[0].Code)
		assert.Equal(t, "847130", ranked[1].Code)
		assert.Equal(t, "390110", ranked[2].Code)
	})

	t.Run("threshold filtering preserves order", func(t *testing.T) {
		got := ranked.AboveThreshold(0.6)
		require.Len(t, got, 2)
		assert.Equal(t, "851712", got[0].Code)
		assert.Equal(t, "847130", got[1].Code)
	})

	t.Run("threshold of zero keeps everything", func(t *testing.T) {
		assert.Len(t, ranked.AboveThreshold(0), 3)
	})

	t.Run("truncation returns exactly top N", func(t *testing.T) {
		five := Candidates{
			{Code: "010121", Confidence: 0.1, Source: SourceProvider},
			{Code: "020110", Confidence: 0.9, Source: SourceProvider},
			{Code: "030211", Confidence: 0.5, Source: SourceProvider},
			{Code: "040110", Confidence: 0.8, Source: SourceProvider},
			{Code: "050100", Confidence: 0.3, Source: SourceProvider},
		}
		got := five.TopN(3)
		require.Len(t, got, 3)
		assert.Equal(t, "020110", got[0].Code)
		assert.Equal(t, "040110", got[1].Code)
		assert.Equal(t, "030211", got[2].Code)
	})

	t.Run("ties break by code for stable order", func(t *testing.T) {
		tied := Candidates{
			{Code: "0902", Confidence: 0.5, Source: SourceProvider},
			{Code: "0901", Confidence: 0.5, Source: SourceProvider},
		}
		tied.Sort()
		assert.Equal(t, "0901", tied[0].Code)
	})
}

func TestCandidatesValidate(t *testing.T) {
	dup := Candidates{
		{Code: "851712", Confidence: 0.9, Source: SourceProvider},
		{Code: "851712", Confidence: 0.8, Source: SourceProvider},
	}
	assert.Error(t, dup.Validate())

	ok := Candidates{
		{Code: "851712", Confidence: 0.9, Source: SourceProvider},
		{Code: "851718", Confidence: 0.8, Source: SourceFallback},
	}
	assert.NoError(t, ok.Validate())
}

func TestLevelForCode(t *testing.T) {
	level, err := LevelForCode("85")
	require.NoError(t, err)
	assert.Equal(t, LevelChapter, level)

	level, err = LevelForCode("8517")
	require.NoError(t, err)
	assert.Equal(t, LevelHeading, level)

	level, err = LevelForCode("851712")
	require.NoError(t, err)
	assert.Equal(t, LevelSubheading, level)

	_, err = LevelForCode("8")
	assert.Error(t, err)
	_, err = LevelForCode("85171234")
	assert.Error(t, err)
}
