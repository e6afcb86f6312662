package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chapter(code string) ClassificationCandidate {
	return ClassificationCandidate{Code: code, Description: "chapter " + code, Confidence: 0.9, Source: SourceProvider}
}

func heading(code string) ClassificationCandidate {
	return ClassificationCandidate{Code: code, Description: "heading " + code, Confidence: 0.9, Source: SourceProvider}
}

func subheading(code string) ClassificationCandidate {
	return ClassificationCandidate{Code: code, Description: "subheading " + code, Confidence: 0.9, Source: SourceProvider}
}

func TestHSSelectionHappyPath(t *testing.T) {
	var sel HSSelection
	assert.Equal(t, StageUnstarted, sel.Stage())
	assert.Empty(t, sel.Code())

	require.NoError(t, sel.SelectChapter(chapter("85")))
	assert.Equal(t, StageChapterSelected, sel.Stage())
	assert.Equal(t, "85", sel.Code())

	require.NoError(t, sel.SelectHeading(heading("8517")))
	assert.Equal(t, StageHeadingSelected, sel.Stage())

	require.NoError(t, sel.SelectSubheading(subheading("851712")))
	assert.Equal(t, StageSubheadingSelected, sel.Stage())
	assert.Equal(t, "851712", sel.Code())

	require.NoError(t, sel.Complete())
	assert.Equal(t, StageComplete, sel.Stage())
	assert.NoError(t, sel.Validate())

	path := sel.Path()
	require.Len(t, path, 3)
	assert.Equal(t, []string{"85", "8517", "851712"},
		[]string{path[0].Code, path[1].Code, path[2].Code})
}

func TestHSSelectionOrdering(t *testing.T) {
	t.Run("heading before chapter fails", func(t *testing.T) {
		var sel HSSelection
		assert.Error(t, sel.SelectHeading(heading("8517")))
	})

	t.Run("subheading before heading fails", func(t *testing.T) {
		var sel HSSelection
		require.NoError(t, sel.SelectChapter(chapter("85")))
		assert.Error(t, sel.SelectSubheading(subheading("851712")))
	})

	t.Run("heading must extend chapter", func(t *testing.T) {
		var sel HSSelection
		require.NoError(t, sel.SelectChapter(chapter("84")))
		assert.Error(t, sel.SelectHeading(heading("8517")))
	})

	t.Run("subheading must extend heading", func(t *testing.T) {
		var sel HSSelection
		require.NoError(t, sel.SelectChapter(chapter("85")))
		require.NoError(t, sel.SelectHeading(heading("8517")))
		assert.Error(t, sel.SelectSubheading(subheading("851812")))
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		var sel HSSelection
		assert.Error(t, sel.SelectChapter(heading("8517")))
	})
}

func TestHSSelectionReselectingAncestorClearsDescendants(t *testing.T) {
	var sel HSSelection
	require.NoError(t, sel.SelectChapter(chapter("85")))
	require.NoError(t, sel.SelectHeading(heading("8517")))
	require.NoError(t, sel.SelectSubheading(subheading("851712")))

	require.NoError(t, sel.SelectChapter(chapter("84")))
	assert.Nil(t, sel.Heading)
	assert.Nil(t, sel.Subheading)
	assert.Equal(t, StageChapterSelected, sel.Stage())
	assert.NoError(t, sel.Validate())

	require.NoError(t, sel.SelectHeading(heading("8471")))
	require.NoError(t, sel.SelectSubheading(subheading("847130")))
	require.NoError(t, sel.SelectHeading(heading("8473")))
	assert.Nil(t, sel.Subheading)
	assert.Equal(t, "8473", sel.Code())
	assert.NoError(t, sel.Validate())
}

func TestHSSelectionComplete(t *testing.T) {
	t.Run("only a full path can complete", func(t *testing.T) {
		var sel HSSelection
		assert.Error(t, sel.Complete())

		require.NoError(t, sel.SelectChapter(chapter("85")))
		assert.Error(t, sel.Complete())

		require.NoError(t, sel.SelectHeading(heading("8517")))
		assert.Error(t, sel.Complete())

		require.NoError(t, sel.SelectSubheading(subheading("851712")))
		assert.NoError(t, sel.Complete())
	})

	t.Run("complete is terminal until reset", func(t *testing.T) {
		var sel HSSelection
		require.NoError(t, sel.SelectChapter(chapter("85")))
		require.NoError(t, sel.SelectHeading(heading("8517")))
		require.NoError(t, sel.SelectSubheading(subheading("851712")))
		require.NoError(t, sel.Complete())

		assert.Error(t, sel.SelectChapter(chapter("84")))
		assert.Error(t, sel.SelectSubheading(subheading("851718")))

		sel.Reset()
		assert.Equal(t, StageUnstarted, sel.Stage())
		assert.Nil(t, sel.Chapter)
		assert.Empty(t, sel.Code())
		assert.NoError(t, sel.SelectChapter(chapter("84")))
	})
}

func TestValidateMarketCode(t *testing.T) {
	assert.NoError(t, ValidateMarketCode("US"))
	assert.NoError(t, ValidateMarketCode("GB"))
	assert.Error(t, ValidateMarketCode("usa"))
	assert.Error(t, ValidateMarketCode("U"))
	assert.Error(t, ValidateMarketCode("U1"))
	assert.Error(t, ValidateMarketCode(""))
}

func TestDataTypeValidate(t *testing.T) {
	assert.NoError(t, DataTypeCompliance.Validate())
	assert.NoError(t, DataTypeMarket.Validate())
	assert.NoError(t, DataTypeProduct.Validate())
	assert.Error(t, DataType("financial").Validate())
}
