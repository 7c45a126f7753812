package match

import (
	"testing"

	"songhouse/model"

	"github.com/stretchr/testify/assert"
)

func TestScoreSelfSimilarityIsMaximal(t *testing.T) {
	for _, s := range []string{"Foreign Fruit", "Sync 24 & Morphology", "a"} {
		assert.Equal(t, MaxScore, Score(s, s), s)
	}
}

func TestScoreIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"Foreign Fruit", "Foreign Fruits"},
		{"Sync 24", "Morphology"},
		{"Halcyon", "Halcyon On and On"},
	}
	for _, p := range pairs {
		assert.Equal(t, Score(p[0], p[1]), Score(p[1], p[0]))
	}
}

func TestScoreEmptyInputIsWorst(t *testing.T) {
	assert.Equal(t, 0, Score("", "Foreign Fruit"))
	assert.Equal(t, 0, Score("Foreign Fruit", ""))
	assert.Equal(t, 0, Score("  ", "  "))
}

func TestScoreIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, MaxScore, Score("Foreign Fruit", "foreign fruit"))
}

func TestScoreCloseBeatsDistant(t *testing.T) {
	near := Score("Foreign Fruit", "Foreign Fruits")
	distant := Score("Foreign Fruit", "Electrix Podcast 003")
	assert.Greater(t, near, distant)
}

func TestScoreArtistsTitleWeightsTitleHigher(t *testing.T) {
	expected := model.ArtistsTitle{Artists: "Sync 24", Title: "Foreign Fruit"}

	titleMatch := ScoreArtistsTitle(expected, model.ArtistsTitle{Artists: "Somebody Else", Title: "Foreign Fruit"})
	artistMatch := ScoreArtistsTitle(expected, model.ArtistsTitle{Artists: "Sync 24", Title: "Something Else"})
	assert.Greater(t, titleMatch, artistMatch)
}

func TestScoreArtistsTitleBounds(t *testing.T) {
	expected := model.ArtistsTitle{Artists: "Sync 24", Title: "Foreign Fruit"}
	assert.Equal(t, MaxScore, ScoreArtistsTitle(expected, expected))
	assert.Equal(t, 0, ScoreArtistsTitle(expected, model.ArtistsTitle{}))
}
