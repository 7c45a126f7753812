package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArtistsTitle(t *testing.T) {
	at := ParseArtistsTitle("Sync 24 & Morphology - Foreign Fruit")
	assert.Equal(t, "Sync 24 & Morphology", at.Artists)
	assert.Equal(t, "Foreign Fruit", at.Title)
}

func TestParseArtistsTitleSplitsOnFirstDelimiterOnly(t *testing.T) {
	at := ParseArtistsTitle("Orbital - Halcyon - On and On")
	assert.Equal(t, "Orbital", at.Artists)
	assert.Equal(t, "Halcyon - On and On", at.Title)
}

func TestParseArtistsTitleWithoutDelimiter(t *testing.T) {
	at := ParseArtistsTitle("Foreign Fruit")
	assert.Equal(t, "", at.Artists)
	assert.Equal(t, "Foreign Fruit", at.Title)
	assert.False(t, at.IsEmpty())
}

func TestParseArtistsTitleEmpty(t *testing.T) {
	at := ParseArtistsTitle("   ")
	assert.True(t, at.IsEmpty())
}

func TestArtistsTitleString(t *testing.T) {
	assert.Equal(t, "Orbital - Halcyon", ArtistsTitle{Artists: "Orbital", Title: "Halcyon"}.String())
	assert.Equal(t, "Halcyon", ArtistsTitle{Title: "Halcyon"}.String())
}

func TestGenreListDropsBlanks(t *testing.T) {
	r := SearchReprocess{Genres: "electro, , breaks"}
	assert.Equal(t, []string{"electro", "breaks"}, r.GenreList())

	r.SetGenres(nil)
	assert.Nil(t, r.GenreList())
}
