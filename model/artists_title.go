package model

import "strings"

// ArtistsTitleDelimiter separates the artists part from the title part in a
// free-text query like "Sync 24 & Morphology - Foreign Fruit".
const ArtistsTitleDelimiter = " - "

// ArtistsTitle is the canonical (artists, title) pair a query resolves to.
// Both fields may be empty but are never semantically "null".
type ArtistsTitle struct {
	Artists string `json:"artists"`
	Title   string `json:"title"`
}

// ParseArtistsTitle splits free text on the first " - " occurrence. Text
// without the delimiter is kept entirely on the title side, since the title
// carries most of the matching weight.
func ParseArtistsTitle(text string) ArtistsTitle {
	parts := strings.SplitN(text, ArtistsTitleDelimiter, 2)
	if len(parts) < 2 {
		return ArtistsTitle{Title: strings.TrimSpace(text)}
	}
	return ArtistsTitle{
		Artists: strings.TrimSpace(parts[0]),
		Title:   strings.TrimSpace(parts[1]),
	}
}

// IsEmpty reports whether neither part carries any text.
func (at ArtistsTitle) IsEmpty() bool {
	return at.Artists == "" && at.Title == ""
}

func (at ArtistsTitle) String() string {
	if at.Artists == "" {
		return at.Title
	}
	return at.Artists + ArtistsTitleDelimiter + at.Title
}
