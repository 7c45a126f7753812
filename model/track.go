package model

import "time"

// SearchQuery is the input to both the search facade and the download facade.
type SearchQuery struct {
	Text                string `json:"text"`
	FetchArtwork        bool   `json:"fetchArtwork"`
	FilterByArtistTitle bool   `json:"filterByArtistTitle"`
	LowQuality          bool   `json:"lowQuality"`
}

// NewSearchQuery returns a query with the defaults the search endpoints use:
// artwork lookup on, artist/title filtering on.
func NewSearchQuery(text string) SearchQuery {
	return SearchQuery{Text: text, FetchArtwork: true, FilterByArtistTitle: true}
}

// TrackMetadata is one candidate hit produced by a source adapter. It is
// immutable once it has been scored; the URI is an opaque, adapter-specific
// locator prefixed by the resource name (e.g. "vk:czoxMjM0").
type TrackMetadata struct {
	ArtistsTitle ArtistsTitle `json:"artistsTitle"`
	DurationSec  int          `json:"durationSec"`
	BitRateKbps  int16        `json:"bitRateKbps"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	SizeMb       float64      `json:"sizeMb,omitempty"`
	ResourceName string       `json:"resourceName"`
	URI          string       `json:"uri"`
}

// Track is a materialized track: the persisted row plus the audio bytes the
// download adapter produced. Content never touches the relational store; the
// uploaded object is referenced through ObjectKey.
type Track struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"userId" gorm:"index"`
	CollectionID int64     `json:"collectionId"`
	Artists      string    `json:"artists" gorm:"size:512;index:idx_artists_title"`
	Title        string    `json:"title" gorm:"size:512;index:idx_artists_title"`
	DurationSec  int       `json:"durationSec"`
	BitRateKbps  int16     `json:"bitRateKbps"`
	SizeMb       float64   `json:"sizeMb"`
	ArtworkURL   string    `json:"artworkUrl"`
	ObjectKey    string    `json:"-" gorm:"size:512"`
	Genres       string    `json:"genres" gorm:"size:512"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Content []byte `json:"-" gorm:"-"`
}

// ArtistsTitle returns the pair form used for scoring and artwork lookup.
func (t *Track) ArtistsTitle() ArtistsTitle {
	return ArtistsTitle{Artists: t.Artists, Title: t.Title}
}
