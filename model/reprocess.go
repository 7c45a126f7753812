package model

import (
	"strings"
	"time"
)

// ReprocessStatus is the lifecycle state of a persisted search request.
type ReprocessStatus string

const (
	StatusNotFound   ReprocessStatus = "NOT_FOUND"
	StatusFound      ReprocessStatus = "FOUND"
	StatusDownloaded ReprocessStatus = "DOWNLOADED"
)

// SearchReprocess is a user's search request tracked through retries until it
// is found and downloaded. At most one non-downloaded row exists per
// (userId, searchQuery) pair.
type SearchReprocess struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	SearchQuery  string          `json:"searchQuery" gorm:"size:512;not null;uniqueIndex:idx_user_query,priority:2"`
	UserID       int64           `json:"userId" gorm:"not null;uniqueIndex:idx_user_query,priority:1;index:idx_user_status,priority:1"`
	CollectionID int64           `json:"collectionId"`
	Genres       string          `json:"genres" gorm:"size:512"`
	Retries      int             `json:"retries"`
	Status       ReprocessStatus `json:"status" gorm:"size:16;default:NOT_FOUND;index:idx_user_status,priority:2"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	FoundAt      *time.Time      `json:"foundAt,omitempty"`
	DownloadedAt *time.Time      `json:"downloadedAt,omitempty"`
}

// GenreList splits the comma-joined genres column, dropping blanks.
func (r *SearchReprocess) GenreList() []string {
	if r.Genres == "" {
		return nil
	}
	var genres []string
	for _, g := range strings.Split(r.Genres, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

// SetGenres stores the genre set as a comma-joined column value.
func (r *SearchReprocess) SetGenres(genres []string) {
	r.Genres = strings.Join(genres, ",")
}

// ReprocessResult is the cache value for a found-but-not-yet-downloaded
// request, keyed by (userId, requestId). It exists only while the backing
// request is FOUND.
type ReprocessResult struct {
	OwnerID       int64         `json:"ownerId"`
	CollectionID  int64         `json:"collectionId"`
	Genres        []string      `json:"genres,omitempty"`
	TrackMetadata TrackMetadata `json:"trackMetadata"`
}
