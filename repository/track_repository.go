package repository

import (
	"errors"
	"fmt"

	"songhouse/model"

	"gorm.io/gorm"
)

// TrackRepository defines persistence for materialized tracks.
type TrackRepository interface {
	Create(track *model.Track) error
	FindByArtistsTitle(artists, title string) (*model.Track, error)
	FindAllByUser(userID int64) ([]model.Track, error)
}

type gormTrackRepository struct {
	db *gorm.DB
}

// NewTrackRepository creates the GORM-backed track repository.
func NewTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

func (r *gormTrackRepository) Create(track *model.Track) error {
	if err := r.db.Create(track).Error; err != nil {
		return fmt.Errorf("failed to create track %q: %w", track.Title, err)
	}
	return nil
}

func (r *gormTrackRepository) FindByArtistsTitle(artists, title string) (*model.Track, error) {
	var track model.Track
	err := r.db.Where("artists = ? AND title = ?", artists, title).First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find track %q - %q: %w", artists, title, err)
	}
	return &track, nil
}

func (r *gormTrackRepository) FindAllByUser(userID int64) ([]model.Track, error) {
	var tracks []model.Track
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks for user %d: %w", userID, err)
	}
	return tracks, nil
}
