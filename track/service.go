// Package track persists tracks materialized by the download facade: a
// database row plus the audio bytes uploaded to object storage.
package track

import (
	"context"
	"fmt"
	"strings"
	"time"

	"songhouse/logger"
	"songhouse/model"
	"songhouse/repository"
	"songhouse/search"
)

// AudioStore uploads track audio bytes. Implemented by storage.ObjectStore.
type AudioStore interface {
	PutTrack(ctx context.Context, key string, audio []byte) error
}

// Service wires the download facade to persistence.
type Service struct {
	repo      repository.TrackRepository
	store     AudioStore
	downloads *search.DownloadFacade
}

func NewService(repo repository.TrackRepository, store AudioStore, downloads *search.DownloadFacade) *Service {
	return &Service{repo: repo, store: store, downloads: downloads}
}

// SearchAndDownload materializes a track for a raw query. An existing row for
// the parsed (artists, title) is returned without searching. A nil track with
// nil error means nothing could be downloaded.
func (s *Service) SearchAndDownload(ctx context.Context, queryText string, collectionID int64, genres []string, userID int64) (*model.Track, error) {
	expected := model.ParseArtistsTitle(queryText)

	existing, err := s.repo.FindByArtistsTitle(expected.Artists, expected.Title)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug("track already in library, skipping search",
			logger.String("query", queryText))
		return existing, nil
	}

	downloaded := s.downloads.Download(ctx, model.NewSearchQuery(queryText))
	if downloaded == nil {
		return nil, nil
	}
	if err := s.save(ctx, downloaded, collectionID, genres, userID); err != nil {
		return nil, err
	}
	return downloaded, nil
}

// Tracks lists the user's persisted tracks.
func (s *Service) Tracks(ctx context.Context, userID int64) ([]model.Track, error) {
	return s.repo.FindAllByUser(userID)
}

// Download materializes a cached reprocess result. Implements
// reprocess.Downloader.
func (s *Service) Download(ctx context.Context, result model.ReprocessResult) (*model.Track, error) {
	downloaded := s.downloads.DownloadTrack(ctx, result.TrackMetadata)
	if downloaded == nil {
		return nil, nil
	}
	if err := s.save(ctx, downloaded, result.CollectionID, result.Genres, result.OwnerID); err != nil {
		return nil, err
	}
	return downloaded, nil
}

func (s *Service) save(ctx context.Context, t *model.Track, collectionID int64, genres []string, userID int64) error {
	t.UserID = userID
	t.CollectionID = collectionID
	t.Genres = strings.Join(genres, ",")

	if len(t.Content) > 0 && s.store != nil {
		t.ObjectKey = objectKey(t)
		if err := s.store.PutTrack(ctx, t.ObjectKey, t.Content); err != nil {
			return err
		}
	}
	if err := s.repo.Create(t); err != nil {
		return err
	}
	logger.Info("track saved",
		logger.Int64("trackId", t.ID),
		logger.Int64("userId", userID),
		logger.String("title", t.Title))
	return nil
}

func objectKey(t *model.Track) string {
	name := strings.TrimSpace(t.Artists + " - " + t.Title)
	name = strings.ReplaceAll(name, "/", "_")
	return fmt.Sprintf("tracks/%d/%d_%s.mp3", t.UserID, time.Now().UnixNano(), name)
}
