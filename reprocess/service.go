// Package reprocess owns the retry lifecycle of persisted search requests:
// NOT_FOUND until a scheduled sweep finds a candidate, FOUND while the result
// waits in the cache, DOWNLOADED once it has been materialized.
package reprocess

import (
	"context"
	"fmt"
	"sync"
	"time"

	"songhouse/cache"
	"songhouse/logger"
	"songhouse/match"
	"songhouse/model"
	"songhouse/repository"
)

// Searcher runs an aggregated multi-source search. Implemented by
// search.Facade.
type Searcher interface {
	Search(ctx context.Context, query model.SearchQuery) []model.TrackMetadata
}

// Downloader materializes and persists one cached reprocess result. A nil
// track with nil error means nothing could be downloaded, which is a normal
// outcome. Implemented by track.Service.
type Downloader interface {
	Download(ctx context.Context, result model.ReprocessResult) (*model.Track, error)
}

// Config tunes the reprocessing engine.
type Config struct {
	// PageSize is the retry batch size when paging a user's pending requests.
	PageSize int
	// MatchThreshold is the minimum composite score the top-ranked candidate
	// needs for a request to transition to FOUND.
	MatchThreshold int
}

// Service is the reprocessing state machine. It is the only writer of request
// statuses; per-user locking serializes cache mutations so the found-step and
// the download-step never interleave for the same user.
type Service struct {
	repo       repository.ReprocessRepository
	results    cache.ResultCache
	searcher   Searcher
	downloader Downloader
	publisher  *Publisher
	cfg        Config

	userLocks sync.Map // userID -> *sync.Mutex
}

func NewService(repo repository.ReprocessRepository, results cache.ResultCache,
	searcher Searcher, downloader Downloader, publisher *Publisher, cfg Config) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = 85
	}
	return &Service{
		repo:       repo,
		results:    results,
		searcher:   searcher,
		downloader: downloader,
		publisher:  publisher,
		cfg:        cfg,
	}
}

func (s *Service) userLock(userID int64) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// CreateIfNotExists registers a search request for background reprocessing.
// Idempotent per (userId, query): an existing request is returned as-is, and
// a DOWNLOADED one is re-armed to NOT_FOUND so the track can be fetched again.
func (s *Service) CreateIfNotExists(ctx context.Context, searchQuery string, collectionID int64, genres []string, userID int64) (*model.SearchReprocess, error) {
	existing, err := s.repo.FindByUserAndQuery(userID, searchQuery)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == model.StatusDownloaded {
			if err := s.repo.ResetByID(existing.ID); err != nil {
				return nil, err
			}
			existing.Status = model.StatusNotFound
			existing.FoundAt = nil
			existing.DownloadedAt = nil
			logger.Info("re-armed downloaded search request",
				logger.Int64("userId", userID),
				logger.Int64("requestId", existing.ID))
		}
		return existing, nil
	}

	request := &model.SearchReprocess{
		SearchQuery:  searchQuery,
		UserID:       userID,
		CollectionID: collectionID,
		Status:       model.StatusNotFound,
	}
	request.SetGenres(genres)
	if err := s.repo.Create(request); err != nil {
		return nil, err
	}
	logger.Info("registered search request for reprocessing",
		logger.Int64("userId", userID),
		logger.Int64("requestId", request.ID),
		logger.String("query", searchQuery))
	return request, nil
}

// AvailableForSearch pages the user's still-pending requests.
func (s *Service) AvailableForSearch(ctx context.Context, userID int64, page, size int) ([]model.SearchReprocess, bool, error) {
	return s.repo.FindByUserAndStatus(userID, model.StatusNotFound, page, size)
}

// AvailableForDownload pages the user's found requests, repairing cache/status
// consistency first so the listing reflects what can actually be downloaded.
func (s *Service) AvailableForDownload(ctx context.Context, userID int64, page, size int) ([]model.SearchReprocess, bool, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.repairConsistency(ctx, userID); err != nil {
		return nil, false, err
	}
	return s.repo.FindByUserAndStatus(userID, model.StatusFound, page, size)
}

// Downloaded pages the user's completed requests.
func (s *Service) Downloaded(ctx context.Context, userID int64, page, size int) ([]model.SearchReprocess, bool, error) {
	return s.repo.FindByUserAndStatus(userID, model.StatusDownloaded, page, size)
}

// Discard reverts a found-but-undownloaded request to NOT_FOUND and drops its
// cached result. Only FOUND requests can be discarded.
func (s *Service) Discard(ctx context.Context, userID, requestID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	request, err := s.repo.FindByID(requestID)
	if err != nil {
		return err
	}
	if request == nil || request.UserID != userID {
		return fmt.Errorf("search reprocess %d not found for user %d", requestID, userID)
	}
	if request.Status != model.StatusFound {
		return fmt.Errorf("search reprocess %d is not awaiting download", requestID)
	}
	if err := s.repo.ResetByID(requestID); err != nil {
		return err
	}
	return s.results.Remove(ctx, userID, []int64{requestID})
}

// ReprocessAllUsers sweeps every user owning at least one pending request.
// One user's failure never aborts the sweep for the others.
func (s *Service) ReprocessAllUsers(ctx context.Context) error {
	logger.Info("starting reprocessing search requests for all users")
	userIDs, err := s.repo.FindUserIDsWithStatus(model.StatusNotFound)
	if err != nil {
		return fmt.Errorf("failed to list users for reprocessing: %w", err)
	}
	for _, userID := range userIDs {
		if _, err := s.Reprocess(ctx, userID); err != nil {
			logger.Error("reprocessing failed for user",
				logger.Int64("userId", userID),
				logger.ErrorField(err))
		}
	}
	logger.Info("finished reprocessing search requests for all users",
		logger.Int("users", len(userIDs)))
	return nil
}

// Reprocess re-runs the search engine over all of one user's pending requests
// and returns how many were found this pass.
func (s *Service) Reprocess(ctx context.Context, userID int64) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger.Info("starting reprocessing search requests", logger.Int64("userId", userID))

	if err := s.repairConsistency(ctx, userID); err != nil {
		return 0, err
	}

	found := make(map[int64]model.ReprocessResult)
	for page := 0; ; page++ {
		batch, hasNext, err := s.repo.FindByUserAndStatus(userID, model.StatusNotFound, page, s.cfg.PageSize)
		if err != nil {
			return 0, err
		}

		batchIDs := make([]int64, 0, len(batch))
		for i := range batch {
			request := &batch[i]
			batchIDs = append(batchIDs, request.ID)
			if result, ok := s.reprocessOne(ctx, request); ok {
				found[request.ID] = result
			}
		}
		// Retries count the sweep pass, not the outcome.
		if err := s.repo.IncrementRetries(batchIDs); err != nil {
			return 0, err
		}
		if !hasNext {
			break
		}
	}

	if len(found) > 0 {
		foundIDs := make([]int64, 0, len(found))
		for requestID := range found {
			foundIDs = append(foundIDs, requestID)
		}
		if err := s.results.Save(ctx, userID, found); err != nil {
			return 0, err
		}
		if err := s.repo.SetFound(time.Now(), foundIDs); err != nil {
			return 0, err
		}
		s.publisher.Publish(FoundEvent{UserID: userID, Results: found})
	}

	logger.Info("finished reprocessing search requests",
		logger.Int64("userId", userID),
		logger.Int("found", len(found)))
	return len(found), nil
}

// reprocessOne searches for a single pending request and keeps the top-ranked
// candidate when it scores above the match threshold.
func (s *Service) reprocessOne(ctx context.Context, request *model.SearchReprocess) (model.ReprocessResult, bool) {
	query := model.NewSearchQuery(request.SearchQuery)
	songs := s.searcher.Search(ctx, query)
	if len(songs) == 0 {
		return model.ReprocessResult{}, false
	}

	expected := model.ParseArtistsTitle(request.SearchQuery)
	top := songs[0]
	if match.ScoreArtistsTitle(expected, top.ArtistsTitle) < s.cfg.MatchThreshold {
		logger.Debug("top candidate below match threshold",
			logger.Int64("requestId", request.ID),
			logger.String("query", request.SearchQuery),
			logger.String("candidate", top.ArtistsTitle.String()))
		return model.ReprocessResult{}, false
	}

	return model.ReprocessResult{
		OwnerID:       request.UserID,
		CollectionID:  request.CollectionID,
		Genres:        request.GenreList(),
		TrackMetadata: top,
	}, true
}

// Download drains the given cached results into persisted tracks. Partial
// success is normal: failed downloads stay cached and FOUND for the next
// attempt.
func (s *Service) Download(ctx context.Context, userID int64, requestIDs []int64) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger.Info("starting downloading reprocess results",
		logger.Int64("userId", userID),
		logger.Int("requested", len(requestIDs)))
	ready, err := s.results.Get(ctx, userID, requestIDs)
	if err != nil {
		return 0, err
	}
	return s.downloadReady(ctx, userID, ready)
}

// DownloadAll drains every cached result the user has.
func (s *Service) DownloadAll(ctx context.Context, userID int64) (int, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	logger.Info("starting downloading all reprocess results", logger.Int64("userId", userID))
	ready, err := s.results.Available(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.downloadReady(ctx, userID, ready)
}

func (s *Service) downloadReady(ctx context.Context, userID int64, ready map[int64]model.ReprocessResult) (int, error) {
	var downloadedIDs []int64
	for requestID, result := range ready {
		track, err := s.downloader.Download(ctx, result)
		if err != nil {
			logger.Warn("reprocess result download failed",
				logger.Int64("userId", userID),
				logger.Int64("requestId", requestID),
				logger.ErrorField(err))
			continue
		}
		if track == nil {
			logger.Warn("reprocess result could not be materialized",
				logger.Int64("userId", userID),
				logger.Int64("requestId", requestID))
			continue
		}
		downloadedIDs = append(downloadedIDs, requestID)
	}

	if len(downloadedIDs) > 0 {
		if err := s.repo.SetDownloaded(time.Now(), downloadedIDs); err != nil {
			return 0, err
		}
		if err := s.results.Remove(ctx, userID, downloadedIDs); err != nil {
			return 0, err
		}
	}

	logger.Info("finished downloading reprocess results",
		logger.Int64("userId", userID),
		logger.Int("downloaded", len(downloadedIDs)))
	return len(downloadedIDs), nil
}

// repairConsistency realigns request statuses with the cache before a cycle.
// The cache is the source of truth for "ready to download": FOUND rows with
// no cache entry cannot be downloaded and go back to NOT_FOUND. The repair
// runs to completion before any read of the user's pending set.
func (s *Service) repairConsistency(ctx context.Context, userID int64) error {
	available, err := s.results.Available(ctx, userID)
	if err != nil {
		return err
	}
	if len(available) > 0 {
		cachedIDs := make([]int64, 0, len(available))
		for requestID := range available {
			cachedIDs = append(cachedIDs, requestID)
		}
		return s.repo.ResetFoundExcept(userID, cachedIDs)
	}
	return s.repo.ResetFound(userID)
}
