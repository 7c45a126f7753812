package repository

import (
	"errors"
	"fmt"
	"time"

	"songhouse/model"

	"gorm.io/gorm"
)

// ReprocessRepository defines persistence for search reprocess requests.
// Status transitions themselves are owned by the reprocess service; this
// layer only executes them.
type ReprocessRepository interface {
	Create(request *model.SearchReprocess) error
	FindByID(id int64) (*model.SearchReprocess, error)
	FindByUserAndQuery(userID int64, searchQuery string) (*model.SearchReprocess, error)
	// FindByUserAndStatus returns one page and whether more pages follow.
	FindByUserAndStatus(userID int64, status model.ReprocessStatus, page, size int) ([]model.SearchReprocess, bool, error)
	// FindUserIDsWithStatus returns the distinct users owning at least one
	// request in the given status.
	FindUserIDsWithStatus(status model.ReprocessStatus) ([]int64, error)

	SetFound(foundAt time.Time, ids []int64) error
	SetDownloaded(downloadedAt time.Time, ids []int64) error
	// ResetFoundExcept reverts the user's FOUND requests not listed in
	// keepIDs back to NOT_FOUND.
	ResetFoundExcept(userID int64, keepIDs []int64) error
	// ResetFound reverts all of the user's FOUND requests back to NOT_FOUND.
	ResetFound(userID int64) error
	// ResetByID reverts a single request to NOT_FOUND regardless of status.
	ResetByID(id int64) error
	IncrementRetries(ids []int64) error
}

type gormReprocessRepository struct {
	db *gorm.DB
}

// NewReprocessRepository creates the GORM-backed repository.
func NewReprocessRepository(db *gorm.DB) ReprocessRepository {
	return &gormReprocessRepository{db: db}
}

func (r *gormReprocessRepository) Create(request *model.SearchReprocess) error {
	if request.Status == "" {
		request.Status = model.StatusNotFound
	}
	if err := r.db.Create(request).Error; err != nil {
		return fmt.Errorf("failed to create search reprocess for user %d: %w", request.UserID, err)
	}
	return nil
}

func (r *gormReprocessRepository) FindByID(id int64) (*model.SearchReprocess, error) {
	var request model.SearchReprocess
	err := r.db.First(&request, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find search reprocess %d: %w", id, err)
	}
	return &request, nil
}

func (r *gormReprocessRepository) FindByUserAndQuery(userID int64, searchQuery string) (*model.SearchReprocess, error) {
	var request model.SearchReprocess
	err := r.db.Where("user_id = ? AND search_query = ?", userID, searchQuery).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find search reprocess for user %d: %w", userID, err)
	}
	return &request, nil
}

func (r *gormReprocessRepository) FindByUserAndStatus(userID int64, status model.ReprocessStatus, page, size int) ([]model.SearchReprocess, bool, error) {
	var requests []model.SearchReprocess
	// Fetch one extra row to learn whether another page follows.
	err := r.db.
		Where("user_id = ? AND status = ?", userID, status).
		Order("id").
		Offset(page * size).
		Limit(size + 1).
		Find(&requests).Error
	if err != nil {
		return nil, false, fmt.Errorf("failed to page search reprocess for user %d: %w", userID, err)
	}
	hasNext := len(requests) > size
	if hasNext {
		requests = requests[:size]
	}
	return requests, hasNext, nil
}

func (r *gormReprocessRepository) FindUserIDsWithStatus(status model.ReprocessStatus) ([]int64, error) {
	var userIDs []int64
	err := r.db.Model(&model.SearchReprocess{}).
		Distinct("user_id").
		Where("status = ?", status).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find users with status %s: %w", status, err)
	}
	return userIDs, nil
}

func (r *gormReprocessRepository) SetFound(foundAt time.Time, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&model.SearchReprocess{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": model.StatusFound, "found_at": foundAt}).Error
	if err != nil {
		return fmt.Errorf("failed to mark search reprocess found: %w", err)
	}
	return nil
}

func (r *gormReprocessRepository) SetDownloaded(downloadedAt time.Time, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&model.SearchReprocess{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": model.StatusDownloaded, "downloaded_at": downloadedAt}).Error
	if err != nil {
		return fmt.Errorf("failed to mark search reprocess downloaded: %w", err)
	}
	return nil
}

func (r *gormReprocessRepository) ResetFoundExcept(userID int64, keepIDs []int64) error {
	query := r.db.Model(&model.SearchReprocess{}).
		Where("user_id = ? AND status = ?", userID, model.StatusFound)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}
	err := query.Updates(map[string]interface{}{"status": model.StatusNotFound, "found_at": nil}).Error
	if err != nil {
		return fmt.Errorf("failed to reset stale found requests for user %d: %w", userID, err)
	}
	return nil
}

func (r *gormReprocessRepository) ResetFound(userID int64) error {
	return r.ResetFoundExcept(userID, nil)
}

func (r *gormReprocessRepository) ResetByID(id int64) error {
	err := r.db.Model(&model.SearchReprocess{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.StatusNotFound,
			"found_at":      nil,
			"downloaded_at": nil,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to reset search reprocess %d: %w", id, err)
	}
	return nil
}

func (r *gormReprocessRepository) IncrementRetries(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&model.SearchReprocess{}).
		Where("id IN ?", ids).
		UpdateColumn("retries", gorm.Expr("retries + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}
	return nil
}
