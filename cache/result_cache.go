package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"songhouse/logger"
	"songhouse/model"

	"github.com/go-redis/redis/v8"
)

// ResultCache holds found-but-not-yet-downloaded reprocess results, keyed by
// (userId, requestId). Implementations must be safe for concurrent use across
// users; each call is atomic per user.
type ResultCache interface {
	Save(ctx context.Context, userID int64, results map[int64]model.ReprocessResult) error
	Get(ctx context.Context, userID int64, requestIDs []int64) (map[int64]model.ReprocessResult, error)
	Available(ctx context.Context, userID int64) (map[int64]model.ReprocessResult, error)
	Remove(ctx context.Context, userID int64, requestIDs []int64) error
}

// resultKey builds the per-user redis hash key.
func resultKey(userID int64) string {
	return fmt.Sprintf("reprocess:result:%d", userID)
}

// RedisResultCache stores each user's results in one redis hash,
// field=requestID, value=JSON result.
type RedisResultCache struct {
	client *redis.Client
}

func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

func (c *RedisResultCache) Save(ctx context.Context, userID int64, results map[int64]model.ReprocessResult) error {
	if len(results) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(results))
	for requestID, result := range results {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal reprocess result %d: %w", requestID, err)
		}
		fields[strconv.FormatInt(requestID, 10)] = data
	}
	if err := c.client.HSet(ctx, resultKey(userID), fields).Err(); err != nil {
		return fmt.Errorf("failed to save reprocess results for user %d: %w", userID, err)
	}
	return nil
}

func (c *RedisResultCache) Get(ctx context.Context, userID int64, requestIDs []int64) (map[int64]model.ReprocessResult, error) {
	all, err := c.Available(ctx, userID)
	if err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		wanted[id] = struct{}{}
	}
	results := make(map[int64]model.ReprocessResult)
	for id, result := range all {
		if _, ok := wanted[id]; ok {
			results[id] = result
		}
	}
	return results, nil
}

func (c *RedisResultCache) Available(ctx context.Context, userID int64) (map[int64]model.ReprocessResult, error) {
	entries, err := c.client.HGetAll(ctx, resultKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[int64]model.ReprocessResult{}, nil
		}
		return nil, fmt.Errorf("failed to read reprocess results for user %d: %w", userID, err)
	}

	results := make(map[int64]model.ReprocessResult, len(entries))
	for field, value := range entries {
		requestID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			logger.Warn("skipping malformed reprocess cache field",
				logger.Int64("userId", userID),
				logger.String("field", field))
			continue
		}
		var result model.ReprocessResult
		if err := json.Unmarshal([]byte(value), &result); err != nil {
			logger.Warn("skipping undecodable reprocess cache entry",
				logger.Int64("userId", userID),
				logger.Int64("requestId", requestID),
				logger.ErrorField(err))
			continue
		}
		results[requestID] = result
	}
	return results, nil
}

func (c *RedisResultCache) Remove(ctx context.Context, userID int64, requestIDs []int64) error {
	if len(requestIDs) == 0 {
		return nil
	}
	fields := make([]string, 0, len(requestIDs))
	for _, id := range requestIDs {
		fields = append(fields, strconv.FormatInt(id, 10))
	}
	if err := c.client.HDel(ctx, resultKey(userID), fields...).Err(); err != nil {
		return fmt.Errorf("failed to remove reprocess results for user %d: %w", userID, err)
	}
	return nil
}
