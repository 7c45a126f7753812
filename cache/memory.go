package cache

import (
	"context"
	"sync"

	"songhouse/model"
)

// MemoryResultCache is the in-process ResultCache, for single-node setups and
// tests. Partitioned by user under one RW lock.
type MemoryResultCache struct {
	mu     sync.RWMutex
	byUser map[int64]map[int64]model.ReprocessResult
}

func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{byUser: make(map[int64]map[int64]model.ReprocessResult)}
}

func (c *MemoryResultCache) Save(_ context.Context, userID int64, results map[int64]model.ReprocessResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	partition := c.byUser[userID]
	if partition == nil {
		partition = make(map[int64]model.ReprocessResult, len(results))
		c.byUser[userID] = partition
	}
	for requestID, result := range results {
		partition[requestID] = result
	}
	return nil
}

func (c *MemoryResultCache) Get(_ context.Context, userID int64, requestIDs []int64) (map[int64]model.ReprocessResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make(map[int64]model.ReprocessResult)
	partition := c.byUser[userID]
	for _, id := range requestIDs {
		if result, ok := partition[id]; ok {
			results[id] = result
		}
	}
	return results, nil
}

func (c *MemoryResultCache) Available(_ context.Context, userID int64) (map[int64]model.ReprocessResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make(map[int64]model.ReprocessResult, len(c.byUser[userID]))
	for requestID, result := range c.byUser[userID] {
		results[requestID] = result
	}
	return results, nil
}

func (c *MemoryResultCache) Remove(_ context.Context, userID int64, requestIDs []int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	partition := c.byUser[userID]
	for _, id := range requestIDs {
		delete(partition, id)
	}
	return nil
}
