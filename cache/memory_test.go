package cache

import (
	"context"
	"testing"

	"songhouse/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(title string) model.ReprocessResult {
	return model.ReprocessResult{
		OwnerID: 1,
		TrackMetadata: model.TrackMetadata{
			ArtistsTitle: model.ArtistsTitle{Artists: "Orbital", Title: title},
		},
	}
}

func TestMemoryResultCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache()

	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{
		10: result("Halcyon"),
		11: result("Chime"),
	}))

	got, err := c.Get(ctx, 1, []int64{10, 99})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Halcyon", got[10].TrackMetadata.ArtistsTitle.Title)

	all, err := c.Available(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryResultCacheIsPartitionedByUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache()

	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{10: result("Halcyon")}))

	other, err := c.Available(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, c.Remove(ctx, 2, []int64{10}))
	mine, err := c.Available(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestMemoryResultCacheSaveOverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache()

	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{10: result("Halcyon")}))
	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{10: result("Halcyon 2")}))

	all, err := c.Available(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Halcyon 2", all[10].TrackMetadata.ArtistsTitle.Title)
}

func TestMemoryResultCacheRemove(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache()

	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{
		10: result("Halcyon"),
		11: result("Chime"),
	}))
	require.NoError(t, c.Remove(ctx, 1, []int64{10}))

	all, err := c.Available(ctx, 1)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Contains(t, all, int64(11))
}

func TestMemoryResultCacheAvailableReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryResultCache()

	require.NoError(t, c.Save(ctx, 1, map[int64]model.ReprocessResult{10: result("Halcyon")}))

	all, _ := c.Available(ctx, 1)
	delete(all, 10)

	again, _ := c.Available(ctx, 1)
	assert.Len(t, again, 1)
}
