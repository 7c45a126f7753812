package track

import (
	"context"
	"testing"

	"songhouse/model"
	"songhouse/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTrackRepo struct {
	tracks []*model.Track
}

func (r *memTrackRepo) Create(track *model.Track) error {
	track.ID = int64(len(r.tracks) + 1)
	r.tracks = append(r.tracks, track)
	return nil
}

func (r *memTrackRepo) FindByArtistsTitle(artists, title string) (*model.Track, error) {
	for _, t := range r.tracks {
		if t.Artists == artists && t.Title == title {
			return t, nil
		}
	}
	return nil, nil
}

func (r *memTrackRepo) FindAllByUser(userID int64) ([]model.Track, error) {
	var tracks []model.Track
	for _, t := range r.tracks {
		if t.UserID == userID {
			tracks = append(tracks, *t)
		}
	}
	return tracks, nil
}

type memStore struct {
	objects map[string][]byte
}

func (s *memStore) PutTrack(_ context.Context, key string, audio []byte) error {
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = audio
	return nil
}

type stubDownloadAdapter struct {
	track *model.Track
}

func (a *stubDownloadAdapter) DownloadEnabled() bool                { return true }
func (a *stubDownloadAdapter) DownloadPriority() int                { return 1 }
func (a *stubDownloadAdapter) CanDownload(resourceName string) bool { return true }

func (a *stubDownloadAdapter) Download(ctx context.Context, query model.SearchQuery, artworkURL string) (*model.Track, error) {
	return a.track, nil
}

func (a *stubDownloadAdapter) DownloadTrack(ctx context.Context, candidate model.TrackMetadata) (*model.Track, error) {
	return a.track, nil
}

func TestSearchAndDownloadPersistsNewTrack(t *testing.T) {
	repo := &memTrackRepo{}
	store := &memStore{}
	downloads := search.NewDownloadFacade([]search.DownloadAdapter{&stubDownloadAdapter{
		track: &model.Track{Artists: "Orbital", Title: "Halcyon", Content: []byte("mp3 bytes")},
	}}, nil)

	svc := NewService(repo, store, downloads)

	track, err := svc.SearchAndDownload(context.Background(), "Orbital - Halcyon", 3, []string{"ambient"}, 1)
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, int64(1), track.UserID)
	assert.Equal(t, int64(3), track.CollectionID)
	assert.Equal(t, "ambient", track.Genres)
	require.Len(t, repo.tracks, 1)
	require.Len(t, store.objects, 1)
	assert.Equal(t, []byte("mp3 bytes"), store.objects[track.ObjectKey])
}

func TestSearchAndDownloadReturnsExistingTrackWithoutSearching(t *testing.T) {
	repo := &memTrackRepo{}
	require.NoError(t, repo.Create(&model.Track{Artists: "Orbital", Title: "Halcyon", UserID: 1}))

	// No adapters at all: any search attempt would come back empty.
	svc := NewService(repo, &memStore{}, search.NewDownloadFacade(nil, nil))

	track, err := svc.SearchAndDownload(context.Background(), "Orbital - Halcyon", 0, nil, 1)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, "Halcyon", track.Title)
	assert.Len(t, repo.tracks, 1)
}

func TestSearchAndDownloadMissIsNotAnError(t *testing.T) {
	svc := NewService(&memTrackRepo{}, &memStore{}, search.NewDownloadFacade(nil, nil))

	track, err := svc.SearchAndDownload(context.Background(), "Orbital - Halcyon", 0, nil, 1)
	require.NoError(t, err)
	assert.Nil(t, track)
}

func TestTracksListsOnlyOwnTracks(t *testing.T) {
	repo := &memTrackRepo{}
	require.NoError(t, repo.Create(&model.Track{Artists: "Orbital", Title: "Halcyon", UserID: 1}))
	require.NoError(t, repo.Create(&model.Track{Artists: "Orbital", Title: "Chime", UserID: 1}))
	require.NoError(t, repo.Create(&model.Track{Artists: "Underworld", Title: "Rez", UserID: 2}))

	svc := NewService(repo, &memStore{}, search.NewDownloadFacade(nil, nil))

	tracks, err := svc.Tracks(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	for _, track := range tracks {
		assert.Equal(t, int64(1), track.UserID)
	}
}

func TestDownloadMaterializesReprocessResult(t *testing.T) {
	repo := &memTrackRepo{}
	store := &memStore{}
	downloads := search.NewDownloadFacade([]search.DownloadAdapter{&stubDownloadAdapter{
		track: &model.Track{Artists: "Orbital", Title: "Chime", Content: []byte("audio")},
	}}, nil)

	svc := NewService(repo, store, downloads)

	result := model.ReprocessResult{
		OwnerID:      7,
		CollectionID: 2,
		Genres:       []string{"techno", "classic"},
		TrackMetadata: model.TrackMetadata{
			ArtistsTitle: model.ArtistsTitle{Artists: "Orbital", Title: "Chime"},
			ResourceName: "test",
			URI:          "test:chime",
		},
	}

	track, err := svc.Download(context.Background(), result)
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, int64(7), track.UserID)
	assert.Equal(t, "techno,classic", track.Genres)
	require.Len(t, repo.tracks, 1)
}
