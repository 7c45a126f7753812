package search

import (
	"context"
	"errors"
	"testing"

	"songhouse/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDownloadAdapter struct {
	enabled  bool
	priority int
	resource string
	track    *model.Track
	err      error

	gotArtwork   string
	gotCandidate model.TrackMetadata
}

func (a *stubDownloadAdapter) DownloadEnabled() bool { return a.enabled }
func (a *stubDownloadAdapter) DownloadPriority() int { return a.priority }
func (a *stubDownloadAdapter) CanDownload(resourceName string) bool {
	return resourceName == a.resource
}

func (a *stubDownloadAdapter) Download(ctx context.Context, query model.SearchQuery, artworkURL string) (*model.Track, error) {
	a.gotArtwork = artworkURL
	return a.track, a.err
}

func (a *stubDownloadAdapter) DownloadTrack(ctx context.Context, candidate model.TrackMetadata) (*model.Track, error) {
	a.gotCandidate = candidate
	return a.track, a.err
}

func TestDownloadPicksHighestPriorityEnabledAdapter(t *testing.T) {
	disabled := &stubDownloadAdapter{enabled: false, priority: 100, resource: "alpha"}
	low := &stubDownloadAdapter{enabled: true, priority: 1, resource: "beta", track: &model.Track{Title: "from beta"}}
	high := &stubDownloadAdapter{enabled: true, priority: 10, resource: "gamma", track: &model.Track{Title: "from gamma"}}

	d := NewDownloadFacade([]DownloadAdapter{disabled, low, high}, &stubArtwork{url: "https://img.test/a.jpg"})

	track := d.Download(context.Background(), model.NewSearchQuery("Orbital - Halcyon"))
	require.NotNil(t, track)
	assert.Equal(t, "from gamma", track.Title)
	assert.Equal(t, "https://img.test/a.jpg", high.gotArtwork)
}

func TestDownloadReturnsNilWhenNothingEligible(t *testing.T) {
	d := NewDownloadFacade([]DownloadAdapter{
		&stubDownloadAdapter{enabled: false, priority: 1, resource: "alpha"},
	}, nil)

	assert.Nil(t, d.Download(context.Background(), model.NewSearchQuery("Orbital - Halcyon")))
}

func TestDownloadReturnsNilOnAdapterError(t *testing.T) {
	d := NewDownloadFacade([]DownloadAdapter{
		&stubDownloadAdapter{enabled: true, priority: 1, resource: "alpha", err: errors.New("quota exceeded")},
	}, nil)

	assert.Nil(t, d.Download(context.Background(), model.NewSearchQuery("Orbital - Halcyon")))
}

func TestDownloadTrackRoutesByResourcePrefix(t *testing.T) {
	alpha := &stubDownloadAdapter{enabled: true, priority: 1, resource: "alpha", track: &model.Track{Title: "alpha track"}}
	beta := &stubDownloadAdapter{enabled: true, priority: 5, resource: "beta", track: &model.Track{Title: "beta track"}}

	d := NewDownloadFacade([]DownloadAdapter{alpha, beta}, nil)

	candidate := model.TrackMetadata{
		ArtistsTitle: model.ArtistsTitle{Artists: "Orbital", Title: "Halcyon"},
		ResourceName: "alpha",
		URI:          "alpha:12345",
		ThumbnailURL: "https://img.test/h.jpg",
	}

	track := d.DownloadTrack(context.Background(), candidate)
	require.NotNil(t, track)
	assert.Equal(t, "alpha track", track.Title)
	assert.Equal(t, "alpha:12345", alpha.gotCandidate.URI)
	// Candidate artwork carries over when the adapter left it blank.
	assert.Equal(t, "https://img.test/h.jpg", track.ArtworkURL)
}

func TestDownloadTrackFillsMissingArtworkBeforeDownload(t *testing.T) {
	alpha := &stubDownloadAdapter{enabled: true, priority: 1, resource: "alpha", track: &model.Track{}}
	d := NewDownloadFacade([]DownloadAdapter{alpha}, &stubArtwork{url: "https://img.test/found.jpg"})

	candidate := model.TrackMetadata{
		ArtistsTitle: model.ArtistsTitle{Artists: "Orbital", Title: "Halcyon"},
		ResourceName: "alpha",
		URI:          "alpha:1",
	}

	track := d.DownloadTrack(context.Background(), candidate)
	require.NotNil(t, track)
	assert.Equal(t, "https://img.test/found.jpg", alpha.gotCandidate.ThumbnailURL)
	assert.Equal(t, "https://img.test/found.jpg", track.ArtworkURL)
}

func TestDownloadTrackNoAdapterForResource(t *testing.T) {
	alpha := &stubDownloadAdapter{enabled: true, priority: 1, resource: "alpha"}
	d := NewDownloadFacade([]DownloadAdapter{alpha}, nil)

	candidate := model.TrackMetadata{ResourceName: "omega", URI: "omega:9"}
	assert.Nil(t, d.DownloadTrack(context.Background(), candidate))
}
