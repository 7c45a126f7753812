package search

import (
	"context"
	"strings"

	"songhouse/logger"
	"songhouse/model"
)

// DownloadFacade picks the highest-priority enabled adapter able to
// materialize audio bytes. A nil result is the normal "nobody could" outcome,
// never an error.
type DownloadFacade struct {
	adapters []DownloadAdapter
	artwork  ArtworkService
}

func NewDownloadFacade(adapters []DownloadAdapter, artwork ArtworkService) *DownloadFacade {
	return &DownloadFacade{adapters: adapters, artwork: artwork}
}

// Download runs a fresh search-and-download through the best adapter,
// passing along whatever artwork the lookup produced.
func (d *DownloadFacade) Download(ctx context.Context, query model.SearchQuery) *model.Track {
	artworkURL := d.searchArtwork(ctx, query.Text)

	adapter := d.pick(func(a DownloadAdapter) bool { return a.DownloadEnabled() })
	if adapter == nil {
		logger.Warn("no enabled download adapter", logger.String("query", query.Text))
		return nil
	}

	track, err := adapter.Download(ctx, query, artworkURL)
	if err != nil {
		logger.Warn("download failed",
			logger.String("query", query.Text),
			logger.ErrorField(err))
		return nil
	}
	return track
}

// DownloadTrack materializes a specific candidate through the adapter that
// declared itself able to handle the candidate's resource.
func (d *DownloadFacade) DownloadTrack(ctx context.Context, candidate model.TrackMetadata) *model.Track {
	if candidate.ThumbnailURL == "" {
		candidate.ThumbnailURL = d.searchArtwork(ctx, candidate.ArtistsTitle.String())
	}

	resource := resourceOf(candidate)
	adapter := d.pick(func(a DownloadAdapter) bool {
		return a.DownloadEnabled() && a.CanDownload(resource)
	})
	if adapter == nil {
		logger.Warn("no download adapter for resource", logger.String("resource", resource))
		return nil
	}

	track, err := adapter.DownloadTrack(ctx, candidate)
	if err != nil {
		logger.Warn("candidate download failed",
			logger.String("resource", resource),
			logger.String("uri", candidate.URI),
			logger.ErrorField(err))
		return nil
	}
	if track != nil && track.ArtworkURL == "" {
		track.ArtworkURL = candidate.ThumbnailURL
	}
	return track
}

// pick returns the eligible adapter with the highest declared priority.
func (d *DownloadFacade) pick(eligible func(DownloadAdapter) bool) DownloadAdapter {
	var best DownloadAdapter
	for _, adapter := range d.adapters {
		if !eligible(adapter) {
			continue
		}
		if best == nil || adapter.DownloadPriority() > best.DownloadPriority() {
			best = adapter
		}
	}
	return best
}

func (d *DownloadFacade) searchArtwork(ctx context.Context, text string) string {
	if d.artwork == nil {
		return ""
	}
	artworkURL, err := d.artwork.SearchArtwork(ctx, text)
	if err != nil {
		logger.Warn("artwork lookup failed", logger.String("query", text), logger.ErrorField(err))
		return ""
	}
	return artworkURL
}

// resourceOf extracts the adapter prefix from a candidate URI, falling back
// to the resource name the producing adapter stamped on it.
func resourceOf(candidate model.TrackMetadata) string {
	if i := strings.Index(candidate.URI, ":"); i > 0 {
		return candidate.URI[:i]
	}
	return candidate.ResourceName
}
