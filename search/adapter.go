// Package search holds the adapter contracts and the two facades that sit
// above them: concurrent multi-source search aggregation and prioritized
// download selection. Adapters themselves (HTML scraping, sessions, proxies)
// live outside this module and are injected at startup.
package search

import (
	"context"

	"songhouse/model"
)

// SourceAdapter is implemented by every external search source. Search may
// fail or time out; the facade treats both as "no result".
type SourceAdapter interface {
	Search(ctx context.Context, query model.SearchQuery) ([]model.TrackMetadata, error)

	// ResourceName identifies the adapter in TrackMetadata.ResourceName and
	// in candidate URI prefixes.
	ResourceName() string
}

// FastSourceAdapter marks a low-latency, low-fidelity source that fast mode
// is allowed to consult.
type FastSourceAdapter interface {
	SourceAdapter

	SearchFast(ctx context.Context, query model.SearchQuery) ([]model.TrackMetadata, error)
}

// DownloadAdapter materializes actual audio bytes for a query or a candidate.
type DownloadAdapter interface {
	DownloadEnabled() bool
	DownloadPriority() int

	// CanDownload reports whether this adapter handles candidates produced by
	// the named resource.
	CanDownload(resourceName string) bool

	Download(ctx context.Context, query model.SearchQuery, artworkURL string) (*model.Track, error)
	DownloadTrack(ctx context.Context, candidate model.TrackMetadata) (*model.Track, error)
}

// ArtworkService looks up cover art for a textual query.
type ArtworkService interface {
	SearchArtwork(ctx context.Context, text string) (string, error)
	SearchArtworks(ctx context.Context, text string) ([]string, error)
}
