package search

import (
	"context"
	"time"

	"songhouse/logger"
	"songhouse/match"
	"songhouse/model"
)

const (
	defaultAdapterTimeout = 10 * time.Second
	defaultWorkers        = 4
	defaultThreshold      = 70

	// Extra slack the collector grants adapters whose own budget is already
	// expiring, so a result arriving right at the deadline is not raced away.
	collectGrace = 250 * time.Millisecond
)

// FacadeConfig tunes the aggregation engine.
type FacadeConfig struct {
	// AdapterTimeout bounds every individual adapter call and the artwork
	// lookup.
	AdapterTimeout time.Duration
	// Workers caps how many adapter calls run concurrently within one Search.
	Workers int
	// MatchThreshold is the minimum composite score a candidate needs to
	// survive FilterByArtistTitle.
	MatchThreshold int
}

// Facade fans a query out to all registered source adapters concurrently,
// merges partial successes, optionally enriches with artwork, and returns the
// candidates ranked against the parsed query. A single slow or failing
// adapter never blocks or fails the others; zero successful adapters is a
// valid, empty outcome.
type Facade struct {
	adapters []SourceAdapter
	artwork  ArtworkService
	cfg      FacadeConfig
	sem      chan struct{}
}

func NewFacade(adapters []SourceAdapter, artwork ArtworkService, cfg FacadeConfig) *Facade {
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = defaultAdapterTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = defaultThreshold
	}
	return &Facade{
		adapters: adapters,
		artwork:  artwork,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Workers),
	}
}

// Search aggregates all registered adapters.
func (f *Facade) Search(ctx context.Context, query model.SearchQuery) []model.TrackMetadata {
	return f.doSearch(ctx, query, false)
}

// SearchFast consults only fast-capable adapters and skips the artwork lookup.
func (f *Facade) SearchFast(ctx context.Context, query model.SearchQuery) []model.TrackMetadata {
	return f.doSearch(ctx, query, true)
}

func (f *Facade) doSearch(ctx context.Context, query model.SearchQuery, fast bool) []model.TrackMetadata {
	logger.Info("starting search",
		logger.String("query", query.Text),
		logger.Bool("fast", fast))
	start := time.Now()

	var artworkCh chan string
	if query.FetchArtwork && !fast && f.artwork != nil {
		artworkCh = make(chan string, 1)
		go func() {
			actx, cancel := context.WithTimeout(ctx, f.cfg.AdapterTimeout)
			defer cancel()
			url, err := f.artwork.SearchArtwork(actx, query.Text)
			if err != nil {
				logger.Warn("artwork lookup failed",
					logger.String("query", query.Text),
					logger.ErrorField(err))
				url = ""
			}
			artworkCh <- url
		}()
	}

	songs := f.fanOut(ctx, query, fast)

	if artworkCh != nil {
		if artworkURL := <-artworkCh; artworkURL != "" {
			for i := range songs {
				songs[i].ThumbnailURL = artworkURL
			}
		}
	}

	expected := model.ParseArtistsTitle(query.Text)
	if query.FilterByArtistTitle {
		songs = f.filterByScore(songs, expected)
	}
	match.Rank(songs, match.NewBaselineComparator(expected))

	logger.Info("search finished",
		logger.String("query", query.Text),
		logger.Int("found", len(songs)),
		logger.Duration("took", time.Since(start)))
	return songs
}

// fanOut submits every target adapter to the bounded worker pool and collects
// whatever settles before the time budget runs out. Stragglers are discarded,
// not cancelled siblings-wide.
func (f *Facade) fanOut(ctx context.Context, query model.SearchQuery, fast bool) []model.TrackMetadata {
	type adapterResult struct {
		resource string
		songs    []model.TrackMetadata
		err      error
	}

	targets := f.targets(fast)
	if len(targets) == 0 {
		return nil
	}

	results := make(chan adapterResult, len(targets))
	for _, adapter := range targets {
		adapter := adapter
		go func() {
			f.sem <- struct{}{}
			defer func() { <-f.sem }()

			actx, cancel := context.WithTimeout(ctx, f.cfg.AdapterTimeout)
			defer cancel()

			var songs []model.TrackMetadata
			var err error
			if fast {
				songs, err = adapter.(FastSourceAdapter).SearchFast(actx, query)
			} else {
				songs, err = adapter.Search(actx, query)
			}
			results <- adapterResult{resource: adapter.ResourceName(), songs: songs, err: err}
		}()
	}

	deadline := time.NewTimer(f.cfg.AdapterTimeout + collectGrace)
	defer deadline.Stop()

	var merged []model.TrackMetadata
	for collected := 0; collected < len(targets); collected++ {
		select {
		case res := <-results:
			if res.err != nil {
				logger.Warn("source adapter failed",
					logger.String("resource", res.resource),
					logger.String("query", query.Text),
					logger.ErrorField(res.err))
				continue
			}
			merged = append(merged, res.songs...)
		case <-deadline.C:
			logger.Warn("search budget expired, discarding remaining adapters",
				logger.String("query", query.Text),
				logger.Int("collected", collected),
				logger.Int("targets", len(targets)))
			return merged
		}
	}
	return merged
}

func (f *Facade) targets(fast bool) []SourceAdapter {
	if !fast {
		return f.adapters
	}
	var fastAdapters []SourceAdapter
	for _, adapter := range f.adapters {
		if _, ok := adapter.(FastSourceAdapter); ok {
			fastAdapters = append(fastAdapters, adapter)
		}
	}
	return fastAdapters
}

func (f *Facade) filterByScore(songs []model.TrackMetadata, expected model.ArtistsTitle) []model.TrackMetadata {
	// A query that did not parse into both parts cannot be scored fairly
	// against candidates, so it is not filtered at all.
	if expected.Artists == "" || expected.Title == "" {
		return songs
	}
	filtered := songs[:0]
	for _, song := range songs {
		if match.ScoreArtistsTitle(expected, song.ArtistsTitle) >= f.cfg.MatchThreshold {
			filtered = append(filtered, song)
		}
	}
	return filtered
}
