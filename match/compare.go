package match

import (
	"sort"

	"songhouse/model"
)

// Comparator imposes a total order on candidate tracks. Compare returns a
// negative value when a should rank ahead of b.
type Comparator interface {
	Compare(a, b model.TrackMetadata) int
}

const (
	durationDiffMultiplier = 3
	bitRatePenalty         = 60
	// Durations at or below this are treated as unknown/unreliable and carry
	// no penalty.
	durationPenaltyMinSec = 60
)

// BaselineComparator ranks candidates against an expected (artists, title)
// pair: artist similarity first, then title similarity, then bit rate
// (higher first), then duration (shorter first).
type BaselineComparator struct {
	expected model.ArtistsTitle
}

func NewBaselineComparator(expected model.ArtistsTitle) *BaselineComparator {
	return &BaselineComparator{expected: expected}
}

func (c *BaselineComparator) Compare(a, b model.TrackMetadata) int {
	if d := Score(b.ArtistsTitle.Artists, c.expected.Artists) - Score(a.ArtistsTitle.Artists, c.expected.Artists); d != 0 {
		return d
	}
	if d := Score(b.ArtistsTitle.Title, c.expected.Title) - Score(a.ArtistsTitle.Title, c.expected.Title); d != 0 {
		return d
	}
	if d := int(b.BitRateKbps) - int(a.BitRateKbps); d != 0 {
		return d
	}
	return a.DurationSec - b.DurationSec
}

// SmartComparator ranks candidates against an authoritative expected track
// (e.g. a database entry) by accumulating penalties: similarity shortfall,
// duration gap times 3 when the expected duration exceeds 60s, and a flat 60
// on whichever candidate has the lower known bit rate. Lower penalty ranks
// first.
type SmartComparator struct {
	expected            model.ArtistsTitle
	expectedDurationSec int
}

func NewSmartComparator(expected model.ArtistsTitle, expectedDurationSec int) *SmartComparator {
	return &SmartComparator{expected: expected, expectedDurationSec: expectedDurationSec}
}

func (c *SmartComparator) Compare(a, b model.TrackMetadata) int {
	p1 := MaxScore - ScoreArtistsTitle(c.expected, a.ArtistsTitle)
	p2 := MaxScore - ScoreArtistsTitle(c.expected, b.ArtistsTitle)

	if c.expectedDurationSec > durationPenaltyMinSec {
		p1 += abs(a.DurationSec-c.expectedDurationSec) * durationDiffMultiplier
		p2 += abs(b.DurationSec-c.expectedDurationSec) * durationDiffMultiplier
	}

	if a.BitRateKbps != 0 && b.BitRateKbps != 0 {
		if a.BitRateKbps > b.BitRateKbps {
			p2 += bitRatePenalty
		} else if a.BitRateKbps < b.BitRateKbps {
			p1 += bitRatePenalty
		}
	}

	return p1 - p2
}

// Rank sorts candidates best-first under the given comparator. Candidates are
// first put in a canonical order so the result depends only on the candidate
// set, never on adapter arrival order.
func Rank(candidates []model.TrackMetadata, cmp Comparator) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ResourceName != candidates[j].ResourceName {
			return candidates[i].ResourceName < candidates[j].ResourceName
		}
		return candidates[i].URI < candidates[j].URI
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return cmp.Compare(candidates[i], candidates[j]) < 0
	})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
