package match

import (
	"testing"

	"songhouse/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metadata(artists, title string, durationSec int, bitRate int16, uri string) model.TrackMetadata {
	return model.TrackMetadata{
		ArtistsTitle: model.ArtistsTitle{Artists: artists, Title: title},
		DurationSec:  durationSec,
		BitRateKbps:  bitRate,
		ResourceName: "test",
		URI:          uri,
	}
}

// A long low-bitrate podcast that merely mentions the artist must lose to the
// actual track, even though both mention "Sync 24".
func TestSmartComparatorPrefersRealTrackOverPodcast(t *testing.T) {
	expected := model.ParseArtistsTitle("Sync 24 & Morphology - Foreign Fruit")
	cmp := NewSmartComparator(expected, 396)

	podcast := metadata("Electrix Radio", "Electrix Podcast 003 mixed by Sync 24", 3151, 128, "test:podcast")
	track := metadata("Sync 24 & Morphology", "Foreign Fruit", 396, 320, "test:track")

	assert.Positive(t, cmp.Compare(podcast, track))
	assert.Negative(t, cmp.Compare(track, podcast))

	candidates := []model.TrackMetadata{podcast, track}
	Rank(candidates, cmp)
	assert.Equal(t, "Foreign Fruit", candidates[0].ArtistsTitle.Title)
}

func TestSmartComparatorDurationGapPenalty(t *testing.T) {
	expected := model.ArtistsTitle{Artists: "Orbital", Title: "Halcyon"}
	cmp := NewSmartComparator(expected, 300)

	near := metadata("Orbital", "Halcyon", 302, 320, "test:near")
	far := metadata("Orbital", "Halcyon", 500, 320, "test:far")
	assert.Negative(t, cmp.Compare(near, far))
}

func TestSmartComparatorIgnoresDurationWhenExpectedUnknown(t *testing.T) {
	expected := model.ArtistsTitle{Artists: "Orbital", Title: "Halcyon"}
	// Expected durations of a minute or less carry no signal.
	cmp := NewSmartComparator(expected, 0)

	short := metadata("Orbital", "Halcyon", 30, 320, "test:short")
	long := metadata("Orbital", "Halcyon", 3000, 320, "test:long")
	assert.Zero(t, cmp.Compare(short, long))
}

func TestSmartComparatorBitRatePenalty(t *testing.T) {
	expected := model.ArtistsTitle{Artists: "Orbital", Title: "Halcyon"}
	cmp := NewSmartComparator(expected, 300)

	high := metadata("Orbital", "Halcyon", 300, 320, "test:high")
	low := metadata("Orbital", "Halcyon", 300, 128, "test:low")
	assert.Negative(t, cmp.Compare(high, low))

	// An unknown bit rate on either side suspends the penalty.
	unknown := metadata("Orbital", "Halcyon", 300, 0, "test:unknown")
	assert.Zero(t, cmp.Compare(high, unknown))
}

func TestBaselineComparatorOrdersByArtistThenTitle(t *testing.T) {
	expected := model.ParseArtistsTitle("Orbital - Halcyon")
	cmp := NewBaselineComparator(expected)

	exact := metadata("Orbital", "Halcyon", 300, 128, "test:exact")
	wrongTitle := metadata("Orbital", "Chime", 300, 320, "test:wrong-title")
	wrongArtist := metadata("Underworld", "Halcyon", 300, 320, "test:wrong-artist")

	assert.Negative(t, cmp.Compare(exact, wrongTitle))
	assert.Negative(t, cmp.Compare(exact, wrongArtist))
	assert.Negative(t, cmp.Compare(wrongTitle, wrongArtist))
}

func TestBaselineComparatorTieBreaks(t *testing.T) {
	expected := model.ParseArtistsTitle("Orbital - Halcyon")
	cmp := NewBaselineComparator(expected)

	high := metadata("Orbital", "Halcyon", 300, 320, "test:high")
	low := metadata("Orbital", "Halcyon", 300, 128, "test:low")
	assert.Negative(t, cmp.Compare(high, low))

	short := metadata("Orbital", "Halcyon", 290, 320, "test:short")
	assert.Negative(t, cmp.Compare(short, high))
}

// The ranked order must depend only on the candidate set, not on the order
// adapters happened to deliver in.
func TestRankIsDeterministicAcrossArrivalOrders(t *testing.T) {
	expected := model.ParseArtistsTitle("Orbital - Halcyon")
	cmp := NewBaselineComparator(expected)

	a := metadata("Orbital", "Halcyon", 300, 320, "alpha:1")
	b := metadata("Orbital", "Halcyon", 300, 320, "beta:1")
	c := metadata("Orbital", "Chime", 250, 320, "alpha:2")

	first := []model.TrackMetadata{c, b, a}
	second := []model.TrackMetadata{b, a, c}
	Rank(first, cmp)
	Rank(second, cmp)

	require.Equal(t, first, second)

	// Ranking an already ranked slice changes nothing.
	again := append([]model.TrackMetadata(nil), first...)
	Rank(again, cmp)
	assert.Equal(t, first, again)
}
