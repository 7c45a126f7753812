package match

import (
	"math"
	"strings"

	"songhouse/model"

	"github.com/hbollon/go-edlib"
)

// MaxScore is the upper bound of every similarity score. 100 keeps the
// thresholds readable as percentages.
const MaxScore = 100

// Title similarity counts double against artist similarity in the composite
// score.
const titleWeight = 2

// Score computes a bounded [0, MaxScore] similarity between two strings based
// on normalized Levenshtein distance. Comparison is case-insensitive. Empty
// input on either side yields 0, the worst score, never an error.
func Score(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(sim) * MaxScore))
}

// ScoreArtistsTitle combines artist and title similarity into one
// [0, MaxScore] score, title-weighted.
func ScoreArtistsTitle(expected, candidate model.ArtistsTitle) int {
	artists := Score(expected.Artists, candidate.Artists)
	title := Score(expected.Title, candidate.Title)

	score := (artists + titleWeight*title) / (titleWeight + 1)
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
