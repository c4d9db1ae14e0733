package scoring

import (
	"math"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// similarityFeedback is the static feedback attached to deterministic scores.
const similarityFeedback = "Avaliação automática baseada em similaridade textual."

// Weights blends similarity and exact hit into the final deterministic score.
type Weights struct {
	Similarity float64
	Hit        float64
}

// DefaultWeights returns the 0.8 similarity / 0.2 hit blend.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.8, Hit: 0.2}
}

// Scorer is the deterministic edit-distance scorer. The zero value is not
// usable; create one with [NewScorer]. A Scorer is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer using w.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the configured blend.
func (s *Scorer) Weights() Weights { return s.weights }

var defaultScorer = NewScorer(DefaultWeights())

// Traditional scores predicted against expected with the default weights.
func Traditional(expected, predicted string) Result {
	return defaultScorer.Traditional(expected, predicted)
}

// Similarity returns 1 - lev(a, b) / max(|a|, |b|) over the normalized forms
// of expected and predicted, measured in runes. Two empty strings are
// identical.
func Similarity(expected, predicted string) float64 {
	return similarity(Normalize(expected), Normalize(predicted))
}

func similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1
	}
	return 1 - float64(matchr.Levenshtein(a, b))/float64(max(la, lb))
}

// Traditional never fails. Predicted is reported verbatim.
func (s *Scorer) Traditional(expected, predicted string) Result {
	a, b := Normalize(expected), Normalize(predicted)
	sim := similarity(a, b)
	hit := a == b

	var hitVal float64
	if hit {
		hitVal = 1
	}
	score := clamp(round1(100*(s.weights.Similarity*sim+s.weights.Hit*hitVal)), 0, 100)
	simPct := round1(100 * sim)

	return Result{
		Score:       score,
		Similarity:  &simPct,
		Hit:         &hit,
		Match:       hit,
		Predicted:   predicted,
		Feedback:    similarityFeedback,
		Errors:      []string{},
		Suggestions: []string{},
		Highlights:  highlight(a, b),
		Method:      MethodLevenshtein,
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
