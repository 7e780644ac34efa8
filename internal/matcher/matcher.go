// Package matcher ranks candidates against a free-text query using strict
// approximate substring matching.
//
// Each configured key is scored independently. A key's score is the edit
// distance between the query and the closest window of the key's text,
// divided by the query length, plus a location penalty of offset/Distance.
// A key matches when its score does not exceed the threshold; a candidate
// matches when any key does. Candidate scores are the weighted product of the
// matched key scores, so candidates matching several keys rank first. Each key
// score is raised to weight/sqrt(words in the field), so among equal matches
// the shorter field ranks first.
package matcher

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/gcbaptista/candidate-search/config"
	internalErrors "github.com/gcbaptista/candidate-search/internal/errors"
	"github.com/gcbaptista/candidate-search/internal/tokenizer"
	"github.com/gcbaptista/candidate-search/model"
)

// epsilon stands in for a perfect key score so that the weighted product
// still distinguishes candidates matching more keys.
const epsilon = 2.220446049250313e-16

// Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	keys           []config.SearchKey
	threshold      float64
	distance       int
	minQueryLength int
	fold           tokenizer.FoldOptions
}

// New creates a matcher from settings; unset values take their defaults.
func New(settings config.MatcherSettings) (*Matcher, error) {
	settings.ApplyDefaults()
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, internalErrors.NewValidationError("matcher", strings.Join(problems, "; "))
	}

	keys := make([]config.SearchKey, len(settings.Keys))
	copy(keys, settings.Keys)

	return &Matcher{
		keys:           keys,
		threshold:      settings.ThresholdValue(),
		distance:       settings.Distance,
		minQueryLength: settings.MinQueryLength,
		fold: tokenizer.FoldOptions{
			CaseSensitive:    settings.CaseSensitive,
			IgnoreDiacritics: settings.IgnoreDiacritics,
		},
	}, nil
}

// MinQueryLength returns the shortest query, in runes, that is matched.
func (m *Matcher) MinQueryLength() int {
	return m.minQueryLength
}

// IsSearchable reports whether query is long enough to be matched at all.
func (m *Matcher) IsSearchable(query string) bool {
	return utf8.RuneCountInString(query) >= m.minQueryLength
}

type scoredHit struct {
	index int
	score float64
}

// Search returns the candidates of corpus matching query, best first. Ties
// keep corpus order. Queries shorter than the minimum length return an empty
// slice without looking at the corpus.
func (m *Matcher) Search(corpus []model.Candidate, query string) []model.MatchResult {
	results := make([]model.MatchResult, 0)
	if !m.IsSearchable(query) {
		return results
	}

	pattern := tokenizer.Fold(query, m.fold)
	patternLen := utf8.RuneCountInString(pattern)
	if patternLen == 0 {
		return results
	}

	hits := make([]scoredHit, 0)
	for i := range corpus {
		if score, ok := m.scoreCandidate(corpus[i], pattern, patternLen); ok {
			hits = append(hits, scoredHit{index: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score < hits[b].score
	})

	for rank, hit := range hits {
		results = append(results, model.MatchResult{
			Candidate:   corpus[hit.index],
			Rank:        rank,
			CorpusIndex: hit.index,
		})
	}
	return results
}

// scoreCandidate combines the scores of every matching key.
func (m *Matcher) scoreCandidate(c model.Candidate, pattern string, patternLen int) (float64, bool) {
	total := 1.0
	matched := false

	for _, key := range m.keys {
		value, _ := c.Field(key.Field)
		if value == "" {
			continue
		}
		folded := tokenizer.Fold(value, m.fold)
		score, ok := m.scoreField(pattern, patternLen, []rune(folded))
		if !ok {
			continue
		}
		matched = true
		total *= math.Pow(math.Max(score, epsilon), key.Weight*fieldNorm(folded))
	}
	return total, matched
}

// fieldNorm is 1/sqrt(number of space separated words), rounded to three
// decimals.
func fieldNorm(text string) float64 {
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	return math.Round(1000/math.Sqrt(float64(words))) / 1000
}

// scoreField returns the best score of pattern against any window of text.
// Only windows within the allowed error budget and location range are tried.
func (m *Matcher) scoreField(pattern string, patternLen int, text []rune) (float64, bool) {
	maxErrors := int(m.threshold * float64(patternLen))
	maxOffset := int(m.threshold * float64(m.distance))
	minWidth := patternLen - maxErrors
	if minWidth < 1 {
		minWidth = 1
	}

	best := math.Inf(1)
	for start := 0; start <= maxOffset && start+minWidth <= len(text); start++ {
		penalty := float64(start) / float64(m.distance)
		for width := minWidth; width <= patternLen+maxErrors && start+width <= len(text); width++ {
			errors := fuzzy.LevenshteinDistance(pattern, string(text[start:start+width]))
			if errors > maxErrors {
				continue
			}
			score := float64(errors)/float64(patternLen) + penalty
			if score < best {
				best = score
			}
		}
		if best == 0 {
			break
		}
	}
	return best, best <= m.threshold
}
