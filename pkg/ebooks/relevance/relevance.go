// Package relevance picks the training sentences that share words with an
// input text, so replies can be generated from related material.
package relevance

import (
	"sort"
	"strings"

	"github.com/cognicore/ebooks/pkg/ebooks/generate"
)

// Reply scope thresholds.
const (
	MinRelevant         = 3
	MinSlightlyRelevant = 5
)

// Vocabulary finds token ids case-insensitively.
type Vocabulary interface {
	FindAllCI(text string) []int
}

// Corpus answers token containment queries over the sentence log.
type Corpus interface {
	Containing(tiki int) []int
	Get(id int) ([]int, error)
}

// Words splits input and classifies stopwords.
type Words interface {
	Tokenize(text string) []string
	IsStopword(token string) bool
}

// Finder classifies sentences by word overlap with an input.
type Finder struct {
	Vocab     Vocabulary
	Sentences Corpus
	Words     Words
}

// Find returns the ids of sentences sharing a non-stopword with input
// (relevant) and sharing any word with it (slightly relevant).
//
// A sentence is listed once for every query token it contains, so both lists
// may hold repeats; the repeats count toward the reply thresholds.
func (f *Finder) Find(input string) (relevant, slightlyRelevant []int) {
	type query struct {
		stop bool
		hits map[int]struct{}
	}

	var queries []query
	candidates := make(map[int]struct{})
	for _, tok := range f.Words.Tokenize(input) {
		tok = strings.ToLower(tok)
		q := query{stop: f.Words.IsStopword(tok), hits: make(map[int]struct{})}
		for _, id := range f.Vocab.FindAllCI(tok) {
			for _, sid := range f.Sentences.Containing(id) {
				q.hits[sid] = struct{}{}
				candidates[sid] = struct{}{}
			}
		}
		if len(q.hits) > 0 {
			queries = append(queries, q)
		}
	}

	order := make([]int, 0, len(candidates))
	for sid := range candidates {
		order = append(order, sid)
	}
	sort.Ints(order)

	for _, sid := range order {
		for _, q := range queries {
			if _, ok := q.hits[sid]; !ok {
				continue
			}
			if !q.stop {
				relevant = append(relevant, sid)
			}
			slightlyRelevant = append(slightlyRelevant, sid)
		}
	}
	return relevant, slightlyRelevant
}

// Scope indexes the listed sentences, repeats included, into a transient
// generation scope with its own sentence ids.
func (f *Finder) Scope(ids []int) (generate.Scope, error) {
	subset := make([][]int, 0, len(ids))
	for _, id := range ids {
		s, err := f.Sentences.Get(id)
		if err != nil {
			return generate.Scope{}, err
		}
		subset = append(subset, s)
	}
	return generate.NewScope(subset), nil
}
