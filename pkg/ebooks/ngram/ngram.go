// Package ngram maps tokens and token pairs to the places in the corpus where
// they are followed by something, which is what the generator splices on.
package ngram

import (
	"sort"
)

// Interim marks the start of a sentence when used as a preceding token and
// the end of a sentence when used as an occurrence position. It is never a
// real token id.
const Interim = -1

// Occurrence points at a sentence and at the position of the token that
// follows the key there, or Interim when the key ends the sentence.
type Occurrence struct {
	Sentence int
	Pos      int
}

// Pair is a bigram key.
type Pair struct {
	Prev int
	Tiki int
}

// Index holds unigram and bigram continuation tables.
//
// An Index is built once and then only read; lookups are safe for concurrent
// use. The returned occurrence slices are shared and must not be modified.
type Index struct {
	unigrams map[int][]Occurrence
	bigrams  map[Pair][]Occurrence
}

// New returns an empty index, ready for AddUnigram/AddBigram.
func New() *Index {
	return &Index{
		unigrams: make(map[int][]Occurrence),
		bigrams:  make(map[Pair][]Occurrence),
	}
}

// Build indexes sentences in a single left-to-right pass. Sentence ids are
// positions in the given slice, so a subset yields a scoped index with
// subset-local ids.
func Build(sentences [][]int) *Index {
	idx := New()
	for i, tikis := range sentences {
		idx.add(i, tikis)
	}
	return idx
}

func (idx *Index) add(id int, tikis []int) {
	last := Interim
	for j, t := range tikis {
		idx.AddUnigram(last, Occurrence{Sentence: id, Pos: j})
		if j == len(tikis)-1 {
			idx.AddUnigram(t, Occurrence{Sentence: id, Pos: Interim})
			idx.AddBigram(Pair{Prev: last, Tiki: t}, Occurrence{Sentence: id, Pos: Interim})
		} else {
			idx.AddBigram(Pair{Prev: last, Tiki: t}, Occurrence{Sentence: id, Pos: j + 1})
		}
		last = t
	}
}

// AddUnigram appends an occurrence under tiki.
func (idx *Index) AddUnigram(tiki int, occ Occurrence) {
	idx.unigrams[tiki] = append(idx.unigrams[tiki], occ)
}

// AddBigram appends an occurrence under the pair.
func (idx *Index) AddBigram(p Pair, occ Occurrence) {
	idx.bigrams[p] = append(idx.bigrams[p], occ)
}

// Unigrams returns what follows tiki anywhere in the corpus.
func (idx *Index) Unigrams(tiki int) []Occurrence {
	return idx.unigrams[tiki]
}

// Bigrams returns what follows the exact pair (prev, tiki).
func (idx *Index) Bigrams(prev, tiki int) []Occurrence {
	return idx.bigrams[Pair{Prev: prev, Tiki: tiki}]
}

// Len returns the number of unigram and bigram keys.
func (idx *Index) Len() (unigrams, bigrams int) {
	return len(idx.unigrams), len(idx.bigrams)
}

// EachUnigram calls fn for every unigram key in ascending order.
func (idx *Index) EachUnigram(fn func(tiki int, occs []Occurrence) error) error {
	keys := make([]int, 0, len(idx.unigrams))
	for k := range idx.unigrams {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if err := fn(k, idx.unigrams[k]); err != nil {
			return err
		}
	}
	return nil
}

// EachBigram calls fn for every bigram key ordered by (Prev, Tiki).
func (idx *Index) EachBigram(fn func(p Pair, occs []Occurrence) error) error {
	keys := make([]Pair, 0, len(idx.bigrams))
	for k := range idx.bigrams {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Prev != keys[j].Prev {
			return keys[i].Prev < keys[j].Prev
		}
		return keys[i].Tiki < keys[j].Tiki
	})
	for _, k := range keys {
		if err := fn(k, idx.bigrams[k]); err != nil {
			return err
		}
	}
	return nil
}
