// Package generate recombines corpus sentences into new token sequences.
//
// Generation starts from a random sentence and repeatedly replaces the tail
// after some adjacent token pair with the tail of another sentence that
// continues the same pair (bigram mode) or the same token (unigram mode).
// Splices that would rebuild, or be contained in, a sentence already used are
// rejected, which keeps the result from being a verbatim copy.
package generate

import (
	"fmt"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
)

// Mode selects how continuation candidates are looked up.
type Mode int

const (
	// Bigram only splices where the source continues the exact token pair.
	Bigram Mode = iota
	// Unigram splices wherever the source continues the second token.
	Unigram
)

func (m Mode) String() string {
	switch m {
	case Bigram:
		return "bigram"
	case Unigram:
		return "unigram"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Scope is the set of sentences a generation draws from, with the index
// built over exactly those sentences.
type Scope struct {
	Sentences [][]int
	Index     *ngram.Index
}

// NewScope indexes sentences and returns the scope over them.
func NewScope(sentences [][]int) Scope {
	return Scope{Sentences: sentences, Index: ngram.Build(sentences)}
}

// Generator runs the recombination search over one scope. It keeps no state
// between calls and may be shared between goroutines if its Rand is.
type Generator struct {
	scope Scope
	rnd   Rand
}

// New creates a generator. A nil rnd uses Default().
func New(scope Scope, rnd Rand) *Generator {
	if rnd == nil {
		rnd = Default()
	}
	return &Generator{scope: scope, rnd: rnd}
}

type site struct {
	pos  int
	alts []ngram.Occurrence
}

// Generate returns a token sequence after at most passes splices. With
// passes == 0 it returns a copy of the randomly chosen seed sentence.
func (g *Generator) Generate(passes int, mode Mode) ([]int, error) {
	n := len(g.scope.Sentences)
	if n == 0 || g.scope.Index == nil {
		return nil, fmt.Errorf("generate: %w", internalerr.ErrEmptyScope)
	}

	seedID := g.rnd.IntN(n)
	seed := g.scope.Sentences[seedID]
	if len(seed) == 0 {
		return nil, fmt.Errorf("generate: sentence %d is empty: %w", seedID, internalerr.ErrEmptyScope)
	}
	tikis := append([]int(nil), seed...)

	used := map[int]struct{}{seedID: {}}
	verbatim := [][]int{seed}
	seen := map[int]struct{}{seedID: {}}

	for pass := 0; pass < passes; pass++ {
		sites := g.sites(tikis, mode, used)

		var variant []int
		g.rnd.Shuffle(len(sites), func(i, j int) { sites[i], sites[j] = sites[j], sites[i] })
		for _, s := range sites {
			alts := append([]ngram.Occurrence(nil), s.alts...)
			g.rnd.Shuffle(len(alts), func(i, j int) { alts[i], alts[j] = alts[j], alts[i] })

			for _, alt := range alts {
				src := g.scope.Sentences[alt.Sentence]
				if _, ok := seen[alt.Sentence]; !ok {
					seen[alt.Sentence] = struct{}{}
					verbatim = append(verbatim, src)
				}

				potential := make([]int, 0, s.pos+2+len(src)-alt.Pos)
				potential = append(potential, tikis[:s.pos+2]...)
				potential = append(potential, src[alt.Pos:]...)

				if overlapsAny(verbatim, potential) {
					continue
				}
				used[alt.Sentence] = struct{}{}
				variant = potential
				break
			}
			if variant != nil {
				break
			}
		}

		// Nothing new can be found on later passes either.
		if variant == nil {
			break
		}
		tikis = variant
	}

	return tikis, nil
}

func (g *Generator) sites(tikis []int, mode Mode, used map[int]struct{}) []site {
	var sites []site
	for i := 0; i+1 < len(tikis); i++ {
		var candidates []ngram.Occurrence
		if mode == Unigram {
			candidates = g.scope.Index.Unigrams(tikis[i+1])
		} else {
			candidates = g.scope.Index.Bigrams(tikis[i], tikis[i+1])
		}

		var alts []ngram.Occurrence
		for _, c := range candidates {
			if c.Pos == ngram.Interim {
				continue
			}
			if _, ok := used[c.Sentence]; ok {
				continue
			}
			alts = append(alts, c)
		}
		if len(alts) > 0 {
			sites = append(sites, site{pos: i, alts: alts})
		}
	}
	return sites
}

func overlapsAny(verbatim [][]int, potential []int) bool {
	for _, v := range verbatim {
		if nlp.Subseq(v, potential) || nlp.Subseq(potential, v) {
			return true
		}
	}
	return false
}
