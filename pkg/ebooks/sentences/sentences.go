// Package sentences holds the ordered log of training sentences, each stored
// as a sequence of token ids.
package sentences

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
)

// Store is the sentence log plus two derived lookups: exact-sequence
// membership and token containment.
type Store struct {
	sentences [][]int
	exact     map[string]struct{}
	byToken   map[int][]int
}

// New creates an empty store.
func New() *Store {
	return &Store{
		exact:   make(map[string]struct{}),
		byToken: make(map[int][]int),
	}
}

// FromSlice rebuilds a store from a persisted log. Empty entries are skipped,
// so ids stay dense only when the log holds no empty sentences.
func FromSlice(log [][]int) *Store {
	s := New()
	s.sentences = make([][]int, 0, len(log))
	for _, tikis := range log {
		s.Add(tikis)
	}
	return s
}

// Add appends a sentence and returns its id. Empty sentences are not stored.
func (s *Store) Add(tikis []int) (int, bool) {
	if len(tikis) == 0 {
		return 0, false
	}
	id := len(s.sentences)
	own := make([]int, len(tikis))
	copy(own, tikis)
	s.sentences = append(s.sentences, own)
	s.exact[Encode(own)] = struct{}{}

	seen := make(map[int]struct{}, len(own))
	for _, t := range own {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		s.byToken[t] = append(s.byToken[t], id)
	}
	return id, true
}

// Get returns the sentence with the given id. The returned slice must not be
// modified.
func (s *Store) Get(id int) ([]int, error) {
	if id < 0 || id >= len(s.sentences) {
		return nil, fmt.Errorf("sentence %d: %w", id, internalerr.ErrNotFound)
	}
	return s.sentences[id], nil
}

// Count returns the number of stored sentences.
func (s *Store) Count() int { return len(s.sentences) }

// All returns the sentence log. The slices are shared and must not be modified.
func (s *Store) All() [][]int { return s.sentences }

// ContainsExact reports whether some stored sentence equals tikis exactly.
func (s *Store) ContainsExact(tikis []int) bool {
	if len(tikis) == 0 {
		return false
	}
	_, ok := s.exact[Encode(tikis)]
	return ok
}

// Containing returns the ids of every sentence that contains tiki, once per
// sentence, in ascending order.
func (s *Store) Containing(tiki int) []int {
	ids := s.byToken[tiki]
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	return FromSlice(s.sentences)
}

// Encode renders tikis in the delimited form "|1|2|3|".
func Encode(tikis []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for _, t := range tikis {
		b.WriteString(strconv.Itoa(t))
		b.WriteByte('|')
	}
	return b.String()
}

// Decode parses the delimited form produced by Encode.
func Decode(s string) ([]int, error) {
	if len(s) < 2 || s[0] != '|' || s[len(s)-1] != '|' {
		return nil, fmt.Errorf("decode sentence %q: %w", s, internalerr.ErrInvalidInput)
	}
	parts := strings.Split(s[1:len(s)-1], "|")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("decode sentence %q: %w", s, internalerr.ErrInvalidInput)
		}
		out = append(out, n)
	}
	return out, nil
}
