// Package tokens interns token strings to dense integer ids ("tikis").
package tokens

import (
	"fmt"
	"strings"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
)

// Picker chooses an index in [0, n). Used to break ties between case variants.
type Picker interface {
	IntN(n int) int
}

// Store is an append-only arena of token strings with a reverse index.
//
// Interning is meant for a single writer during a build. Once the build is
// done, the read methods may be called from any number of goroutines.
type Store struct {
	tokens []string
	ids    map[string]int
	folded map[string][]int
}

// New creates an empty token store.
func New() *Store {
	return &Store{
		ids:    make(map[string]int),
		folded: make(map[string][]int),
	}
}

// FromSlice rebuilds a store from a persisted token list. Ids are the slice
// positions.
func FromSlice(tokens []string) *Store {
	s := &Store{
		tokens: make([]string, 0, len(tokens)),
		ids:    make(map[string]int, len(tokens)),
		folded: make(map[string][]int, len(tokens)),
	}
	for _, tok := range tokens {
		s.push(tok)
	}
	return s
}

// Intern returns the id of text, assigning the next sequential id the first
// time an exact string is seen.
func (s *Store) Intern(text string) int {
	if id, ok := s.ids[text]; ok {
		return id
	}
	return s.push(text)
}

func (s *Store) push(text string) int {
	id := len(s.tokens)
	s.tokens = append(s.tokens, text)
	if _, dup := s.ids[text]; !dup {
		s.ids[text] = id
	}
	key := strings.ToLower(text)
	s.folded[key] = append(s.folded[key], id)
	return id
}

// Resolve returns the string for id.
func (s *Store) Resolve(id int) (string, error) {
	if id < 0 || id >= len(s.tokens) {
		return "", fmt.Errorf("token %d: %w", id, internalerr.ErrNotFound)
	}
	return s.tokens[id], nil
}

// Lookup returns the id of an exact string without interning it.
func (s *Store) Lookup(text string) (int, bool) {
	id, ok := s.ids[text]
	return id, ok
}

// FindCI looks text up case-insensitively. When several ids share the same
// lowercase form, one of them is picked at random, so repeated calls may
// return different ids.
func (s *Store) FindCI(text string, p Picker) (int, bool) {
	ids := s.folded[strings.ToLower(text)]
	switch len(ids) {
	case 0:
		return 0, false
	case 1:
		return ids[0], true
	}
	return ids[p.IntN(len(ids))], true
}

// FindAllCI returns every id whose lowercase form equals that of text, in
// ascending order.
func (s *Store) FindAllCI(text string) []int {
	ids := s.folded[strings.ToLower(text)]
	if len(ids) == 0 {
		return nil
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Len returns the number of interned tokens.
func (s *Store) Len() int { return len(s.tokens) }

// All returns a copy of the token arena, indexed by id.
func (s *Store) All() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Clone returns an independent copy that can keep interning without touching s.
func (s *Store) Clone() *Store {
	return FromSlice(s.tokens)
}
