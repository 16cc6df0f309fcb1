package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/sentences"
	"github.com/cognicore/ebooks/pkg/ebooks/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	meta    store.Meta
	snap    store.Snapshot
	byToken *sentences.Store
	closed  bool
}

// New creates a store serving snap. A nil snap.Index is left unset so that
// callers exercise the rebuild path; use Build for a fully indexed store.
func New(snap store.Snapshot) *Store {
	return &Store{
		meta: store.Meta{
			BuildID:   snap.BuildID,
			CreatedAt: time.Now().UTC(),
			Tokens:    len(snap.Tokens),
			Sentences: len(snap.Sentences),
		},
		snap:    snap,
		byToken: sentences.FromSlice(snap.Sentences),
	}
}

// Build creates a store with an index derived from snap.Sentences.
func Build(snap store.Snapshot) *Store {
	if snap.Index == nil {
		snap.Index = ngram.Build(snap.Sentences)
	}
	return New(snap)
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Meta implements store.Store.
func (s *Store) Meta(ctx context.Context) (store.Meta, error) {
	return s.meta, nil
}

// Tokens implements store.Store.
func (s *Store) Tokens(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.snap.Tokens...), nil
}

// Sentences implements store.Store.
func (s *Store) Sentences(ctx context.Context) ([][]int, error) {
	out := make([][]int, len(s.snap.Sentences))
	for i, tikis := range s.snap.Sentences {
		out[i] = append([]int(nil), tikis...)
	}
	return out, nil
}

// Keywords implements store.Store.
func (s *Store) Keywords(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.snap.Keywords...), nil
}

// Index returns the snapshot's index, or an empty one when none was given.
func (s *Store) Index(ctx context.Context) (*ngram.Index, error) {
	if s.snap.Index == nil {
		return ngram.New(), nil
	}
	return s.snap.Index, nil
}

// Unigrams implements store.Store.
func (s *Store) Unigrams(ctx context.Context, tiki int) ([]ngram.Occurrence, error) {
	idx, _ := s.Index(ctx)
	return idx.Unigrams(tiki), nil
}

// Bigrams implements store.Store.
func (s *Store) Bigrams(ctx context.Context, prev, tiki int) ([]ngram.Occurrence, error) {
	idx, _ := s.Index(ctx)
	return idx.Bigrams(prev, tiki), nil
}

// SentencesContaining implements store.Store.
func (s *Store) SentencesContaining(ctx context.Context, tiki int) ([]int, error) {
	return s.byToken.Containing(tiki), nil
}
