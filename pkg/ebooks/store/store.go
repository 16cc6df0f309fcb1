package store

import (
	"context"
	"time"

	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
)

// Store is read access to a published model.
type Store interface {
	Close() error

	Meta(ctx context.Context) (Meta, error)

	// Model tables
	Tokens(ctx context.Context) ([]string, error)
	Sentences(ctx context.Context) ([][]int, error)
	Keywords(ctx context.Context) ([]string, error)

	// Index tables
	Index(ctx context.Context) (*ngram.Index, error)
	Unigrams(ctx context.Context, tiki int) ([]ngram.Occurrence, error)
	Bigrams(ctx context.Context, prev, tiki int) ([]ngram.Occurrence, error)

	SentencesContaining(ctx context.Context, tiki int) ([]int, error)
}

// Meta describes a published model build.
type Meta struct {
	BuildID   string
	CreatedAt time.Time
	Tokens    int
	Sentences int
}

// Snapshot is everything needed to publish a model. The index is derived
// from Sentences.
type Snapshot struct {
	BuildID   string
	Tokens    []string
	Sentences [][]int
	Keywords  []string
	Index     *ngram.Index
}
