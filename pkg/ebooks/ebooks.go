// Package ebooks is the generative model engine: it ingests a corpus into a
// token-interned sentence log with an n-gram index, and recombines that log
// into new statements and replies.
package ebooks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cognicore/ebooks/internal/corpus"
	"github.com/cognicore/ebooks/pkg/ebooks/compose"
	"github.com/cognicore/ebooks/pkg/ebooks/generate"
	"github.com/cognicore/ebooks/pkg/ebooks/keywords"
	"github.com/cognicore/ebooks/pkg/ebooks/metrics"
	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
	"github.com/cognicore/ebooks/pkg/ebooks/relevance"
	"github.com/cognicore/ebooks/pkg/ebooks/sentences"
	"github.com/cognicore/ebooks/pkg/ebooks/store"
	"github.com/cognicore/ebooks/pkg/ebooks/tokens"
)

// Bot is the capability the service layer calls to post and reply.
type Bot interface {
	Statement(limit int) (compose.Result, error)
	Reply(input string, limit int) (compose.Result, error)
}

var _ Bot = (*Model)(nil)

// Reply scopes, as reported to metrics.
const (
	ScopeRelevant         = "relevant"
	ScopeSlightlyRelevant = "slightly_relevant"
	ScopeCorpus           = "corpus"
)

// Options configures model construction and generation.
type Options struct {
	// Language supplies the text primitives. Nil uses nlp.NewEnglish(nil).
	Language nlp.Language
	// Rand drives generation. Nil uses generate.Default().
	Rand       generate.Rand
	RetryLimit int
	Passes     int
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	// Concurrency bounds parallel corpus decoding during Ingest and Append.
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.Language == nil {
		o.Language = nlp.NewEnglish(nil)
	}
	if o.Rand == nil {
		o.Rand = generate.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Model is a built or loaded model. It is never modified after construction
// and is safe for concurrent Statement and Reply calls.
type Model struct {
	buildID   string
	tokens    *tokens.Store
	sentences *sentences.Store
	keywords  []string
	index     *ngram.Index

	opts     Options
	composer *compose.Composer
	finder   *relevance.Finder
}

func newModel(buildID string, toks *tokens.Store, sents *sentences.Store, kws []string, idx *ngram.Index, opts Options) *Model {
	m := &Model{
		buildID:   buildID,
		tokens:    toks,
		sentences: sents,
		keywords:  kws,
		index:     idx,
		opts:      opts,
	}
	m.composer = &compose.Composer{
		Tokens:     toks,
		Verbatim:   sents,
		Text:       opts.Language,
		Rand:       opts.Rand,
		RetryLimit: opts.RetryLimit,
		Passes:     opts.Passes,
		Metrics:    opts.Metrics,
		Logger:     opts.Logger.With("stage", "compose"),
	}
	m.finder = &relevance.Finder{
		Vocab:     toks,
		Sentences: sents,
		Words:     opts.Language,
	}
	opts.Metrics.SetModelSize(toks.Len(), sents.Count())
	return m
}

// Ingest reads the corpus files at paths and builds a model from them.
func Ingest(ctx context.Context, paths []string, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	lines, err := readSources(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	return IngestLines(lines, opts), nil
}

// IngestLines builds a model from raw corpus lines.
func IngestLines(lines []string, opts Options) *Model {
	opts = opts.withDefaults()
	toks := tokens.New()
	sents := sentences.New()
	kws := consume(lines, toks, sents, opts)
	return newModel("", toks, sents, kws, ngram.Build(sents.All()), opts)
}

// Append builds a new model holding base's sentences followed by those read
// from paths. Tokens are interned into a copy of base's vocabulary, the
// keyword lists are merged with the new ranking first, and the index is
// rebuilt over the combined log. base is left unchanged.
func Append(ctx context.Context, base *Model, paths []string) (*Model, error) {
	opts := base.opts
	lines, err := readSources(ctx, paths, opts)
	if err != nil {
		return nil, err
	}

	toks := base.tokens.Clone()
	sents := base.sentences.Clone()
	fresh := consume(lines, toks, sents, opts)
	kws := keywords.Merge(keywords.DefaultLimit, fresh, base.keywords)

	opts.Logger.Info("appended corpus",
		"base_sentences", base.sentences.Count(), "sentences", sents.Count(), "tokens", toks.Len())
	return newModel("", toks, sents, kws, ngram.Build(sents.All()), opts), nil
}

func readSources(ctx context.Context, paths []string, opts Options) ([]string, error) {
	r := &corpus.Reader{
		Logger:      opts.Logger.With("stage", "corpus"),
		Concurrency: opts.Concurrency,
	}
	lines, err := r.ReadAll(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return lines, nil
}

// consume tokenizes lines into toks and sents and returns the keyword ranking
// of the text.
func consume(lines []string, toks *tokens.Store, sents *sentences.Store, opts Options) []string {
	lang := opts.Language
	log := opts.Logger

	statements := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(l, "#") {
			continue
		}
		statements = append(statements, lang.Normalize(l))
	}
	text := strings.ToValidUTF8(strings.Join(statements, "\n"), "\uFFFD")
	log.Info("tokenizing statements", "statements", len(statements))

	added := 0
	for _, s := range lang.Sentences(text) {
		tikis := tikify(toks, lang.Tokenize(s))
		if _, ok := sents.Add(tikis); ok {
			added++
		}
	}

	kws := keywords.Top(lang, text, keywords.DefaultLimit)
	log.Info("ranked keywords", "sentences", added, "tokens", toks.Len(), "top", head(kws, 3))
	return kws
}

func tikify(toks *tokens.Store, words []string) []int {
	tikis := make([]int, 0, len(words))
	for _, w := range words {
		if (strings.Contains(w, "@") && len(w) > 1) || strings.Contains(w, "http") {
			continue
		}
		tikis = append(tikis, toks.Intern(w))
	}
	return tikis
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// Open loads a published model. The persisted index is used when present and
// rebuilt from the sentence log otherwise.
func Open(ctx context.Context, st store.Store, opts Options) (*Model, error) {
	opts = opts.withDefaults()

	meta, err := st.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	toks, err := st.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}
	sents, err := st.Sentences(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sentences: %w", err)
	}
	kws, err := st.Keywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	idx, err := st.Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	if unigrams, bigrams := idx.Len(); unigrams == 0 && bigrams == 0 && len(sents) > 0 {
		opts.Logger.Info("rebuilding index", "build_id", meta.BuildID, "sentences", len(sents))
		idx = ngram.Build(sents)
	}

	opts.Logger.Info("model loaded", "build_id", meta.BuildID, "tokens", len(toks), "sentences", len(sents))
	return newModel(meta.BuildID, tokens.FromSlice(toks), sentences.FromSlice(sents), kws, idx, opts), nil
}

// Snapshot exports the model for publishing.
func (m *Model) Snapshot() store.Snapshot {
	return store.Snapshot{
		BuildID:   m.buildID,
		Tokens:    m.tokens.All(),
		Sentences: m.sentences.All(),
		Keywords:  append([]string(nil), m.keywords...),
		Index:     m.index,
	}
}

// Statement composes text of at most limit characters from the whole corpus.
func (m *Model) Statement(limit int) (compose.Result, error) {
	return m.composer.Compose(limit, m.corpusScope(), false)
}

// Reply composes a response to input of at most limit characters. It draws
// on the sentences sharing words with input when there are enough of them,
// and on the whole corpus otherwise.
func (m *Model) Reply(input string, limit int) (compose.Result, error) {
	relevant, slightly := m.finder.Find(input)

	var ids []int
	scopeName := ScopeCorpus
	switch {
	case len(relevant) >= relevance.MinRelevant:
		ids, scopeName = relevant, ScopeRelevant
	case len(slightly) >= relevance.MinSlightlyRelevant:
		ids, scopeName = slightly, ScopeSlightlyRelevant
	}
	m.opts.Metrics.ObserveReplyScope(scopeName)
	m.opts.Logger.Debug("reply scope", "scope", scopeName,
		"relevant", len(relevant), "slightly_relevant", len(slightly))

	scope := m.corpusScope()
	if ids != nil {
		var err error
		scope, err = m.finder.Scope(ids)
		if err != nil {
			return compose.Result{}, fmt.Errorf("reply scope: %w", err)
		}
	}
	return m.composer.Compose(limit, scope, true)
}

func (m *Model) corpusScope() generate.Scope {
	return generate.Scope{Sentences: m.sentences.All(), Index: m.index}
}

// BuildID returns the id of the published build the model was loaded from,
// or "" for a model that has not been published.
func (m *Model) BuildID() string { return m.buildID }

// Keywords returns the model's keywords, most important first.
func (m *Model) Keywords() []string {
	return append([]string(nil), m.keywords...)
}

// Stats summarizes a model.
type Stats struct {
	BuildID   string
	Tokens    int
	Sentences int
	Keywords  int
	Unigrams  int
	Bigrams   int
}

// Stats returns the model's sizes.
func (m *Model) Stats() Stats {
	unigrams, bigrams := m.index.Len()
	return Stats{
		BuildID:   m.buildID,
		Tokens:    m.tokens.Len(),
		Sentences: m.sentences.Count(),
		Keywords:  len(m.keywords),
		Unigrams:  unigrams,
		Bigrams:   bigrams,
	}
}
