package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/store"
	"github.com/cognicore/ebooks/pkg/ebooks/store/sqlite"
	"github.com/cognicore/ebooks/pkg/ebooks/tokens"
)

func main() {
	var (
		modelPath = flag.String("model", "model.db", "Model path")
		token     = flag.String("token", "", "Look up a token case-insensitively")
		next      = flag.String("next", "", "With -token, show bigram rows for the pair (token, next)")
		keywords  = flag.Int("keywords", 20, "Number of keywords to print")
		examples  = flag.Int("examples", 5, "Example sentences to print per token")
	)
	flag.Parse()

	ctx := context.Background()
	st, err := sqlite.Open(ctx, *modelPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	in := inspector{Store: st, Out: os.Stdout, Examples: *examples}
	if err := in.summary(ctx, *keywords); err != nil {
		log.Fatal(err)
	}
	if *token != "" {
		if err := in.lookup(ctx, *token, *next); err != nil {
			log.Fatal(err)
		}
	}
}

type inspector struct {
	Store    store.Store
	Out      io.Writer
	Examples int

	vocab     *tokens.Store
	sentences [][]int
}

func (in *inspector) summary(ctx context.Context, n int) error {
	meta, err := in.Store.Meta(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(in.Out, "Build:     %s (%s)\n", meta.BuildID, meta.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(in.Out, "Tokens:    %d\n", meta.Tokens)
	fmt.Fprintf(in.Out, "Sentences: %d\n", meta.Sentences)

	kws, err := in.Store.Keywords(ctx)
	if err != nil {
		return err
	}
	if n > len(kws) {
		n = len(kws)
	}
	if n > 0 {
		fmt.Fprintf(in.Out, "Keywords:  %s\n", strings.Join(kws[:n], ", "))
	}
	return nil
}

func (in *inspector) load(ctx context.Context) error {
	if in.vocab != nil {
		return nil
	}
	toks, err := in.Store.Tokens(ctx)
	if err != nil {
		return err
	}
	sents, err := in.Store.Sentences(ctx)
	if err != nil {
		return err
	}
	in.vocab = tokens.FromSlice(toks)
	in.sentences = sents
	return nil
}

func (in *inspector) lookup(ctx context.Context, text, next string) error {
	if err := in.load(ctx); err != nil {
		return err
	}

	ids := in.vocab.FindAllCI(text)
	if len(ids) == 0 {
		fmt.Fprintf(in.Out, "\n%q is not in the model\n", text)
		return nil
	}
	nextIDs := in.vocab.FindAllCI(next)

	for _, id := range ids {
		tok, _ := in.vocab.Resolve(id)
		containing, err := in.Store.SentencesContaining(ctx, id)
		if err != nil {
			return err
		}
		unigrams, err := in.Store.Unigrams(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(in.Out, "\nToken %d %q: %d sentences, %d unigram continuations\n",
			id, tok, len(containing), len(unigrams))

		for i, sid := range containing {
			if i >= in.Examples {
				break
			}
			fmt.Fprintf(in.Out, "  [%d] %s\n", sid, in.render(sid))
		}

		for _, nid := range nextIDs {
			rows, err := in.Store.Bigrams(ctx, id, nid)
			if err != nil {
				return err
			}
			nextTok, _ := in.vocab.Resolve(nid)
			fmt.Fprintf(in.Out, "  bigram (%q, %q): %s\n", tok, nextTok, formatOccurrences(rows))
		}
	}
	return nil
}

func (in *inspector) render(sid int) string {
	if sid < 0 || sid >= len(in.sentences) {
		return "?"
	}
	words := make([]string, 0, len(in.sentences[sid]))
	for _, t := range in.sentences[sid] {
		w, err := in.vocab.Resolve(t)
		if err != nil {
			w = "?"
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func formatOccurrences(occs []ngram.Occurrence) string {
	if len(occs) == 0 {
		return "none"
	}
	parts := make([]string, len(occs))
	for i, o := range occs {
		if o.Pos == ngram.Interim {
			parts[i] = fmt.Sprintf("%d:end", o.Sentence)
		} else {
			parts[i] = fmt.Sprintf("%d:%d", o.Sentence, o.Pos)
		}
	}
	return strings.Join(parts, " ")
}
