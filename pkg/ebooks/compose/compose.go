// Package compose turns generated token sequences into bounded-length text,
// retrying until a candidate fits or the retry budget is spent.
package compose

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/ebooks/pkg/ebooks/generate"
	"github.com/cognicore/ebooks/pkg/ebooks/metrics"
)

const (
	DefaultRetryLimit = 10
	DefaultPasses     = 3
	// minLength is the token count a statement must exceed to be accepted
	// on its own merits; replies are exempt.
	minLength = 3
)

// Resolver maps token ids back to strings.
type Resolver interface {
	Resolve(id int) (string, error)
}

// VerbatimChecker reports whether a sequence is an exact training sentence.
type VerbatimChecker interface {
	ContainsExact(tikis []int) bool
}

// Text holds the rules for turning tokens into text and judging the result.
type Text interface {
	SpaceBetween(prev, next string) bool
	UnmatchedEnclosers(text string) bool
	DecodeEntities(text string) string
}

// Result is a composed text. Exhausted is set when the retry budget ran out
// and Text is the last candidate rather than one that met every constraint.
type Result struct {
	Text      string
	Tikis     []int
	Exhausted bool
	Retries   int
	Mode      generate.Mode
}

// Composer produces statements from a generation scope.
type Composer struct {
	Tokens     Resolver
	Verbatim   VerbatimChecker
	Text       Text
	Rand       generate.Rand
	RetryLimit int
	Passes     int
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Compose generates text of at most limit characters from scope. When
// responding is set, short candidates are acceptable. Compose only fails when
// the scope cannot be generated from at all.
func (c *Composer) Compose(limit int, scope generate.Scope, responding bool) (Result, error) {
	retryLimit := c.RetryLimit
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}
	passes := c.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}
	gen := generate.New(scope, c.Rand)

	retries := 0
	mode := generate.Bigram
	var tikis []int
	for {
		var err error
		tikis, err = gen.Generate(passes, mode)
		if err != nil {
			return Result{}, fmt.Errorf("compose: %w", err)
		}
		ok, err := c.valid(tikis, limit)
		if err != nil {
			return Result{}, err
		}
		if (len(tikis) > minLength || responding) && ok {
			break
		}
		retries++
		if retries >= retryLimit {
			break
		}
	}

	// An accidental copy of a training sentence: unigram lookups reach
	// further and usually get away from it.
	if len(tikis) > minLength && c.Verbatim.ContainsExact(tikis) {
		mode = generate.Unigram
		for {
			var err error
			tikis, err = gen.Generate(passes, mode)
			if err != nil {
				return Result{}, fmt.Errorf("compose: %w", err)
			}
			ok, err := c.valid(tikis, limit)
			if err != nil {
				return Result{}, err
			}
			if ok && !c.Verbatim.ContainsExact(tikis) {
				break
			}
			retries++
			if retries >= retryLimit {
				break
			}
		}
	}

	text, err := c.reconstruct(tikis)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Text:      c.Text.DecodeEntities(text),
		Tikis:     tikis,
		Exhausted: retries >= retryLimit,
		Retries:   retries,
		Mode:      mode,
	}

	kind := "statement"
	if responding {
		kind = "reply"
	}
	if res.Exhausted {
		c.logger().Warn("unable to produce valid non-verbatim text",
			"kind", kind, "retries", retries, "text", res.Text)
	}
	c.Metrics.ObserveComposition(kind, res.Exhausted, retries)
	return res, nil
}

func (c *Composer) valid(tikis []int, limit int) (bool, error) {
	text, err := c.reconstruct(tikis)
	if err != nil {
		return false, err
	}
	return utf8.RuneCountInString(text) <= limit && !c.Text.UnmatchedEnclosers(text), nil
}

// reconstruct joins the tokens of tikis into text. An id missing from the
// vocabulary means the model is corrupt and is reported as an error.
func (c *Composer) reconstruct(tikis []int) (string, error) {
	var b strings.Builder
	last := ""
	for _, t := range tikis {
		tok, err := c.Tokens.Resolve(t)
		if err != nil {
			return "", fmt.Errorf("compose: %w", err)
		}
		if last != "" && c.Text.SpaceBetween(last, tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		last = tok
	}
	return b.String(), nil
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
