package compose

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/cognicore/ebooks/pkg/ebooks/generate"
	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
	"github.com/cognicore/ebooks/pkg/ebooks/sentences"
	"github.com/cognicore/ebooks/pkg/ebooks/tokens"
)

type fixture struct {
	tokens    *tokens.Store
	sentences *sentences.Store
	lang      *nlp.English
}

func newFixture(lines ...string) *fixture {
	f := &fixture{tokens: tokens.New(), sentences: sentences.New(), lang: nlp.NewEnglish(nil)}
	for _, line := range lines {
		var tikis []int
		for _, tok := range f.lang.Tokenize(line) {
			tikis = append(tikis, f.tokens.Intern(tok))
		}
		f.sentences.Add(tikis)
	}
	return f
}

func (f *fixture) composer(seed uint64) *Composer {
	return &Composer{
		Tokens:   f.tokens,
		Verbatim: f.sentences,
		Text:     f.lang,
		Rand:     generate.NewSeeded(seed),
	}
}

func (f *fixture) scope() generate.Scope {
	return generate.NewScope(f.sentences.All())
}

var corpus = []string{
	"the cat sat on the warm mat today",
	"a dog sat on the cold rug yesterday",
	"my bird sat on the tall fence again",
	"the cat likes the cold rug a lot",
	"every dog likes the warm mat at night",
}

func TestComposeRespectsLimit(t *testing.T) {
	f := newFixture(corpus...)
	const limit = 40
	for seed := uint64(0); seed < 100; seed++ {
		res, err := f.composer(seed).Compose(limit, f.scope(), false)
		if err != nil {
			t.Fatal(err)
		}
		if res.Exhausted {
			continue
		}
		if n := utf8.RuneCountInString(res.Text); n > limit {
			t.Fatalf("seed %d: %q has %d chars, limit %d", seed, res.Text, n, limit)
		}
		if res.Text == "" {
			t.Fatalf("seed %d: empty text", seed)
		}
	}
}

func TestComposeAvoidsVerbatim(t *testing.T) {
	f := newFixture(corpus...)
	for seed := uint64(0); seed < 100; seed++ {
		res, err := f.composer(seed).Compose(500, f.scope(), false)
		if err != nil {
			t.Fatal(err)
		}
		if res.Exhausted || len(res.Tikis) <= 3 {
			continue
		}
		if f.sentences.ContainsExact(res.Tikis) {
			t.Fatalf("seed %d: verbatim corpus sentence %q", seed, res.Text)
		}
	}
}

func TestComposeExhaustedStillReturnsText(t *testing.T) {
	f := newFixture(corpus...)
	c := f.composer(1)
	c.RetryLimit = 4

	res, err := c.Compose(1, f.scope(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Exhausted {
		t.Fatal("a 1-char limit cannot be met; result should be exhausted")
	}
	if res.Retries < 4 {
		t.Errorf("Retries = %d, want at least 4", res.Retries)
	}
	if res.Text == "" {
		t.Error("exhausted composition should still return the last candidate")
	}
}

func TestComposeShortTextNeedsResponding(t *testing.T) {
	f := newFixture("hi there")

	res, err := f.composer(0).Compose(100, f.scope(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Exhausted {
		t.Error("a two-token statement should never be accepted")
	}

	res, err = f.composer(0).Compose(100, f.scope(), true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Exhausted || res.Text != "hi there" {
		t.Errorf("reply = %+v", res)
	}
}

func TestComposeEmptyScope(t *testing.T) {
	f := newFixture()
	_, err := f.composer(0).Compose(100, f.scope(), false)
	if !errors.Is(err, internalerr.ErrEmptyScope) {
		t.Fatalf("err = %v, want ErrEmptyScope", err)
	}
}

func TestReconstructSpacingAndEntities(t *testing.T) {
	f := newFixture("fish &amp; chips , please !")
	res, err := f.composer(0).Compose(100, f.scope(), true)
	if err != nil {
		t.Fatal(err)
	}
	if want := "fish & chips, please!"; res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestComposeRejectsUnmatchedEnclosers(t *testing.T) {
	f := newFixture(`he said "hello there and left`, "she said hello there and stayed")
	for seed := uint64(0); seed < 50; seed++ {
		res, err := f.composer(seed).Compose(500, f.scope(), false)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Exhausted && f.lang.UnmatchedEnclosers(res.Text) {
			t.Fatalf("seed %d: accepted %q", seed, res.Text)
		}
	}
}

func TestComposeReportsMissingTokens(t *testing.T) {
	f := newFixture("the cat sat on the mat")
	c := f.composer(0)
	c.Tokens = tokens.FromSlice(f.tokens.All()[:2])

	_, err := c.Compose(100, f.scope(), true)
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for a truncated vocabulary", err)
	}
}
