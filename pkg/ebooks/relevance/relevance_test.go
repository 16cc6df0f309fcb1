package relevance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
	"github.com/cognicore/ebooks/pkg/ebooks/sentences"
	"github.com/cognicore/ebooks/pkg/ebooks/tokens"
)

func newFinder(lines ...string) *Finder {
	lang := nlp.NewEnglish(nlp.NewStoplist([]string{"the", "on", "and", "are"}))
	toks := tokens.New()
	sents := sentences.New()
	for _, line := range lines {
		var tikis []int
		for _, w := range lang.Tokenize(line) {
			tikis = append(tikis, toks.Intern(w))
		}
		sents.Add(tikis)
	}
	return &Finder{Vocab: toks, Sentences: sents, Words: lang}
}

func TestFindThresholdExample(t *testing.T) {
	f := newFinder(
		"the cat sat on the mat",
		"the dog sat on the rug",
		"cats and dogs are friends",
	)
	relevant, slightly := f.Find("tell me about the cat")

	if !reflect.DeepEqual(relevant, []int{0}) {
		t.Errorf("relevant = %v, want [0]", relevant)
	}
	// Sentence 0 matches both "the" and "cat"; sentence 1 only "the".
	if !reflect.DeepEqual(slightly, []int{0, 0, 1}) {
		t.Errorf("slightly relevant = %v, want [0 0 1]", slightly)
	}
	if len(relevant) >= MinRelevant || len(slightly) >= MinSlightlyRelevant {
		t.Error("example should fall below both reply thresholds")
	}
}

func TestFindIsCaseInsensitive(t *testing.T) {
	f := newFinder("Cats rule", "CATS drool", "dogs rule")
	relevant, _ := f.Find("cats")
	if !reflect.DeepEqual(relevant, []int{0, 1}) {
		t.Errorf("relevant = %v, want [0 1]", relevant)
	}
}

func TestFindCountsRepeatedHits(t *testing.T) {
	f := newFinder("red fish blue fish", "red car")
	relevant, slightly := f.Find("red fish red")
	// Sentence 0: red, fish, red. Sentence 1: red, red.
	if !reflect.DeepEqual(relevant, []int{0, 0, 0, 1, 1}) {
		t.Errorf("relevant = %v", relevant)
	}
	if !reflect.DeepEqual(slightly, relevant) {
		t.Errorf("slightly = %v", slightly)
	}
}

func TestFindNoOverlap(t *testing.T) {
	f := newFinder("alpha beta", "gamma delta")
	relevant, slightly := f.Find("nothing in common")
	if relevant != nil || slightly != nil {
		t.Errorf("got %v / %v", relevant, slightly)
	}
}

func TestScope(t *testing.T) {
	f := newFinder("one two three", "four five six")
	scope, err := f.Scope([]int{1, 1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(scope.Sentences) != 3 {
		t.Fatalf("scope has %d sentences", len(scope.Sentences))
	}
	if !reflect.DeepEqual(scope.Sentences[0], scope.Sentences[1]) {
		t.Error("repeated ids should repeat the sentence")
	}
	if got := scope.Index.Unigrams(0); len(got) != 1 || got[0].Sentence != 2 {
		t.Errorf("scoped index ids not local: %v", got)
	}

	if _, err := f.Scope([]int{9}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
