package generate

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/cognicore/ebooks/pkg/ebooks/internalerr"
	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
)

// pickRand always picks the same index and never shuffles.
type pickRand int

func (p pickRand) IntN(n int) int            { return int(p) % n }
func (pickRand) Shuffle(int, func(i, j int)) {}

func TestGenerateEmptyScope(t *testing.T) {
	g := New(NewScope(nil), pickRand(0))
	if _, err := g.Generate(3, Bigram); !errors.Is(err, internalerr.ErrEmptyScope) {
		t.Fatalf("err = %v, want ErrEmptyScope", err)
	}

	g = New(Scope{Sentences: [][]int{{1}}}, pickRand(0))
	if _, err := g.Generate(3, Bigram); !errors.Is(err, internalerr.ErrEmptyScope) {
		t.Fatalf("missing index: err = %v", err)
	}
}

func TestGenerateZeroPassesReturnsSeed(t *testing.T) {
	log := [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8}}
	for i := range log {
		g := New(NewScope(log), pickRand(i))
		got, err := g.Generate(0, Bigram)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, log[i]) {
			t.Errorf("seed %d: got %v, want %v", i, got, log[i])
		}
	}
}

func TestGenerateBigramSplice(t *testing.T) {
	log := [][]int{{1, 2, 3, 4}, {5, 2, 3, 6, 7}}
	g := New(NewScope(log), pickRand(0))

	got, err := g.Generate(3, Bigram)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3, 6, 7}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGenerateRejectsRebuildingASentence(t *testing.T) {
	// Every splice of the seed onto sentence 1 rebuilds sentence 1.
	log := [][]int{{1, 2, 3}, {1, 2, 3, 4}}
	g := New(NewScope(log), pickRand(0))

	got, err := g.Generate(5, Bigram)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, log[0]) {
		t.Errorf("got %v, want unchanged seed %v", got, log[0])
	}
}

func TestGenerateUnigramReachesFurther(t *testing.T) {
	log := [][]int{{1, 2, 3}, {7, 2, 9, 8}}

	got, err := New(NewScope(log), pickRand(0)).Generate(3, Bigram)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, log[0]) {
		t.Errorf("bigram: got %v, want seed", got)
	}

	got, err = New(NewScope(log), pickRand(0)).Generate(3, Unigram)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 9, 8}; !reflect.DeepEqual(got, want) {
		t.Errorf("unigram: got %v, want %v", got, want)
	}
}

func TestGenerateNeverVerbatimAfterSplice(t *testing.T) {
	log := [][]int{
		{1, 2, 3, 4, 5},
		{6, 2, 3, 7, 8},
		{9, 3, 7, 10, 11},
		{12, 4, 5, 13},
	}
	scope := NewScope(log)
	for seed := uint64(0); seed < 200; seed++ {
		g := New(scope, NewSeeded(seed))
		got, err := g.Generate(3, Bigram)
		if err != nil {
			t.Fatal(err)
		}
		// Sentence 3 shares no bigram with a usable continuation, so it is
		// the only one that can come back unchanged.
		if reflect.DeepEqual(got, log[3]) {
			continue
		}
		for _, s := range log {
			if nlp.Subseq(s, got) || nlp.Subseq(got, s) {
				t.Fatalf("seed %d: %v overlaps corpus sentence %v", seed, got, s)
			}
		}
	}
}

func TestGenerateDoesNotAliasCorpus(t *testing.T) {
	log := [][]int{{1, 2, 3}}
	got, err := New(NewScope(log), pickRand(0)).Generate(0, Bigram)
	if err != nil {
		t.Fatal(err)
	}
	got[0] = 42
	if log[0][0] != 1 {
		t.Fatal("generated slice aliases the corpus")
	}
}

func TestSeededIsDeterministic(t *testing.T) {
	log := [][]int{{1, 2, 3, 4, 5}, {6, 2, 3, 7, 8}, {9, 3, 7, 4, 5}}
	scope := NewScope(log)
	a, _ := New(scope, NewSeeded(7)).Generate(3, Unigram)
	b, _ := New(scope, NewSeeded(7)).Generate(3, Unigram)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestGenerateConcurrent(t *testing.T) {
	log := [][]int{{1, 2, 3, 4, 5}, {6, 2, 3, 7, 8}, {9, 3, 7, 4, 5}}
	g := New(NewScope(log), Default())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := g.Generate(3, Bigram); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestModeString(t *testing.T) {
	if Bigram.String() != "bigram" || Unigram.String() != "unigram" {
		t.Errorf("String: %s %s", Bigram, Unigram)
	}
}
