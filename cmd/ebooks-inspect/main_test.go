package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/cognicore/ebooks/pkg/ebooks/ngram"
	"github.com/cognicore/ebooks/pkg/ebooks/store"
	"github.com/cognicore/ebooks/pkg/ebooks/store/memstore"
)

func testStore() store.Store {
	return memstore.Build(store.Snapshot{
		BuildID: "01TESTBUILD",
		// 0:the 1:Cat 2:sat 3:cat 4:ran 5:.
		Tokens: []string{"the", "Cat", "sat", "cat", "ran", "."},
		Sentences: [][]int{
			{0, 1, 2, 5},
			{0, 3, 4},
			{3, 2},
		},
		Keywords: []string{"cat", "sat", "ran"},
	})
}

func TestSummary(t *testing.T) {
	var out bytes.Buffer
	in := inspector{Store: testStore(), Out: &out}
	if err := in.summary(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"01TESTBUILD", "Tokens:    6", "Sentences: 3", "Keywords:  cat, sat\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestLookup(t *testing.T) {
	var out bytes.Buffer
	in := inspector{Store: testStore(), Out: &out, Examples: 1}
	if err := in.lookup(context.Background(), "CAT", "sat"); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{
		`Token 1 "Cat": 1 sentences`,
		`Token 3 "cat": 2 sentences`,
		"[0] the Cat sat .",
		"[1] the cat ran",
		`bigram ("Cat", "sat"): 0:3`,
		`bigram ("cat", "sat"): 2:end`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("lookup missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "[2] cat sat") {
		t.Errorf("example limit not applied:\n%s", got)
	}
}

func TestLookupUnknown(t *testing.T) {
	var out bytes.Buffer
	in := inspector{Store: testStore(), Out: &out}
	if err := in.lookup(context.Background(), "zebra", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"zebra" is not in the model`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestFormatOccurrences(t *testing.T) {
	got := formatOccurrences([]ngram.Occurrence{{Sentence: 4, Pos: 2}, {Sentence: 7, Pos: ngram.Interim}})
	if got != "4:2 7:end" {
		t.Errorf("formatOccurrences = %q", got)
	}
	if formatOccurrences(nil) != "none" {
		t.Error("empty occurrences should print none")
	}
}
