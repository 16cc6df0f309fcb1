package nlp

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	e := NewEnglish(nil)
	got := e.Normalize("“Hi” it’s fine… &amp; done")
	want := `"Hi" it's fine... & done`
	if got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestSentences(t *testing.T) {
	e := NewEnglish(nil)
	got := e.Sentences("Hello there. How are you?  Fine!\n\nnew line 3.5 stays")
	want := []string{"Hello there.", "How are you?", "Fine!", "new line 3.5 stays"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sentences = %q, want %q", got, want)
	}
}

func TestTokenize(t *testing.T) {
	e := NewEnglish(nil)
	cases := []struct {
		in   string
		want []string
	}{
		{"the cat sat", []string{"the", "cat", "sat"}},
		{"really?! yes.", []string{"really", "?!", "yes", "."}},
		{"3.5 ... ok,", []string{"3.5", "...", "ok", ","}},
		{"(wow) hi", []string{"(wow)", "hi"}},
		{"", nil},
	}
	for _, tc := range cases {
		if got := e.Tokenize(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStopwords(t *testing.T) {
	e := NewEnglish(NewStoplist([]string{"The", "on"}))
	if !e.IsStopword("the") || !e.IsStopword("THE") {
		t.Error("stopwords should match case-insensitively")
	}
	if e.IsStopword("cat") {
		t.Error("cat is not a stopword")
	}

	def := NewEnglish(nil)
	if !def.IsStopword("and") {
		t.Error("default stoplist should contain 'and'")
	}
}

func TestParseStoplist(t *testing.T) {
	terms, err := ParseStoplist([]byte("terms:\n  - foo\n  - bar\n"))
	if err != nil {
		t.Fatalf("ParseStoplist: %v", err)
	}
	if !reflect.DeepEqual(terms, []string{"foo", "bar"}) {
		t.Errorf("terms = %v", terms)
	}
	if got := NewStoplist(terms).All(); !reflect.DeepEqual(got, []string{"bar", "foo"}) {
		t.Errorf("All = %v", got)
	}
	if _, err := ParseStoplist([]byte("terms: [unclosed")); err == nil {
		t.Error("expected YAML error")
	}
}

func TestKeywords(t *testing.T) {
	e := NewEnglish(NewStoplist([]string{"the", "on"}))
	got := e.Keywords("The cat sat on the mat. The cat ran! A dog sat @bob http://x.y")
	want := []string{"cat", "sat", "mat", "ran", "dog"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}
}

func TestSpaceBetween(t *testing.T) {
	e := NewEnglish(nil)
	cases := []struct {
		a, b string
		want bool
	}{
		{"foo", "bar", true},
		{"foo", ".", false},
		{"?", "!", false},
		{".", "rah", true},
	}
	for _, tc := range cases {
		if got := e.SpaceBetween(tc.a, tc.b); got != tc.want {
			t.Errorf("SpaceBetween(%q,%q) = %v", tc.a, tc.b, got)
		}
	}
}

func TestUnmatchedEnclosers(t *testing.T) {
	e := NewEnglish(nil)
	cases := []struct {
		in   string
		want bool
	}{
		{"plain words here", false},
		{`he said "hello there" today`, false},
		{`he said "hello there today`, true},
		{"a (small) thing", false},
		{"a small) thing", true},
		{"(a small thing", true},
		{"don't worry", false},
		{"a *bold* word", false},
		{"a **strong** word", false},
		{"a *bold word", true},
		{"a “quoted” word", true},
	}
	for _, tc := range cases {
		if got := e.UnmatchedEnclosers(tc.in); got != tc.want {
			t.Errorf("UnmatchedEnclosers(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSubseq(t *testing.T) {
	cases := []struct {
		hay, needle []int
		want        bool
	}{
		{[]int{1, 2, 3, 4}, []int{2, 3}, true},
		{[]int{1, 2, 3, 4}, []int{1, 2, 3, 4}, true},
		{[]int{1, 2, 3, 4}, []int{2, 4}, false},
		{[]int{1, 2}, []int{1, 2, 3}, false},
		{[]int{3, 4}, []int{4, 5}, false},
	}
	for _, tc := range cases {
		if got := Subseq(tc.hay, tc.needle); got != tc.want {
			t.Errorf("Subseq(%v,%v) = %v", tc.hay, tc.needle, got)
		}
	}
}
