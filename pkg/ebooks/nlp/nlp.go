// Package nlp provides the default English text primitives used by ingestion
// and generation: normalization, sentence splitting, tokenization, stopwords,
// keyword ranking and the spacing/encloser rules used when turning tokens back
// into text.
package nlp

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Language is the full set of text primitives the engine consumes. All
// methods are total functions over plain strings.
type Language interface {
	Normalize(line string) string
	Sentences(text string) []string
	Tokenize(text string) []string
	IsStopword(token string) bool
	Keywords(text string) []string
	SpaceBetween(prev, next string) bool
	UnmatchedEnclosers(text string) bool
	DecodeEntities(text string) string
}

const punctuation = "?!.,"

var normalizeReplacer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"’", "'",
	"…", "...",
)

// English implements Language for English-like, space-delimited text.
type English struct {
	stops *Stoplist
}

var _ Language = (*English)(nil)

// NewEnglish creates the default language. A nil stoplist uses the embedded one.
func NewEnglish(stops *Stoplist) *English {
	if stops == nil {
		stops = DefaultStoplist()
	}
	return &English{stops: stops}
}

// Normalize folds typographic quotes and ellipses to ASCII and decodes HTML
// entities.
func (e *English) Normalize(line string) string {
	return html.UnescapeString(normalizeReplacer.Replace(line))
}

// DecodeEntities decodes HTML entities such as &amp; and &#39;.
func (e *English) DecodeEntities(text string) string {
	return html.UnescapeString(text)
}

// Sentences splits on line breaks and on whitespace that follows ., ? or !.
func (e *English) Sentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	var prev rune
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			flush()
		case unicode.IsSpace(r) && (prev == '.' || prev == '?' || prev == '!'):
			flush()
		default:
			cur.WriteRune(r)
		}
		prev = r
	}
	flush()
	return out
}

// Tokenize splits on whitespace and detaches a trailing run of punctuation
// from the letters before it, so "cats!" becomes "cats", "!".
func (e *English) Tokenize(text string) []string {
	var out []string
	for _, word := range strings.Fields(text) {
		head, tail := splitTrailingPunct(word)
		if head != "" {
			out = append(out, head)
		}
		if tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

func splitTrailingPunct(word string) (string, string) {
	i := len(word)
	for i > 0 && strings.IndexByte(punctuation, word[i-1]) >= 0 {
		i--
	}
	if i == len(word) || i == 0 {
		return word, ""
	}
	r, _ := utf8.DecodeLastRuneInString(word[:i])
	if !isASCIILetter(r) {
		return word, ""
	}
	return word[:i], word[i:]
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// IsStopword reports whether token is on the stoplist.
func (e *English) IsStopword(token string) bool {
	return e.stops.IsStop(token)
}

// IsPunctuation reports whether token consists only of ., ,, ? and !.
func IsPunctuation(token string) bool {
	if token == "" {
		return false
	}
	for i := 0; i < len(token); i++ {
		if strings.IndexByte(punctuation, token[i]) < 0 {
			return false
		}
	}
	return true
}

// Keywords ranks the words of text by frequency, most frequent first. Ties
// keep first-appearance order. Stopwords, punctuation, single characters and
// tokens without letters are not ranked.
func (e *English) Keywords(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range e.Tokenize(text) {
		w := strings.ToLower(strings.Trim(tok, `"'()[]*`+"`"))
		if utf8.RuneCountInString(w) < 2 || IsPunctuation(w) || !hasLetter(w) {
			continue
		}
		if strings.Contains(w, "@") || strings.Contains(w, "http") || e.IsStopword(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// SpaceBetween reports whether a space goes between two adjacent tokens:
// always, unless the second one is punctuation ("foo." and "foo?!").
func (e *English) SpaceBetween(prev, next string) bool {
	return !IsPunctuation(next)
}

type encloser struct {
	starter *regexp.Regexp
	ender   *regexp.Regexp
}

var enclosers = func() []encloser {
	pairs := [][2]string{{"*", "*"}, {`"`, `"`}, {"(", ")"}, {"[", "]"}, {"`", "`"}, {"'", "'"}}
	out := make([]encloser, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, encloser{
			starter: regexp.MustCompile(`(\W|^)` + regexp.QuoteMeta(p[0]) + `\S`),
			ender:   regexp.MustCompile(`\S` + regexp.QuoteMeta(p[1]) + `(\W|$)`),
		})
	}
	return out
}()

// UnmatchedEnclosers reports whether text opens or closes a quote, bracket or
// emphasis marker without its counterpart. Text still holding typographic
// double quotes is always rejected.
func (e *English) UnmatchedEnclosers(text string) bool {
	if strings.ContainsAny(text, "“”") {
		return true
	}
	toks := e.Tokenize(text)
	for _, enc := range enclosers {
		opened := 0
		for _, tok := range toks {
			if enc.starter.MatchString(tok) {
				opened++
			}
			if enc.ender.MatchString(tok) {
				opened--
			}
			if opened < 0 {
				return true
			}
		}
		if opened != 0 {
			return true
		}
	}
	return false
}

// Subseq reports whether needle occurs as a contiguous run inside haystack.
func Subseq(haystack, needle []int) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, v := range needle {
			if haystack[i+j] != v {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
