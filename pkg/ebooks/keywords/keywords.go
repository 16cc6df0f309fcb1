// Package keywords keeps the corpus's most important words.
package keywords

import "strings"

// DefaultLimit is how many keywords a model keeps.
const DefaultLimit = 200

// Ranker orders the words of a text by importance, most important first.
type Ranker interface {
	Keywords(text string) []string
}

// Top returns at most n keywords of text, most important first, with
// case-insensitive duplicates removed. n <= 0 means DefaultLimit.
func Top(r Ranker, text string, n int) []string {
	if n <= 0 {
		n = DefaultLimit
	}
	return Merge(n, r.Keywords(text))
}

// Merge concatenates keyword lists in priority order, dropping repeats and
// stopping at n entries.
func Merge(n int, lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, kw := range list {
			if len(out) >= n {
				return out
			}
			key := strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, kw)
		}
	}
	return out
}
