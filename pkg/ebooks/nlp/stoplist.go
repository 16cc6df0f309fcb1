package nlp

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords.yaml
var defaultStopwords []byte

// Stoplist is a case-insensitive stopword set.
type Stoplist struct {
	stops map[string]struct{}
}

// NewStoplist creates a stoplist from the given terms.
func NewStoplist(terms []string) *Stoplist {
	stops := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			stops[t] = struct{}{}
		}
	}
	return &Stoplist{stops: stops}
}

// DefaultStoplist returns the embedded English stoplist.
func DefaultStoplist() *Stoplist {
	terms, err := ParseStoplist(defaultStopwords)
	if err != nil {
		panic(fmt.Sprintf("embedded stoplist: %v", err))
	}
	return NewStoplist(terms)
}

// ParseStoplist decodes a YAML document of the form `terms: [...]`.
func ParseStoplist(data []byte) ([]string, error) {
	var doc struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Terms, nil
}

// IsStop checks if a token is a stopword
func (s *Stoplist) IsStop(token string) bool {
	_, ok := s.stops[strings.ToLower(token)]
	return ok
}

// All returns all stopwords, sorted
func (s *Stoplist) All() []string {
	out := make([]string, 0, len(s.stops))
	for t := range s.stops {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
