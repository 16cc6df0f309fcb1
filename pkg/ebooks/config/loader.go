package config

import (
	"fmt"

	"github.com/cognicore/ebooks/pkg/ebooks/nlp"
)

// Loader loads configuration files and constructs components.
type Loader struct {
	StoplistPath string
}

// Components holds the loaded components.
type Components struct {
	Language *nlp.English
	Stoplist *nlp.Stoplist
}

// Load reads the configured files and returns initialized components. An
// empty StoplistPath selects the embedded English stoplist.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.StoplistPath != "" {
		stops, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stops
	} else {
		comp.Stoplist = nlp.DefaultStoplist()
	}
	comp.Language = nlp.NewEnglish(comp.Stoplist)

	return comp, nil
}
