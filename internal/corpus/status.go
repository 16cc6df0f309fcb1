package corpus

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Status is the part of a fediverse status object the corpus cares about.
type Status struct {
	Content  string          `json:"content"`
	Reblog   json.RawMessage `json:"reblog"`
	Mentions []Mention       `json:"mentions"`
}

// Mention is an account mentioned by a status.
type Mention struct {
	Acct     string `json:"acct"`
	Username string `json:"username"`
}

// HTMLLinebreak is how a kept line break is written into corpus text.
const HTMLLinebreak = "&#10;"

// linebreakPlaceholder marks a break while the rest of the content is
// cleaned. It is a private-use rune so no status text can collide with it.
const linebreakPlaceholder = "\uE000"

// CleanOptions adjusts CleanStatus.
type CleanOptions struct {
	// HTMLLinebreaks keeps <br> and <p> breaks as HTMLLinebreak instead of
	// folding them into spaces. Breaks at either end of the text are dropped.
	HTMLLinebreaks bool
}

var (
	handlePattern = regexp.MustCompile(`\B@\S+\b`)
	urlPattern    = regexp.MustCompile(`https?://\S+`)
)

// CleanStatus reduces a status to plain text: reblogs are skipped, links and
// mentions are removed, markup is stripped and entities decoded. It reports
// false when nothing usable is left.
func CleanStatus(st Status, opts CleanOptions) (string, bool) {
	if len(st.Reblog) > 0 && string(st.Reblog) != "null" {
		return "", false
	}

	breaker := " "
	if opts.HTMLLinebreaks {
		breaker = " " + linebreakPlaceholder + " "
	}
	content := stripHTML(st.Content, breaker)
	for _, m := range st.Mentions {
		if m.Acct != "" {
			content = strings.ReplaceAll(content, "@"+m.Acct, "")
		}
		if m.Username != "" {
			content = strings.ReplaceAll(content, "@"+m.Username, "")
		}
	}
	content = handlePattern.ReplaceAllString(content, "")
	content = urlPattern.ReplaceAllString(content, "")

	words := strings.Fields(content)
	if opts.HTMLLinebreaks {
		for len(words) > 0 && words[0] == linebreakPlaceholder {
			words = words[1:]
		}
		for len(words) > 0 && words[len(words)-1] == linebreakPlaceholder {
			words = words[:len(words)-1]
		}
	}
	content = strings.Join(words, " ")
	content = strings.ReplaceAll(content, linebreakPlaceholder, HTMLLinebreak)

	if content == "" {
		return "", false
	}
	return content, true
}

// stripHTML keeps the text of an HTML fragment. Anchors are dropped with
// everything inside them, and paragraph and line breaks become breaker.
func stripHTML(s, breaker string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
			return
		case n.Type == html.ElementNode && n.DataAtom == atom.A:
			return
		case n.Type == html.ElementNode && (n.DataAtom == atom.Br || n.DataAtom == atom.P):
			buf.WriteString(breaker)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}
