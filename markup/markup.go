// Package markup answers field queries against a rendered page snapshot.
//
// Element text is matched on "own text": the concatenation of an element's
// direct text-node children. That is what an XPath contains(text(), ...)
// locator sees, and it keeps ancestors such as <body> from matching every
// marker on the page. Elements that are never rendered (scripts, styles,
// noscript fallbacks, templates) and everything inside them have no text.
package markup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Snapshot is a parsed page.
type Snapshot struct {
	doc *goquery.Document
}

// Parse builds a Snapshot from raw HTML.
func Parse(rawHTML string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}
	return &Snapshot{doc: doc}, nil
}

// Text returns the whitespace-collapsed text of the first element matching
// selector. The second result is false when nothing matches or the match
// has no text.
func (s *Snapshot) Text(selector string) (string, bool) {
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 || !rendered(sel.Nodes[0]) {
		return "", false
	}
	text := collapse(renderedText(sel.Nodes[0]))
	return text, text != ""
}

// MatchOwnText returns the full text of the first element, in document
// order, whose own text contains every marker. Matching on own text while
// returning the full text mirrors reading .text off an XPath
// contains(text(), ...) hit.
func (s *Snapshot) MatchOwnText(markers ...string) (string, bool) {
	return s.match(func(own string) bool {
		return containsAll(own, markers)
	})
}

// MatchOwnWord is MatchOwnText for a single pattern that must start at a
// word boundary, so "de R$" does not match inside "unidade R$".
func (s *Snapshot) MatchOwnWord(pattern string) (string, bool) {
	return s.match(func(own string) bool {
		return indexWord(own, pattern) >= 0
	})
}

func (s *Snapshot) match(pred func(own string) bool) (string, bool) {
	var (
		found string
		ok    bool
	)
	s.doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		n := sel.Nodes[0]
		if !rendered(n) {
			return true
		}
		own := ownText(n)
		if own == "" || !pred(own) {
			return true
		}
		found, ok = collapse(renderedText(n)), true
		return false
	})
	return found, ok
}

// AfterColon returns the trimmed text following the first colon, or the
// trimmed input when there is no colon.
func AfterColon(text string) string {
	if _, after, ok := strings.Cut(text, ":"); ok {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(text)
}

// After returns the trimmed text starting right after prefix, where prefix
// is located at the first word-boundary occurrence of pattern. pattern must
// start with prefix; "de R$ 10" with pattern "de R$" and prefix "de "
// yields "R$ 10".
func After(text, pattern, prefix string) (string, bool) {
	i := indexWord(text, pattern)
	if i < 0 || !strings.HasPrefix(pattern, prefix) {
		return "", false
	}
	return strings.TrimSpace(text[i+len(prefix):]), true
}

func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
	}
	return collapse(b.String())
}

// indexWord returns the index of the first occurrence of pattern that is
// not preceded by a letter or digit, or -1.
func indexWord(text, pattern string) int {
	if pattern == "" {
		return -1
	}
	for off := 0; off <= len(text); {
		i := strings.Index(text[off:], pattern)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 {
			return 0
		}
		if r, _ := utf8.DecodeLastRuneInString(text[:i]); !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return i
		}
		off = i + 1
	}
	return -1
}

// hiddenElements never contribute rendered text.
var hiddenElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// rendered reports whether n and all its ancestors can produce visible text.
func rendered(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if _, hidden := hiddenElements[n.Data]; hidden {
			return false
		}
	}
	return true
}

// renderedText is the text of n's subtree without hidden elements.
func renderedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if _, hidden := hiddenElements[c.Data]; !hidden {
					walk(c)
				}
			}
		}
	}
	walk(n)
	return b.String()
}

func containsAll(text string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}

// collapse trims and folds whitespace runs into single spaces. NBSP, common
// in formatted prices, counts as whitespace.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
