// Package extract pulls structured records out of the source site's HTML.
// The markup drifts constantly, so every field is resolved through an
// ordered cascade of selector strategies: each strategy is tried in turn
// until one yields a non-empty result. Cascades are declared as tables so
// new strategies can be appended without touching call sites.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts one string value from a selection scope. An empty
// return means the strategy found nothing and the next one is tried.
type Strategy func(s *goquery.Selection) string

// cascade is an ordered list of alternative strategies for one field.
type cascade []Strategy

// resolve tries each strategy in order and returns the first non-empty
// result, or "" when the cascade is exhausted.
func (c cascade) resolve(s *goquery.Selection) string {
	for _, strat := range c {
		if v := strat(s); v != "" {
			return v
		}
	}
	return ""
}

// listStrategy extracts a list of values from a selection scope. A nil or
// empty return falls through to the next strategy.
type listStrategy func(s *goquery.Selection) []string

// listCascade is an ordered list of alternative list strategies.
type listCascade []listStrategy

// resolve tries each strategy in order and returns the first non-empty
// list, or nil when the cascade is exhausted.
func (c listCascade) resolve(s *goquery.Selection) []string {
	for _, strat := range c {
		if vs := strat(s); len(vs) > 0 {
			return vs
		}
	}
	return nil
}

// text returns a strategy that takes the trimmed text of the first node
// matching selector.
func text(selector string) Strategy {
	return func(s *goquery.Selection) string {
		return strings.TrimSpace(s.Find(selector).First().Text())
	}
}

// attrOf returns a strategy that takes the trimmed value of attr on the
// first node matching selector.
func attrOf(selector, attr string) Strategy {
	return func(s *goquery.Selection) string {
		v, _ := s.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

// hrefUsername returns a strategy that reads the first path segment of the
// href on the first node matching selector ("/octocat?tab=repos" → "octocat").
func hrefUsername(selector string) Strategy {
	return func(s *goquery.Selection) string {
		href, ok := s.Find(selector).First().Attr("href")
		if !ok {
			return ""
		}
		href = strings.TrimPrefix(strings.TrimSpace(href), "/")
		if i := strings.IndexAny(href, "/?#"); i >= 0 {
			href = href[:i]
		}
		return href
	}
}

// textList returns a list strategy collecting the trimmed text of every
// node matching selector, skipping empties.
func textList(selector string) listStrategy {
	return func(s *goquery.Selection) []string {
		var out []string
		s.Find(selector).Each(func(_ int, n *goquery.Selection) {
			if v := strings.TrimSpace(n.Text()); v != "" {
				out = append(out, v)
			}
		})
		return out
	}
}

// attrList returns a list strategy collecting the trimmed attr value of
// every node matching selector, skipping empties.
func attrList(selector, attr string) listStrategy {
	return func(s *goquery.Selection) []string {
		var out []string
		s.Find(selector).Each(func(_ int, n *goquery.Selection) {
			if v, ok := n.Attr(attr); ok {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
		})
		return out
	}
}

// scope returns the first non-empty selection among the given container
// selectors. Used where a cascade applies to node sets rather than values
// (result rows, pinned-repo items).
func scope(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find(selectors[len(selectors)-1]) // empty selection
}

// parseCount strips every non-digit character from raw and parses what
// remains. No digits yields 0, never an error ("1,284 contributions" →
// 1284, "—" → 0).
func parseCount(raw string) int {
	n := 0
	seen := false
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		n = n*10 + int(r-'0')
	}
	if !seen {
		return 0
	}
	return n
}
