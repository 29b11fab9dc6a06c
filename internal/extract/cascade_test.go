package extract

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	return d
}

func TestCascade_ResolveOrder(t *testing.T) {
	d := mustDoc(t, `<div><span class="new">fresh</span><span class="old">stale</span></div>`)

	c := cascade{text("span.new"), text("span.old")}
	assert.Equal(t, "fresh", c.resolve(d.Selection))

	// First strategy misses, second catches.
	c = cascade{text("span.missing"), text("span.old")}
	assert.Equal(t, "stale", c.resolve(d.Selection))
}

func TestCascade_Exhausted(t *testing.T) {
	d := mustDoc(t, `<div><p>nothing useful</p></div>`)

	c := cascade{text("span.a"), text("span.b")}
	assert.Equal(t, "", c.resolve(d.Selection))
}

func TestHrefUsername(t *testing.T) {
	d := mustDoc(t, `<div><a href="/octocat?tab=repositories">Octocat</a></div>`)

	strat := hrefUsername("a")
	assert.Equal(t, "octocat", strat(d.Selection))
}

func TestListCascade_FallsThrough(t *testing.T) {
	d := mustDoc(t, `<ul><li class="org">acme</li><li class="org">globex</li></ul>`)

	c := listCascade{textList("li.missing"), textList("li.org")}
	assert.Equal(t, []string{"acme", "globex"}, c.resolve(d.Selection))
}

func TestScope_PrefersEarlierSelector(t *testing.T) {
	d := mustDoc(t, `<div class="modern"><p>a</p></div><div class="legacy"><p>b</p><p>c</p></div>`)

	s := scope(d, "div.modern p", "div.legacy p")
	assert.Equal(t, 1, s.Length())

	s = scope(d, "div.none p", "div.legacy p")
	assert.Equal(t, 2, s.Length())
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"1,284 contributions in the last year", 1284},
		{"42", 42},
		{"followers: 1.2", 12},
		{"", 0},
		{"—", 0},
		{"no digits here", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseCount(tc.in), "input %q", tc.in)
	}
}
