package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://github.com"

const modernSearchPage = `
<html><body>
<div data-testid="results-list">
  <div>
    <a href="/alice"><span class="Link--primary">Alice Doe</span></a>
    <span class="Link--secondary">alice</span>
    <p class="user-bio">Systems programmer, Rust and Go.</p>
  </div>
  <div>
    <a href="/bob"><span class="Link--primary">Bob Ray</span></a>
    <span class="Link--secondary">bob</span>
  </div>
  <div>
    <a href="/carol"><span class="Link--primary">Carol K</span></a>
    <span class="Link--secondary">carol</span>
    <p class="user-bio">Compilers.</p>
  </div>
</div>
</body></html>`

// legacySearchPage has none of the modern attributes; only the fallback
// selectors resolve.
const legacySearchPage = `
<html><body>
<div class="user-list-item">
  <a class="user-name" href="/dave">Dave</a>
  <a class="user-login" href="/dave">dave</a>
  <p class="mb-1">Infra.</p>
</div>
</body></html>`

func TestSearchResults_ModernMarkup(t *testing.T) {
	cands, err := SearchResults(baseURL, []byte(modernSearchPage))
	require.NoError(t, err)
	require.Len(t, cands, 3)

	// Document order preserved.
	assert.Equal(t, "alice", cands[0].Username)
	assert.Equal(t, "bob", cands[1].Username)
	assert.Equal(t, "carol", cands[2].Username)

	assert.Equal(t, "https://github.com/alice", cands[0].ProfileURL)
	assert.Equal(t, "Alice Doe", cands[0].DisplayName)
	assert.Equal(t, "Systems programmer, Rust and Go.", cands[0].Bio)

	// Missing bio on one candidate doesn't affect the others.
	assert.Empty(t, cands[1].Bio)
	assert.Equal(t, "Compilers.", cands[2].Bio)
}

func TestSearchResults_LegacyMarkupFallsBack(t *testing.T) {
	cands, err := SearchResults(baseURL, []byte(legacySearchPage))
	require.NoError(t, err)
	require.Len(t, cands, 1)

	assert.Equal(t, "dave", cands[0].Username)
	assert.Equal(t, "Dave", cands[0].DisplayName)
	assert.Equal(t, "Infra.", cands[0].Bio)
}

func TestSearchResults_ZeroMatches(t *testing.T) {
	cands, err := SearchResults(baseURL, []byte(`<html><body><p>We couldn't find anything.</p></body></html>`))
	require.NoError(t, err)
	assert.NotNil(t, cands)
	assert.Empty(t, cands)
}

func TestSearchResults_DiscardsEntriesWithoutUsername(t *testing.T) {
	page := `
<div data-testid="results-list">
  <div><span class="Link--primary">Ghost entry</span></div>
  <div><span class="Link--secondary">real</span></div>
</div>`
	cands, err := SearchResults(baseURL, []byte(page))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "real", cands[0].Username)
}

func TestSearchResults_UsernameFromHref(t *testing.T) {
	// No login span anywhere; the href strategy is last in the cascade.
	page := `<div class="user-list-item"><a href="/erin?tab=repositories">Erin</a></div>`
	cands, err := SearchResults(baseURL, []byte(page))
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "erin", cands[0].Username)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", normalizeUsername("@alice"))
	assert.Equal(t, "alice", normalizeUsername("  alice "))
	assert.Equal(t, "", normalizeUsername("not a username"))
	assert.Equal(t, "", normalizeUsername(""))
}
