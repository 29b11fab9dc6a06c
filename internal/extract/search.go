package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/devscout/internal/model"
)

// Selector tables for search-results pages, newest markup first. Append
// new strategies at the end of a cascade when the site ships a redesign.
var (
	searchResultContainers = []string{
		`[data-testid="results-list"] > div`,
		`div.user-list-item`,
		`div.Box-row`,
	}

	searchUsername = cascade{
		text(`span.Link--secondary`),
		text(`a.user-login`),
		hrefUsername(`a[href^="/"]`),
	}

	searchDisplayName = cascade{
		text(`span.Link--primary`),
		text(`a.user-name`),
		text(`em`),
	}

	searchBio = cascade{
		text(`p.user-bio`),
		text(`div.user-profile-bio`),
		text(`p.mb-1`),
	}
)

// SearchResults extracts candidates from a search-results page, in document
// order. A page where no container strategy matches is a valid zero-result
// outcome: the return is an empty slice and a nil error. Entries without a
// resolvable username are discarded; one candidate's missing field never
// blocks the others.
func SearchResults(baseURL string, doc []byte) ([]model.Candidate, error) {
	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		// Unparseable bytes degrade to "no results", matching the
		// zero-match contract.
		zap.L().Warn("extract: search page unparseable", zap.Error(err))
		return []model.Candidate{}, nil
	}

	candidates := []model.Candidate{}
	scope(d, searchResultContainers...).Each(func(_ int, row *goquery.Selection) {
		username := normalizeUsername(searchUsername.resolve(row))
		if username == "" {
			return
		}
		candidates = append(candidates, model.Candidate{
			Username:    username,
			ProfileURL:  strings.TrimSuffix(baseURL, "/") + "/" + username,
			DisplayName: searchDisplayName.resolve(row),
			Bio:         searchBio.resolve(row),
		})
	})

	zap.L().Debug("extract: search page parsed", zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// normalizeUsername strips the "@" prefix some layouts render and rejects
// values that cannot be a username.
func normalizeUsername(raw string) string {
	u := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
	if strings.ContainsAny(u, " /") {
		return ""
	}
	return u
}
