package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/devscout/internal/model"
)

// Selector tables for profile pages.
var (
	profileDisplayName = cascade{
		text(`span.p-name`),
		text(`h1.vcard-names .fullname`),
		text(`span[itemprop="name"]`),
	}

	profileBio = cascade{
		text(`div.p-note .user-profile-bio div`),
		text(`div.user-profile-bio`),
		text(`div[data-bio-text]`),
	}

	profileContributions = cascade{
		text(`div.js-yearly-contributions h2`),
		text(`h2.f4.text-normal.mb-2`),
		text(`[data-testid="contribution-count"]`),
	}

	profileFollowers = cascade{
		text(`a[href$="tab=followers"] span.text-bold`),
		text(`a[href$="tab=followers"] span`),
		text(`span.followers-count`),
	}

	profileFollowing = cascade{
		text(`a[href$="tab=following"] span.text-bold`),
		text(`a[href$="tab=following"] span`),
		text(`span.following-count`),
	}

	pinnedRepoContainers = []string{
		`ol.js-pinned-items-reorder-list > li`,
		`li.pinned-item-list-item`,
		`div.pinned-item-list-item-content`,
	}

	pinnedName = cascade{
		text(`a.pinned-item-name span.repo`),
		text(`span.repo`),
		text(`a[data-hydro-click] span`),
	}

	pinnedDescription = cascade{
		text(`p.pinned-item-desc`),
		text(`p.color-fg-muted`),
	}

	pinnedLanguage = cascade{
		text(`span[itemprop="programmingLanguage"]`),
		text(`span.repo-language-color + span`),
	}

	profileOrganizations = listCascade{
		attrList(`a[data-hovercard-type="organization"] img`, "alt"),
		attrList(`div.border-top a[data-hovercard-type="organization"]`, "aria-label"),
		textList(`a.avatar-group-item`),
	}

	profileReadme = cascade{
		text(`div.profile-readme article`),
		text(`article.markdown-body`),
	}
)

// Profile extracts a ProfileRecord from a profile page. Field cascades are
// independent: a miss on one field leaves it at its zero value without
// affecting the rest. A page with none of the pinned-repository markup
// yields an empty PinnedRepos slice, not an error.
func Profile(doc []byte, cand model.Candidate) *model.ProfileRecord {
	rec := &model.ProfileRecord{
		Candidate:   cand,
		PinnedRepos: []model.PinnedRepo{},
	}

	d, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		zap.L().Warn("extract: profile page unparseable",
			zap.String("username", cand.Username),
			zap.Error(err),
		)
		return rec
	}

	root := d.Selection

	if v := profileDisplayName.resolve(root); v != "" {
		rec.DisplayName = v
	}
	if v := profileBio.resolve(root); v != "" {
		rec.Bio = v
	}

	rec.ContributionCount = parseCount(profileContributions.resolve(root))
	rec.Followers = parseCount(profileFollowers.resolve(root))
	rec.Following = parseCount(profileFollowing.resolve(root))
	rec.ProfileReadme = profileReadme.resolve(root)

	scope(d, pinnedRepoContainers...).Each(func(_ int, item *goquery.Selection) {
		name := pinnedName.resolve(item)
		if name == "" {
			return
		}
		rec.PinnedRepos = append(rec.PinnedRepos, model.PinnedRepo{
			Name:        name,
			Description: pinnedDescription.resolve(item),
			Language:    pinnedLanguage.resolve(item),
		})
	})

	rec.Organizations = dedupe(profileOrganizations.resolve(root))

	zap.L().Debug("extract: profile parsed",
		zap.String("username", cand.Username),
		zap.Int("pinned", len(rec.PinnedRepos)),
		zap.Int("followers", rec.Followers),
	)

	return rec
}

// dedupe removes duplicates preserving first-seen order. Organization
// avatars often appear twice in the sidebar markup.
func dedupe(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
