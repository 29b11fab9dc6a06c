package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/devscout/internal/model"
)

func TestBuildPrompt_IncludesProfileFacts(t *testing.T) {
	rec := model.ProfileRecord{
		Candidate: model.Candidate{
			Username:    "alice",
			DisplayName: "Alice Doe",
			Bio:         "Systems programmer.",
		},
		ContributionCount: 2311,
		Followers:         1024,
		Following:         37,
		PinnedRepos: []model.PinnedRepo{
			{Name: "zerocopy", Description: "Zero-copy parsing toolkit.", Language: "Rust"},
		},
		Organizations: []string{"acme"},
	}

	prompt := BuildPrompt(rec)

	assert.Contains(t, prompt, "Username: alice")
	assert.Contains(t, prompt, "Name: Alice Doe")
	assert.Contains(t, prompt, "Contributions in the last year: 2311")
	assert.Contains(t, prompt, "- zerocopy (Rust): Zero-copy parsing toolkit.")
	assert.Contains(t, prompt, "Organizations: acme")
	assert.Contains(t, prompt, `"professional_summary"`)
}

func TestBuildPrompt_TruncatesReadme(t *testing.T) {
	rec := model.ProfileRecord{
		Candidate:     model.Candidate{Username: "bob"},
		ProfileReadme: strings.Repeat("x", readmeLimit*2),
	}

	prompt := BuildPrompt(rec)

	assert.Less(t, len(prompt), readmeLimit+600)
}

func TestBuildPrompt_SkipsEmptySections(t *testing.T) {
	prompt := BuildPrompt(model.ProfileRecord{
		Candidate: model.Candidate{Username: "carol"},
	})

	assert.NotContains(t, prompt, "Pinned repositories")
	assert.NotContains(t, prompt, "Organizations:")
	assert.NotContains(t, prompt, "Name:")
}
