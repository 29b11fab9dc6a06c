package enrich

import (
	"fmt"
	"strings"

	"github.com/sells-group/devscout/internal/model"
)

// SystemPrompt frames every enrichment call.
const SystemPrompt = "You are a technical recruiter's research assistant. " +
	"You assess developer profiles from public activity and respond only in the requested format."

const readmeLimit = 1500

// BuildPrompt renders the enrichment prompt for one profile. The model is
// asked for a JSON object whose keys match insightPayload, with the five
// labeled sections as a degraded-output fallback the parser also accepts.
func BuildPrompt(rec model.ProfileRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Assess the developer profile below.\n\n")
	fmt.Fprintf(&b, "Username: %s\n", rec.Username)
	if rec.DisplayName != "" {
		fmt.Fprintf(&b, "Name: %s\n", rec.DisplayName)
	}
	if rec.Bio != "" {
		fmt.Fprintf(&b, "Bio: %s\n", rec.Bio)
	}
	fmt.Fprintf(&b, "Contributions in the last year: %d\n", rec.ContributionCount)
	fmt.Fprintf(&b, "Followers: %d, Following: %d\n", rec.Followers, rec.Following)

	if len(rec.PinnedRepos) > 0 {
		b.WriteString("Pinned repositories:\n")
		for _, repo := range rec.PinnedRepos {
			fmt.Fprintf(&b, "- %s", repo.Name)
			if repo.Language != "" {
				fmt.Fprintf(&b, " (%s)", repo.Language)
			}
			if repo.Description != "" {
				fmt.Fprintf(&b, ": %s", repo.Description)
			}
			b.WriteString("\n")
		}
	}

	if len(rec.Organizations) > 0 {
		fmt.Fprintf(&b, "Organizations: %s\n", strings.Join(rec.Organizations, ", "))
	}

	if rec.ProfileReadme != "" {
		readme := rec.ProfileReadme
		if len(readme) > readmeLimit {
			readme = readme[:readmeLimit]
		}
		fmt.Fprintf(&b, "\nProfile README:\n%s\n", readme)
	}

	b.WriteString(`
Respond with a single JSON object, string values only, exactly these keys:
{
  "primary_skills": "",
  "tech_stack": "",
  "experience_level": "",
  "notable_contributions": "",
  "professional_summary": ""
}`)

	return b.String()
}
