// Package model defines the shared types for the profile discovery and
// enrichment pipeline.
package model

import "time"

// Candidate is a minimally-identified developer found on a search-results
// page, pending full-profile enrichment. Username is the identity; entries
// without a resolvable username are discarded by the extractor.
type Candidate struct {
	Username    string `json:"username"`
	ProfileURL  string `json:"profile_url"`
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

// PinnedRepo is one pinned repository on a profile page.
type PinnedRepo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ProfileRecord is a Candidate plus the structured facts extracted from the
// profile page. Immutable once produced, except for Insight which is
// attached after enrichment. FetchError is set when the profile page could
// not be fetched; the record then carries only the Candidate fields.
type ProfileRecord struct {
	Candidate

	ContributionCount int          `json:"contribution_count"`
	PinnedRepos       []PinnedRepo `json:"pinned_repositories"`
	Followers         int          `json:"followers"`
	Following         int          `json:"following"`
	Organizations     []string     `json:"organizations,omitempty"`
	ProfileReadme     string       `json:"profile_readme,omitempty"`

	FetchError string   `json:"fetch_error,omitempty"`
	Insight    *Insight `json:"insight,omitempty"`
}

// Insight is the structured outcome of enriching one profile via the
// generation API. Either the five content fields are populated, or Error
// is set; Raw always carries the original response text when one exists.
type Insight struct {
	PrimarySkills        string `json:"primary_skills,omitempty"`
	TechStack            string `json:"tech_stack,omitempty"`
	ExperienceLevel      string `json:"experience_level,omitempty"`
	NotableContributions string `json:"notable_contributions,omitempty"`
	ProfessionalSummary  string `json:"professional_summary,omitempty"`

	Error       string    `json:"error,omitempty"`
	Raw         string    `json:"raw_response_text,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Failed reports whether the insight is the error variant.
func (i *Insight) Failed() bool { return i.Error != "" }

// RequestStatus represents the lifecycle state of a stored search request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusComplete RequestStatus = "complete"
)

// RequestRecord is one stored search request plus, once complete, its
// aggregated result set.
type RequestRecord struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	PageCount int             `json:"page_count"`
	Status    RequestStatus   `json:"status"`
	Results   []ProfileRecord `json:"results,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
