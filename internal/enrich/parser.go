package enrich

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/devscout/internal/model"
)

// insightPayload mirrors the JSON object the prompt asks the model to emit.
type insightPayload struct {
	PrimarySkills        string `json:"primary_skills"`
	TechStack            string `json:"tech_stack"`
	ExperienceLevel      string `json:"experience_level"`
	NotableContributions string `json:"notable_contributions"`
	ProfessionalSummary  string `json:"professional_summary"`
}

// fallback section labels, matched case-insensitively against line prefixes.
var sectionLabels = []struct {
	label string
	set   func(*model.Insight, string)
}{
	{"skills", func(i *model.Insight, v string) { i.PrimarySkills = v }},
	{"tech stack", func(i *model.Insight, v string) { i.TechStack = v }},
	{"experience level", func(i *model.Insight, v string) { i.ExperienceLevel = v }},
	{"notable contributions", func(i *model.Insight, v string) { i.NotableContributions = v }},
	{"professional summary", func(i *model.Insight, v string) { i.ProfessionalSummary = v }},
}

// Parse converts generated text into an Insight. The primary strategy
// parses the outermost brace-delimited block as JSON; the fallback scans
// for labeled sections. Total failure is still recoverable: the result is
// the error variant carrying the raw text.
func Parse(text string) model.Insight {
	now := time.Now().UTC()

	if ins, ok := parseStructuredBlock(text); ok {
		ins.Raw = text
		ins.GeneratedAt = now
		return ins
	}

	if ins, ok := parseLabeledSections(text); ok {
		zap.L().Debug("enrich: structured block missing, used labeled-section fallback")
		ins.Raw = text
		ins.GeneratedAt = now
		return ins
	}

	zap.L().Warn("enrich: response unparseable by both strategies",
		zap.Int("len", len(text)),
	)
	return model.Insight{
		Error:       "unparseable generation response",
		Raw:         text,
		GeneratedAt: now,
	}
}

// parseStructuredBlock takes the span from the first "{" to the last "}"
// and attempts to decode it.
func parseStructuredBlock(text string) (model.Insight, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.Insight{}, false
	}

	var payload insightPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return model.Insight{}, false
	}

	return model.Insight{
		PrimarySkills:        strings.TrimSpace(payload.PrimarySkills),
		TechStack:            strings.TrimSpace(payload.TechStack),
		ExperienceLevel:      strings.TrimSpace(payload.ExperienceLevel),
		NotableContributions: strings.TrimSpace(payload.NotableContributions),
		ProfessionalSummary:  strings.TrimSpace(payload.ProfessionalSummary),
	}, true
}

// parseLabeledSections scans lines for the five section labels. A section's
// content is the text after the first ":" on its label line, plus any
// immediately following non-blank lines that contain no ":". Returns false
// when no label matched at all.
func parseLabeledSections(text string) (model.Insight, bool) {
	lines := strings.Split(text, "\n")

	var ins model.Insight
	matched := false

	for _, sec := range sectionLabels {
		for i, line := range lines {
			lower := strings.ToLower(line)
			sep := strings.Index(line, ":")
			if sep < 0 || !strings.Contains(lower[:sep], sec.label) {
				continue
			}

			parts := []string{strings.TrimSpace(line[sep+1:])}
			for j := i + 1; j < len(lines); j++ {
				cont := strings.TrimSpace(lines[j])
				if cont == "" || strings.Contains(cont, ":") {
					break
				}
				parts = append(parts, cont)
			}

			value := strings.TrimSpace(strings.Join(parts, " "))
			if value != "" {
				sec.set(&ins, value)
				matched = true
			}
			break
		}
	}

	return ins, matched
}
