package prompt

import (
	"strings"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// ExtractSections pulls the six marked sections out of a raw model reply.
// A section whose markers are missing comes back as "". It never fails.
func ExtractSections(raw string) models.ResponseBundle {
	return models.ResponseBundle{
		Validation:     ExtractSection(raw, SectionValidation),
		Insights:       ExtractSection(raw, SectionInsights),
		Milestones:     ExtractSection(raw, SectionMilestones),
		Actions:        ExtractSection(raw, SectionActions),
		Support:        ExtractSection(raw, SectionSupport),
		GrowthOverview: ExtractSection(raw, SectionGrowth),
	}
}

// ExtractSection returns the cleaned text between the first start marker of s and the
// first end marker after it.
func ExtractSection(raw string, s Section) string {
	start := strings.Index(raw, s.StartMarker())
	if start == -1 {
		return ""
	}
	contentStart := start + len(s.StartMarker())
	end := strings.Index(raw[contentStart:], s.EndMarker())
	if end == -1 {
		return ""
	}
	return cleanSection(raw[contentStart : contentStart+end])
}

func cleanSection(content string) string {
	content = strings.TrimSpace(content)
	content = strings.ReplaceAll(content, "* ", "• ")
	lines := strings.Split(content, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
